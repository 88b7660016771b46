package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/datavault/dvcli/internal/auth"
	"github.com/datavault/dvcli/internal/config"
	"github.com/datavault/dvcli/internal/credstore"
	dvhttp "github.com/datavault/dvcli/internal/http"
)

func newLoginCmd() *cobra.Command {
	var (
		username        string
		password        string
		useAuthCode     bool
		clientID        string
		clientSecret    string
		storePassphrase bool
	)

	cmd := &cobra.Command{
		Use:   "login <server>",
		Short: "Log in to a DataVault server and store the session",
		Long: `Log in to a DataVault server. On success the refresh token is stored
in the OS credential manager; later commands resume the session from it.

By default credentials are prompted and exchanged directly. With
--auth-code the browser authorization flow is used instead: open the
printed URL, log in there, and paste the code back.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New(args[0])
			if err != nil {
				return err
			}
			if err := applyProxySettings(cfg); err != nil {
				return err
			}
			if clientID != "" {
				cfg.ClientID = clientID
			}
			if clientSecret != "" {
				cfg.ClientSecret = clientSecret
			}

			httpClient, err := dvhttp.NewBaseClient(cfg)
			if err != nil {
				return err
			}
			authClient, err := auth.NewClient(cfg, httpClient)
			if err != nil {
				return err
			}

			var flow auth.Flow
			if useAuthCode {
				fmt.Fprintf(cmd.ErrOrStderr(), "Open this URL in your browser and log in:\n\n  %s\n\n", authClient.AuthorizeURL())
				code, err := promptLine("Authorization code: ")
				if err != nil {
					return err
				}
				flow = auth.AuthCodeFlow{Code: code}
			} else {
				if username == "" {
					if username, err = promptLine("Username: "); err != nil {
						return err
					}
				}
				if password == "" {
					if password, err = promptPassword("Password: "); err != nil {
						return err
					}
				}
				flow = auth.PasswordFlow{Username: username, Password: password}
			}

			session, err := authClient.Connect(cmd.Context(), flow)
			if err != nil {
				return err
			}

			store, err := credstore.Open()
			if err != nil {
				return err
			}
			if err := store.SetRefreshToken(cfg.TargetURL, session.RefreshToken()); err != nil {
				return err
			}

			if storePassphrase {
				passphrase, err := promptPassword("Encryption passphrase: ")
				if err != nil {
					return err
				}
				if err := store.SetPassphrase(cfg.TargetURL, passphrase); err != nil {
					return err
				}
			}

			logger.Infof("logged in to %s", cfg.Host())
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "account user name (prompted when omitted)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (prompted when omitted)")
	cmd.Flags().BoolVar(&useAuthCode, "auth-code", false, "use the browser authorization code flow")
	cmd.Flags().StringVar(&clientID, "client-id", "", "override the OAuth client id")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "override the OAuth client secret")
	cmd.Flags().BoolVar(&storePassphrase, "store-passphrase", false,
		"also store the encryption passphrase for encrypted rooms")

	return cmd
}
