package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/datavault/dvcli/internal/auth"
	"github.com/datavault/dvcli/internal/config"
	"github.com/datavault/dvcli/internal/credstore"
	dvhttp "github.com/datavault/dvcli/internal/http"
)

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout <server>",
		Short: "Revoke the stored session and forget its credentials",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New(args[0])
			if err != nil {
				return err
			}
			if err := applyProxySettings(cfg); err != nil {
				return err
			}
			store, err := credstore.Open()
			if err != nil {
				return err
			}

			// Revocation is best effort: the local credentials go away even
			// when the server is unreachable or the token already expired.
			if token, err := store.RefreshToken(cfg.TargetURL); err == nil {
				revokeToken(cmd, cfg, token)
			}

			if err := store.DeleteRefreshToken(cfg.TargetURL); err != nil {
				if errors.Is(err, credstore.ErrNotFound) {
					logger.Infof("not logged in to %s", cfg.Host())
					return nil
				}
				return err
			}
			if err := store.DeletePassphrase(cfg.TargetURL); err != nil && !errors.Is(err, credstore.ErrNotFound) {
				logger.Warnf("failed to remove stored passphrase: %v", err)
			}

			logger.Infof("logged out from %s", cfg.Host())
			return nil
		},
	}
}

func revokeToken(cmd *cobra.Command, cfg *config.Config, token string) {
	httpClient, err := dvhttp.NewBaseClient(cfg)
	if err != nil {
		logger.Debugf("skipping token revocation: %v", err)
		return
	}
	authClient, err := auth.NewClient(cfg, httpClient)
	if err != nil {
		logger.Debugf("skipping token revocation: %v", err)
		return
	}
	session, err := authClient.Connect(cmd.Context(), auth.RefreshTokenFlow{Token: token})
	if err != nil {
		logger.Debugf("skipping token revocation: %v", err)
		return
	}
	if err := session.Revoke(cmd.Context()); err != nil {
		logger.Warnf("token revocation failed: %v", err)
	}
}
