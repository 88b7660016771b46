package cli

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"

	"github.com/datavault/dvcli/internal/api"
	"github.com/datavault/dvcli/internal/auth"
	"github.com/datavault/dvcli/internal/config"
	"github.com/datavault/dvcli/internal/credstore"
	"github.com/datavault/dvcli/internal/crypto"
	dvhttp "github.com/datavault/dvcli/internal/http"
	"github.com/datavault/dvcli/internal/models"
	"github.com/datavault/dvcli/internal/nodes"
)

// env bundles everything a connected command needs.
type env struct {
	cfg      *config.Config
	store    *credstore.Store
	session  *auth.Session
	api      *api.Client
	nodes    *nodes.Service
	resolver *nodes.Resolver
}

// hostOf extracts the server host from a node path argument like
// "dv.example.com/projects/report.pdf".
func hostOf(pathArg string) (string, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(pathArg), "https://")
	trimmed = strings.Trim(trimmed, "/")
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty path", api.ErrInvalidPath)
	}
	host := strings.SplitN(trimmed, "/", 2)[0]
	if !strings.Contains(host, ".") {
		return "", fmt.Errorf("%w: %q does not start with a server host", api.ErrInvalidPath, pathArg)
	}
	return host, nil
}

// applyProxySettings copies the proxy flags onto cfg and prompts once for
// the proxy password when the chosen mode needs one. The prompted password
// is kept for the rest of the invocation so multi-connect commands do not
// re-prompt.
func applyProxySettings(cfg *config.Config) error {
	if proxyMode != "" {
		cfg.ProxyMode = proxyMode
	}
	cfg.ProxyHost = proxyHost
	cfg.ProxyPort = proxyPort
	cfg.ProxyUser = proxyUser
	cfg.ProxyPassword = proxyPassword
	cfg.NoProxy = noProxy

	if dvhttp.NeedsProxyPassword(cfg) {
		pw, err := promptPassword("Proxy password: ")
		if err != nil {
			return err
		}
		proxyPassword = pw
		cfg.ProxyPassword = pw
	}
	return nil
}

// connect restores the session for the server named in pathArg from the
// stored refresh token. Not being logged in is ErrNotConnected, not a
// stack of HTTP noise.
func connect(ctx context.Context, pathArg string) (*env, error) {
	host, err := hostOf(pathArg)
	if err != nil {
		return nil, err
	}

	cfg, err := config.New(host)
	if err != nil {
		return nil, err
	}
	cfg.Velocity = velocity
	if err := applyProxySettings(cfg); err != nil {
		return nil, err
	}

	store, err := credstore.Open()
	if err != nil {
		return nil, err
	}

	refreshToken, err := store.RefreshToken(cfg.TargetURL)
	if err != nil {
		if errors.Is(err, credstore.ErrNotFound) {
			return nil, fmt.Errorf("%w (server %s)", api.ErrNotConnected, host)
		}
		return nil, err
	}

	httpClient, err := dvhttp.NewBaseClient(cfg)
	if err != nil {
		return nil, err
	}

	authClient, err := auth.NewClient(cfg, httpClient)
	if err != nil {
		return nil, err
	}

	session, err := authClient.Connect(ctx, auth.RefreshTokenFlow{Token: refreshToken})
	if err != nil {
		var authErr *api.AuthError
		if errors.As(err, &authErr) {
			// Refresh token revoked or expired; the stale secret is useless.
			_ = store.DeleteRefreshToken(cfg.TargetURL)
			return nil, fmt.Errorf("%w (session expired, server %s)", api.ErrNotConnected, host)
		}
		return nil, err
	}

	// The token endpoint may rotate the refresh token on use.
	if rt := session.RefreshToken(); rt != "" && rt != refreshToken {
		if err := store.SetRefreshToken(cfg.TargetURL, rt); err != nil {
			logger.Warnf("failed to persist rotated refresh token: %v", err)
		}
	}

	client, err := api.NewClient(cfg, session)
	if err != nil {
		return nil, err
	}

	svc := nodes.NewService(client)
	return &env{
		cfg:      cfg,
		store:    store,
		session:  session,
		api:      client,
		nodes:    svc,
		resolver: nodes.NewResolver(svc),
	}, nil
}

// anonymousClient builds a token-less API client for public share access.
func anonymousClient(target string) (*api.Client, *config.Config, error) {
	cfg, err := config.New(target)
	if err != nil {
		return nil, nil, err
	}
	if err := applyProxySettings(cfg); err != nil {
		return nil, nil, err
	}
	client, err := api.NewClient(cfg, nil)
	if err != nil {
		return nil, nil, err
	}
	return client, cfg, nil
}

// unlockPrivateKey fetches the account key pair and opens it with the
// stored passphrase, prompting once when none is stored.
func (e *env) unlockPrivateKey(ctx context.Context) (*rsa.PrivateKey, error) {
	var pair models.UserKeyPair
	if err := e.api.Get(ctx, "/user/account/keypair", nil, &pair); err != nil {
		return nil, fmt.Errorf("failed to fetch account keypair: %w", err)
	}

	passphrase, err := e.store.Passphrase(e.cfg.TargetURL)
	if errors.Is(err, credstore.ErrNotFound) {
		passphrase, err = promptPassword("Encryption passphrase: ")
	}
	if err != nil {
		return nil, err
	}

	key, err := crypto.OpenPrivateKey(pair.PrivateKeyContainer.PrivateKey, passphrase)
	if err != nil {
		return nil, err
	}
	return key, nil
}
