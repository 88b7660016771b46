// Package auth implements the OAuth2 session machine. A Client is the
// disconnected state; Connect moves it to a Session, which is the only type
// that can mint Authorization headers. Authenticated calls therefore cannot
// be issued before a successful login.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	nethttp "net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/datavault/dvcli/internal/api"
	"github.com/datavault/dvcli/internal/config"
	"github.com/datavault/dvcli/internal/constants"
)

// Configuration errors surfaced before any network traffic.
var (
	ErrMissingClientID     = errors.New("missing OAuth client id")
	ErrMissingClientSecret = errors.New("missing OAuth client secret")
	ErrMissingBaseURL      = errors.New("missing target URL")
)

// Flow selects how the initial token is obtained.
type Flow interface {
	token(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error)
}

// PasswordFlow exchanges resource-owner credentials for a token.
type PasswordFlow struct {
	Username string
	Password string
}

func (f PasswordFlow) token(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	return cfg.PasswordCredentialsToken(ctx, f.Username, f.Password)
}

// AuthCodeFlow exchanges an authorization code obtained from the browser.
type AuthCodeFlow struct {
	Code string
}

func (f AuthCodeFlow) token(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	return cfg.Exchange(ctx, f.Code)
}

// RefreshTokenFlow resumes a session from a persisted refresh token.
type RefreshTokenFlow struct {
	Token string
}

func (f RefreshTokenFlow) token(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	return cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: f.Token}).Token()
}

// Client is the disconnected state: it can build the authorize URL and
// connect, nothing else.
type Client struct {
	oauth      *oauth2.Config
	httpClient *nethttp.Client
	targetURL  string
}

// NewClient validates the client configuration and returns a disconnected
// auth client. httpClient carries the shared transport (proxy, TLS floor).
func NewClient(cfg *config.Config, httpClient *nethttp.Client) (*Client, error) {
	if cfg == nil || cfg.TargetURL == "" {
		return nil, ErrMissingBaseURL
	}
	if cfg.ClientID == "" {
		return nil, ErrMissingClientID
	}
	if cfg.ClientSecret == "" {
		return nil, ErrMissingClientSecret
	}

	return &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       []string{"all"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.TargetURL + "/oauth/authorize",
				TokenURL:  cfg.TargetURL + "/oauth/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: httpClient,
		targetURL:  cfg.TargetURL,
	}, nil
}

// AuthorizeURL returns the browser URL for the authorization code flow.
func (c *Client) AuthorizeURL() string {
	return c.oauth.AuthCodeURL("")
}

// Connect runs the given flow and transitions to a connected Session.
func (c *Client) Connect(ctx context.Context, flow Flow) (*Session, error) {
	tok, err := flow.token(c.oauthContext(ctx), c.oauth)
	if err != nil {
		return nil, translateOAuthError(err)
	}

	return &Session{
		oauth:      c.oauth,
		httpClient: c.httpClient,
		targetURL:  c.targetURL,
		token:      tok,
	}, nil
}

// oauthContext makes the oauth2 package use our shared HTTP client.
func (c *Client) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// Session is the connected state. Invariant: token.AccessToken is non-empty
// and not past its expiry at the moment AuthorizationHeader hands it out.
type Session struct {
	oauth      *oauth2.Config
	httpClient *nethttp.Client
	targetURL  string

	mu    sync.Mutex
	token *oauth2.Token
}

// AuthorizationHeader returns "Bearer <access_token>", refreshing the token
// first when it expires within the refresh margin. The mutex intentionally
// serializes refreshes; concurrent callers coalesce on a single exchange and
// all observe either the old or the new token.
func (s *Session) AuthorizationHeader(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.needsRefreshLocked() {
		if err := s.refreshLocked(ctx); err != nil {
			return "", err
		}
	}

	return "Bearer " + s.token.AccessToken, nil
}

func (s *Session) needsRefreshLocked() bool {
	if s.token.AccessToken == "" {
		return true
	}
	if s.token.Expiry.IsZero() {
		return false
	}
	return time.Until(s.token.Expiry) < constants.TokenRefreshMargin
}

func (s *Session) refreshLocked(ctx context.Context) error {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)

	src := s.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: s.token.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		return translateOAuthError(err)
	}

	s.token = tok
	return nil
}

// RefreshToken returns the current refresh token so the CLI can persist it
// in the credential store after login.
func (s *Session) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token.RefreshToken
}

// AccessTokenExpiry returns the expiry of the current access token.
func (s *Session) AccessTokenExpiry() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token.Expiry
}

// Revoke revokes the refresh token, best effort. The session is unusable
// afterwards regardless of the result.
func (s *Session) Revoke(ctx context.Context) error {
	s.mu.Lock()
	token := s.token.RefreshToken
	s.mu.Unlock()

	form := url.Values{}
	form.Set("token", token)
	form.Set("token_type_hint", "refresh_token")
	form.Set("client_id", s.oauth.ClientID)
	form.Set("client_secret", s.oauth.ClientSecret)

	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodPost,
		s.targetURL+"/oauth/revoke", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("revoke failed: %w", err)
	}
	defer resp.Body.Close()
	return nil
}

// translateOAuthError maps oauth2 retrieval failures onto the error
// taxonomy: OAuth error bodies become AuthError, everything else is a
// connection failure.
func translateOAuthError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		authErr := &api.AuthError{}
		if jsonErr := json.Unmarshal(retrieveErr.Body, authErr); jsonErr == nil && authErr.Err != "" {
			return authErr
		}
		return &api.AuthError{
			Err:         fmt.Sprintf("http_%d", retrieveErr.Response.StatusCode),
			Description: string(retrieveErr.Body),
		}
	}
	return fmt.Errorf("connection failed: %w", err)
}
