// Package config holds client configuration: the normalized target URL,
// the embedded OAuth client credentials, and proxy settings.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/datavault/dvcli/internal/constants"
)

// OAuth client credentials for this public client. Injected at build time via
//
//	-ldflags "-X github.com/datavault/dvcli/internal/config.ClientID=... \
//	          -X github.com/datavault/dvcli/internal/config.ClientSecret=..."
var (
	ClientID     = "dvcli"
	ClientSecret = "dvcli"
)

// ErrInvalidURL is wrapped into errors returned for malformed target URLs.
var ErrInvalidURL = fmt.Errorf("invalid target URL")

// Config carries everything the transport and session layers need.
type Config struct {
	// TargetURL is the normalized https://<host> base of the service.
	TargetURL string

	// OAuth client credentials; default to the build-time values above.
	ClientID     string
	ClientSecret string

	// RedirectURI for the authorization code flow.
	RedirectURI string

	// Proxy settings. Mode is one of "", "no-proxy", "system", "basic", "ntlm".
	ProxyMode     string
	ProxyHost     string
	ProxyPort     int
	ProxyUser     string
	ProxyPassword string
	NoProxy       string

	// Velocity is the user-facing transfer concurrency knob (1..10).
	Velocity int
}

// New builds a Config for the given target URL with embedded credentials
// and the default velocity.
func New(target string) (*Config, error) {
	normalized, err := NormalizeTargetURL(target)
	if err != nil {
		return nil, err
	}

	return &Config{
		TargetURL:    normalized,
		ClientID:     ClientID,
		ClientSecret: ClientSecret,
		RedirectURI:  normalized + "/oauth/callback",
		Velocity:     constants.DefaultVelocity,
	}, nil
}

// NormalizeTargetURL forces the https scheme and strips any path, query or
// trailing slash, leaving the canonical https://<host> form used as the
// keyring index and API base.
func NormalizeTargetURL(target string) (string, error) {
	trimmed := strings.TrimSpace(target)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidURL)
	}

	// Tolerate bare hosts and http:// input; the service only speaks https.
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidURL)
	}

	return "https://" + u.Host, nil
}

// Host returns the host portion of the target URL.
func (c *Config) Host() string {
	u, err := url.Parse(c.TargetURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// Dir returns the per-user configuration directory (created on demand).
// Only the log file lives here; credentials stay in the OS keyring.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config dir: %w", err)
	}

	dir := filepath.Join(base, constants.AppName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config dir: %w", err)
	}
	return dir, nil
}

// LogFilePath returns the path of the client log file.
func LogFilePath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, constants.AppName+".log"), nil
}
