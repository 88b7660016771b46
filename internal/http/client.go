// Package http builds the shared transports used for API calls and for
// presigned S3 traffic, including proxy support and chunk-level retries.
package http

import (
	"crypto/tls"
	"net"
	nethttp "net/http"
	"os"
	"time"

	"golang.org/x/net/http2"

	"github.com/datavault/dvcli/internal/config"
	"github.com/datavault/dvcli/internal/constants"
)

// NewBaseClient creates the HTTP client used for control-plane API calls.
// Proxy settings come from cfg; TLS 1.2 is the floor.
func NewBaseClient(cfg *config.Config) (*nethttp.Client, error) {
	return configureClient(cfg, constants.HTTPRequestTimeout)
}

// NewTransferClient creates an HTTP client tuned for large transfers to and
// from presigned S3 URLs. It shares the proxy configuration with the API
// client but carries a bigger connection pool and no overall timeout; each
// chunk operation sets its own deadline via context.
func NewTransferClient(cfg *config.Config) (*nethttp.Client, error) {
	client, err := configureClient(cfg, 0)
	if err != nil {
		return nil, err
	}

	tr, ok := client.Transport.(*nethttp.Transport)
	if !ok {
		// NTLM proxy mode wraps the transport in a negotiator; the pool
		// settings from configureClient still apply underneath.
		return client, nil
	}

	tr.MaxIdleConns = 512
	tr.MaxIdleConnsPerHost = 100
	tr.MaxConnsPerHost = 100
	tr.DisableCompression = true // payloads are opaque bytes
	tr.ForceAttemptHTTP2 = true

	_ = http2.ConfigureTransport(tr)

	// Runtime toggle for HTTP/2 for debugging or broken middleboxes.
	if os.Getenv("DVCLI_DISABLE_HTTP2") == "true" {
		tr.ForceAttemptHTTP2 = false
		tr.TLSNextProto = make(map[string]func(string, *tls.Conn) nethttp.RoundTripper)
	}

	client.Transport = tr
	return client, nil
}

func configureClient(cfg *config.Config, timeout time.Duration) (*nethttp.Client, error) {
	transport := &nethttp.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
		MaxConnsPerHost:       100,
		IdleConnTimeout:       constants.HTTPIdleConnTimeout,
		TLSHandshakeTimeout:   constants.HTTPTLSHandshakeTimeout,
		ExpectContinueTimeout: constants.HTTPExpectContinueTimeout,
	}

	return applyProxy(cfg, transport, timeout)
}
