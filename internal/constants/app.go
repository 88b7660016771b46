package constants

import (
	"time"
)

// Application identity
const (
	// AppName - service name used for keyring entries and the config directory
	AppName = "dvcli"

	// UserAgent - sent on every API and S3 request
	UserAgent = "dvcli"

	// APIPrefix - path prefix of every control-plane endpoint
	APIPrefix = "/api/v4"
)

// Transfer sizing
const (
	// ChunkSize - size of each upload part sent to a presigned S3 URL (5 MB)
	//
	// Trade-offs:
	// - Smaller chunks = more presigned URL round trips but bounded memory
	// - Larger chunks = better throughput but coarser progress updates
	ChunkSize = 5 * 1024 * 1024

	// MaxUploadParts - the service caps multipart uploads at this many parts.
	// For very large files the effective chunk size grows so the part count
	// stays under this cap. See transfer.EffectiveChunkSize().
	MaxUploadParts = 10000

	// DownloadReadSize - size of each streamed read on download (64 KB)
	DownloadReadSize = 64 * 1024
)

// Pagination and request fan-out
const (
	// MaxPageSize - the API refuses limits above 500
	MaxPageSize = 500

	// MaxConcurrentRequests - cap on in-flight paginated range requests and
	// concurrent folder-creation calls
	MaxConcurrentRequests = 7
)

// Transfer concurrency
const (
	// DefaultVelocity - user-facing concurrency knob, 1..MaxVelocity
	DefaultVelocity = 1

	// MaxVelocity - upper bound of the velocity knob
	MaxVelocity = 10

	// ConcurrencyMultiplier - permits per velocity unit for file transfers
	ConcurrencyMultiplier = 5
)

// Session handling
const (
	// TokenRefreshMargin - refresh the access token when it expires within
	// this margin
	TokenRefreshMargin = 60 * time.Second

	// UploadPollInterval - delay between upload status polls after completion
	UploadPollInterval = 500 * time.Millisecond
)

// Retry configuration
const (
	// MaxRetries - maximum number of retries for transient errors
	MaxRetries = 10

	// RetryInitialDelay - initial delay before first retry (200ms)
	RetryInitialDelay = 200 * time.Millisecond

	// RetryMaxDelay - maximum delay between retries (15s)
	// Exponential backoff with jitter caps at this value
	RetryMaxDelay = 15 * time.Second
)

// HTTP transport tuning
const (
	// HTTPRequestTimeout - default per-request timeout for API calls.
	// Chunk PUTs and streamed downloads use their own per-operation timeouts.
	HTTPRequestTimeout = 60 * time.Second

	// HTTPChunkTimeout - timeout for a single chunk PUT to a presigned URL
	HTTPChunkTimeout = 10 * time.Minute

	// HTTPIdleConnTimeout - how long idle connections stay pooled
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPTLSHandshakeTimeout - TLS handshake deadline under high concurrency
	HTTPTLSHandshakeTimeout = 30 * time.Second

	// HTTPExpectContinueTimeout - wait for HTTP 100-continue
	HTTPExpectContinueTimeout = 5 * time.Second
)

// DiskSpaceSafetyFactor - safety margin applied to free-space preflight
// checks before recursive downloads
const DiskSpaceSafetyFactor = 1.05
