// Package progress renders transfer progress. Multi-file transfers get one
// mpb bar per file; single-file transfers a plain progressbar; non-TTY runs
// fall back to log lines so piped output stays clean.
package progress

import "io"

// Reporter tracks a set of concurrent transfers.
type Reporter interface {
	// AddBar registers one transfer of the given total size. Size -1 means
	// unknown (public shares without size metadata).
	AddBar(name string, size int64) Bar

	// Wait blocks until every bar has completed or aborted.
	Wait()

	// Writer returns a sink that prints above active bars. Route log output
	// here while bars are up so lines do not tear the rendering.
	Writer() io.Writer

	// IsTerminal reports whether bars are actually rendered.
	IsTerminal() bool
}

// Bar is the handle for one transfer.
type Bar interface {
	// Advance adds transferred bytes.
	Advance(n int64)

	// SetRetry marks the bar with the current retry attempt.
	SetRetry(attempt int)

	// Complete finishes the bar; a non-nil err renders it as failed.
	Complete(err error)

	// ProxyReader wraps r so reads advance the bar.
	ProxyReader(r io.Reader) io.ReadCloser
}

// Nop returns a reporter that renders nothing, for quiet mode and tests.
func Nop() Reporter { return nopReporter{} }

type nopReporter struct{}

func (nopReporter) AddBar(string, int64) Bar { return nopBar{} }
func (nopReporter) Wait()                    {}
func (nopReporter) Writer() io.Writer        { return io.Discard }
func (nopReporter) IsTerminal() bool         { return false }

type nopBar struct{}

func (nopBar) Advance(int64)  {}
func (nopBar) SetRetry(int)   {}
func (nopBar) Complete(error) {}
func (nopBar) ProxyReader(r io.Reader) io.ReadCloser {
	return io.NopCloser(r)
}
