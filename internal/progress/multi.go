package progress

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"
)

// multiReporter renders one mpb bar per file, stacked, with an aggregate
// counter in each bar's prefix.
type multiReporter struct {
	progress   *mpb.Progress
	isTerminal bool
	total      int
	started    atomic.Int32
}

// NewMulti creates a reporter for a transfer of totalFiles files. On a
// non-TTY stderr the bars are discarded and completions are logged instead.
func NewMulti(totalFiles int) Reporter {
	isTerminal := term.IsTerminal(int(os.Stderr.Fd()))

	var p *mpb.Progress
	if isTerminal {
		enableWindowsANSI(os.Stderr)
		p = mpb.New(
			mpb.WithOutput(os.Stderr),
			mpb.WithRefreshRate(300*time.Millisecond),
			mpb.WithWidth(100),
		)
	} else {
		p = mpb.New(mpb.WithOutput(io.Discard))
	}

	return &multiReporter{
		progress:   p,
		isTerminal: isTerminal,
		total:      totalFiles,
	}
}

func (m *multiReporter) AddBar(name string, size int64) Bar {
	index := int(m.started.Add(1))

	if !m.isTerminal {
		return &logBar{name: name, size: size}
	}

	fb := &fileBar{name: name}
	if size < 0 {
		size = 0 // mpb treats 0 total as indeterminate until SetTotal
	}
	fb.bar = m.progress.New(size,
		mpb.BarStyle().Lbound("[").Filler("█").Tip("█").Padding("░").Rbound("]"),
		mpb.PrependDecorators(
			decor.Any(func(s decor.Statistics) string {
				label := fmt.Sprintf("[%d/%d] %s", index, m.total, name)
				if r := fb.retries.Load(); r > 0 {
					label += fmt.Sprintf(" (retry %d)", r)
				}
				return label
			}, decor.WC{C: decor.DSyncWidthR}),
		),
		mpb.AppendDecorators(
			decor.CountersKibiByte("% .1f / % .1f"),
			decor.Name(" "),
			decor.AverageSpeed(decor.SizeB1024(0), "% .1f"),
		),
		mpb.BarRemoveOnComplete(),
	)
	return fb
}

func (m *multiReporter) Wait() {
	m.progress.Wait()
}

func (m *multiReporter) Writer() io.Writer {
	if m.isTerminal {
		return m.progress
	}
	return os.Stderr
}

func (m *multiReporter) IsTerminal() bool {
	return m.isTerminal
}

type fileBar struct {
	bar     *mpb.Bar
	name    string
	retries atomic.Int32
}

func (f *fileBar) Advance(n int64) {
	f.bar.IncrInt64(n)
}

func (f *fileBar) SetRetry(attempt int) {
	f.retries.Store(int32(attempt))
}

func (f *fileBar) Complete(err error) {
	if err != nil {
		f.bar.Abort(false)
		return
	}
	f.bar.SetTotal(-1, true)
}

func (f *fileBar) ProxyReader(r io.Reader) io.ReadCloser {
	return f.bar.ProxyReader(r)
}

// logBar substitutes for a rendered bar on non-TTY output.
type logBar struct {
	name string
	size int64
	done atomic.Int64
}

func (l *logBar) Advance(n int64) {
	l.done.Add(n)
}

func (l *logBar) SetRetry(attempt int) {
	log.Warn().Str("file", l.name).Int("attempt", attempt).Msg("retrying transfer")
}

func (l *logBar) Complete(err error) {
	if err != nil {
		log.Error().Str("file", l.name).Err(err).Msg("transfer failed")
		return
	}
	log.Info().Str("file", l.name).Int64("bytes", l.done.Load()).Msg("transfer complete")
}

func (l *logBar) ProxyReader(r io.Reader) io.ReadCloser {
	return io.NopCloser(&countingReader{r: r, bar: l})
}

type countingReader struct {
	r   io.Reader
	bar Bar
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.bar.Advance(int64(n))
	}
	return n, err
}
