package progress

import (
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// NewSingle creates a reporter for a one-file transfer. It draws a single
// inline bar, which reads better than the stacked layout when there is
// nothing to stack.
func NewSingle() Reporter {
	return &singleReporter{
		isTerminal: term.IsTerminal(int(os.Stderr.Fd())),
	}
}

type singleReporter struct {
	isTerminal bool
}

func (s *singleReporter) AddBar(name string, size int64) Bar {
	if !s.isTerminal {
		return &logBar{name: name, size: size}
	}

	bar := progressbar.NewOptions64(size,
		progressbar.OptionSetDescription(name),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowBytes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer: "█", SaucerPadding: "░", BarStart: "[", BarEnd: "]",
		}),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionThrottle(0),
	)
	return &singleBar{bar: bar, name: name}
}

func (s *singleReporter) Wait() {}

func (s *singleReporter) Writer() io.Writer {
	return os.Stderr
}

func (s *singleReporter) IsTerminal() bool {
	return s.isTerminal
}

type singleBar struct {
	bar  *progressbar.ProgressBar
	name string
}

func (b *singleBar) Advance(n int64) {
	_ = b.bar.Add64(n)
}

func (b *singleBar) SetRetry(attempt int) {
	b.bar.Describe(b.name + " (retrying)")
}

func (b *singleBar) Complete(err error) {
	if err != nil {
		_ = b.bar.Exit()
		return
	}
	_ = b.bar.Finish()
}

func (b *singleBar) ProxyReader(r io.Reader) io.ReadCloser {
	return io.NopCloser(&countingReader{r: r, bar: b})
}
