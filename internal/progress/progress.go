// Package progress wraps a terminal progress bar that stays silent when
// stdout is not a TTY.
package progress

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

type Bar struct {
	bar *progressbar.ProgressBar
}

func NewBar(max int, desc string) *Bar {
	out := io.Writer(os.Stdout)
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		out = io.Discard
	}
	return &Bar{bar: progressbar.NewOptions(max,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]/[reset]",
			SaucerHead:    "[green]/[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))}
}

func (b *Bar) Add(n int) {
	_ = b.bar.Add(n)
}

func (b *Bar) Finish() {
	_ = b.bar.Finish()
}
