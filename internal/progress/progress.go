// Package progress renders a terminal progress bar for long builds. The
// total is not known up front; workers grow it as they discover files.
package progress

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// Bar tracks build progress. A nil Bar is a no-op, so callers that run
// without a terminal skip the guards.
type Bar struct {
	bar *progressbar.ProgressBar
}

func New(w io.Writer, description string) *Bar {
	if w == nil {
		return nil
	}
	return &Bar{bar: progressbar.NewOptions64(0,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)}
}

// AddMax grows the amount of expected work.
func (b *Bar) AddMax(n int) {
	if b == nil {
		return
	}
	b.bar.ChangeMax64(b.bar.GetMax64() + int64(n))
}

// Add records completed work.
func (b *Bar) Add(n int) {
	if b == nil {
		return
	}
	_ = b.bar.Add(n)
}

// Finish completes and clears the bar.
func (b *Bar) Finish() {
	if b == nil {
		return
	}
	_ = b.bar.Finish()
}
