package report

import (
	"io"

	"github.com/schollz/progressbar/v3"

	"github.com/audittools/smtp-audit/internal/dispatch"
)

// NewProgress returns a progress callback rendering a live bar to w, plus a
// finish function that completes the bar and terminates its output line.
// The callback plugs into the dispatcher's OnProgress hook.
func NewProgress(total int, w io.Writer) (func(dispatch.Progress), func()) {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Processing"),
		progressbar.OptionShowCount(),
	)
	update := func(p dispatch.Progress) {
		_ = bar.Set(p.Completed)
	}
	finish := func() {
		_ = bar.Finish()
		_, _ = io.WriteString(w, "\n")
	}
	return update, finish
}
