package main

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// parseProgress returns a per-line progress callback plus a finisher. The
// bar only renders when stderr is a terminal; in pipes and tests both
// returned functions are inert.
func parseProgress(cmd *cobra.Command) (func(done, total int), func()) {
	errOut := cmd.ErrOrStderr()
	if !isTerminal(errOut) {
		return nil, func() {}
	}

	var bar *progressbar.ProgressBar
	progress := func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(errOut),
				progressbar.OptionSetDescription("parsing"),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}
		_ = bar.Set(done)
	}
	finish := func() {
		if bar != nil {
			_ = bar.Finish()
		}
	}
	return progress, finish
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
