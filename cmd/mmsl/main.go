package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"mmsl/internal/diag"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		// Pipeline failures already streamed their diagnostics as JSON
		// lines; a prose summary would pollute that stream.
		switch {
		case errors.Is(err, diag.ErrValidation):
			os.Exit(2)
		case errors.Is(err, diag.ErrFatalInput), errors.Is(err, context.Canceled):
			os.Exit(1)
		default:
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}
