// Package pipeline wires the parse, validate, serialize, and schedule
// phases into the operations the CLI and embedding callers use.
//
// Each Run owns all of its state, so any number of inputs can be processed
// concurrently with no coordination. There is no mid-parse I/O and cost is
// linear in input size; callers wanting bounded latency set MaxLines
// instead of passing a cancellation context.
package pipeline

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"mmsl/internal/diag"
	"mmsl/internal/dsl"
	"mmsl/internal/ir"
	"mmsl/internal/schedule"
	"mmsl/internal/song"
	"mmsl/internal/validate"
)

// DefaultMaxLines caps input size when the caller does not choose a limit.
const DefaultMaxLines = 10000

// Options configures one pipeline run.
type Options struct {
	// Strict escalates unknown-cue warnings to errors.
	Strict bool
	// BPM and BeatsPerBar override the corresponding headers when > 0.
	BPM         float64
	BeatsPerBar float64
	// DefaultBPM and DefaultBeatsPerBar replace the built-in fallbacks
	// when > 0; headers still win over them.
	DefaultBPM         float64
	DefaultBeatsPerBar float64
	// KnownCues is the cue namespace for validation; empty disables the
	// unknown-cue check.
	KnownCues []string
	// MaxLines rejects oversized inputs before parsing. Zero means
	// DefaultMaxLines.
	MaxLines int
	// Progress receives per-line parse progress.
	Progress func(done, total int)
	// Logger receives structured run telemetry. Nil disables logging.
	Logger *slog.Logger
}

// Result is one run's complete output. IR is nil when a fatal diagnostic
// blocked emission; Diagnostics always carries everything recorded.
type Result struct {
	RunID       string
	Song        *song.Song
	IR          *ir.Document
	Diagnostics []diag.Diagnostic
}

// Run parses and validates input and builds its IR.
//
// The returned error classifies the outcome: nil for success (warnings
// allowed), diag.ErrValidation for validation failures (IR is built unless
// a fatal diagnostic suppressed it), diag.ErrFatalInput when the input
// itself was unusable (unreadable or over the line ceiling). The Result is
// non-nil in every case.
func Run(input string, opts Options) (*Result, error) {
	start := time.Now()
	result := &Result{RunID: uuid.NewString()}
	logger := opts.Logger
	if logger != nil {
		logger = logger.With("run_id", result.RunID)
	}

	maxLines := opts.MaxLines
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}
	if lines := strings.Count(input, "\n") + 1; lines > maxLines {
		d := diag.Fatal(diag.IOError, 0, "input", "input has %d lines, limit is %d", lines, maxLines)
		result.Diagnostics = []diag.Diagnostic{d}
		if logger != nil {
			logger.Error("input rejected", "lines", lines, "max_lines", maxLines)
		}
		return result, fmt.Errorf("%w: %s", diag.ErrFatalInput, d.Message)
	}

	sng, parseDiags := dsl.Parse(input, dsl.Options{
		BPM:                opts.BPM,
		BeatsPerBar:        opts.BeatsPerBar,
		DefaultBPM:         opts.DefaultBPM,
		DefaultBeatsPerBar: opts.DefaultBeatsPerBar,
		Progress:           opts.Progress,
	})
	result.Song = sng

	var diags diag.List
	diags.Add(parseDiags...)
	diags.Add(validate.Song(sng, validate.Options{
		Strict:    opts.Strict,
		KnownCues: opts.KnownCues,
	})...)
	result.Diagnostics = diags.Items()

	if logger != nil {
		logger.Debug("parse complete",
			"sections", len(sng.Sections),
			"diagnostics", diags.Len(),
			"elapsed", time.Since(start))
	}

	if diags.HasFatal() {
		if logger != nil {
			logger.Error("fatal diagnostics, no IR emitted", "diagnostics", diags.Len())
		}
		// Only unreadable or oversized input is an input failure; a fatal
		// raised by the validator is still a validation outcome.
		if diags.Count(diag.IOError) > 0 {
			return result, fmt.Errorf("%w: %d diagnostics", diag.ErrFatalInput, diags.Len())
		}
		return result, fmt.Errorf("%w: %d diagnostics", diag.ErrValidation, diags.Len())
	}

	result.IR = ir.Build(sng)
	if diags.HasErrors() {
		return result, fmt.Errorf("%w: %d diagnostics", diag.ErrValidation, diags.Len())
	}
	if logger != nil {
		logger.Info("ir emitted",
			"title", sng.Title,
			"sections", len(sng.Sections),
			"warnings", diags.Len())
	}
	return result, nil
}

// Schedule flattens a previously parsed song into its event plan. The
// scheduler can still fail fatally on tempo conflicts; those diagnostics
// are appended to the result.
func (r *Result) Schedule() (*schedule.Plan, error) {
	if r.Song == nil {
		return nil, fmt.Errorf("%w: nothing parsed", diag.ErrFatalInput)
	}
	plan, diags := schedule.Events(r.Song)
	r.Diagnostics = append(r.Diagnostics, diags...)
	if plan == nil {
		// Tempo conflicts are authored mistakes, classified like any other
		// validation failure.
		return nil, fmt.Errorf("%w: tempo map unusable", diag.ErrValidation)
	}
	return plan, nil
}
