package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mmsl/internal/pipeline"
)

func newParseCommand(ctx *commandContext) *cobra.Command {
	var strict bool
	var bpm float64
	var beatsPerBar float64
	var outputPath string

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse an MMSL document and emit its IR as JSON",
		Long: `Parse an MMSL document, validate it, and write the canonical IR as
indented JSON to stdout (or --output). Diagnostics stream to stderr as JSON
lines, one per finding.

Exit codes:
  0  parsed cleanly (warnings allowed)
  2  validation errors; the IR is still emitted
  1  unreadable input or a fatal diagnostic suppressed the IR`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}

			input, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			opts := pipeline.Options{
				Strict:             strict || cfg.Parser.Strict,
				KnownCues:          cfg.Cues.Known,
				MaxLines:           cfg.Parser.MaxLines,
				DefaultBPM:         cfg.Song.BPM,
				DefaultBeatsPerBar: cfg.Song.BeatsPerBar,
				Logger:             ctx.logger("parse"),
			}
			if cmd.Flags().Changed("bpm") {
				opts.BPM = bpm
			}
			if cmd.Flags().Changed("beats-per-bar") {
				opts.BeatsPerBar = beatsPerBar
			}

			progress, finish := parseProgress(cmd)
			opts.Progress = progress

			result, runErr := pipeline.Run(string(input), opts)
			finish()

			errOut := cmd.ErrOrStderr()
			for _, d := range result.Diagnostics {
				fmt.Fprintln(errOut, d.JSON())
			}

			if result.IR != nil {
				payload, err := result.IR.Marshal()
				if err != nil {
					return fmt.Errorf("serialize ir: %w", err)
				}
				if target := strings.TrimSpace(outputPath); target != "" {
					if err := os.WriteFile(target, payload, 0o644); err != nil {
						return fmt.Errorf("write output: %w", err)
					}
				} else {
					if _, err := cmd.OutOrStdout().Write(payload); err != nil {
						return fmt.Errorf("write output: %w", err)
					}
				}
			}

			return runErr
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Escalate unknown-cue warnings to errors")
	cmd.Flags().Float64Var(&bpm, "bpm", 0, "Override the document's BPM header")
	cmd.Flags().Float64Var(&beatsPerBar, "beats-per-bar", 0, "Override the document's beats-per-bar header")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the IR to a file instead of stdout")

	return cmd
}
