package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mmsl/internal/pipeline"
	"mmsl/internal/schedule"
	"mmsl/internal/song"
)

func newEventsCommand(ctx *commandContext) *cobra.Command {
	var fps float64
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "events <file>",
		Short: "Flatten an MMSL document into a timed event plan",
		Long: `Parse and schedule an MMSL document, then print every event with its
beat position, wall-clock seconds, and frame number. Output renders as a
table on a terminal and as JSON when piped or when --json is set.`,
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

			if !cmd.Flags().Changed("fps") {
				fps = cfg.Video.FPS
			}
			if fps <= 0 {
				return fmt.Errorf("fps must be positive, got %g", fps)
			}

			result, runErr := pipeline.Run(string(input), pipeline.Options{
				Strict:             cfg.Parser.Strict,
				KnownCues:          cfg.Cues.Known,
				MaxLines:           cfg.Parser.MaxLines,
				DefaultBPM:         cfg.Song.BPM,
				DefaultBeatsPerBar: cfg.Song.BeatsPerBar,
				Logger:             ctx.logger("events"),
			})

			// Only schedule songs that made it through to an IR; a fatal
			// diagnostic leaves nothing worth flattening.
			if result.IR != nil {
				plan, scheduleErr := result.Schedule()
				if plan != nil {
					return renderEvents(cmd, result, plan, fps, asJSON, runErr)
				}
				runErr = scheduleErr
			}

			errOut := cmd.ErrOrStderr()
			for _, d := range result.Diagnostics {
				fmt.Fprintln(errOut, d.JSON())
			}
			return runErr
		},
	}

	cmd.Flags().Float64Var(&fps, "fps", 0, "Frame rate for the frame column (defaults to config video.fps)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit events as JSON even on a terminal")

	return cmd
}

func renderEvents(cmd *cobra.Command, result *pipeline.Result, plan *schedule.Plan, fps float64, asJSON bool, runErr error) error {
	errOut := cmd.ErrOrStderr()
	for _, d := range result.Diagnostics {
		fmt.Fprintln(errOut, d.JSON())
	}

	if asJSON || !isTerminal(cmd.OutOrStdout()) {
		if err := writeJSON(cmd, eventsToJSON(plan, fps)); err != nil {
			return err
		}
		return runErr
	}

	headers := []string{"BEAT", "SECONDS", "FRAME", "TYPE", "SECTION", "DETAIL"}
	rows := make([][]string, 0, len(plan.Events))
	for _, ev := range plan.Events {
		rows = append(rows, []string{
			strconv.FormatFloat(ev.TimeBeats, 'f', 3, 64),
			strconv.FormatFloat(ev.TimeSeconds, 'f', 3, 64),
			strconv.Itoa(plan.Tempo.BeatToFrame(ev.TimeBeats, fps)),
			string(ev.Type),
			ev.Section,
			eventDetail(ev),
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, 0, 1, 2))
	return runErr
}

type eventJSON struct {
	Beat    float64        `json:"beat"`
	Seconds float64        `json:"seconds"`
	Frame   int            `json:"frame"`
	Type    string         `json:"type"`
	Section string         `json:"section"`
	Payload map[string]any `json:"payload,omitempty"`
}

func eventsToJSON(plan *schedule.Plan, fps float64) []eventJSON {
	out := make([]eventJSON, 0, len(plan.Events))
	for _, ev := range plan.Events {
		out = append(out, eventJSON{
			Beat:    ev.TimeBeats,
			Seconds: ev.TimeSeconds,
			Frame:   plan.Tempo.BeatToFrame(ev.TimeBeats, fps),
			Type:    string(ev.Type),
			Section: ev.Section,
			Payload: ev.Payload,
		})
	}
	return out
}

// eventDetail compresses an event payload into one table cell.
func eventDetail(ev song.Event) string {
	if text, ok := ev.Payload["text"].(string); ok {
		return text
	}
	name, _ := ev.Payload["name"].(string)
	category, _ := ev.Payload["category"].(string)
	detail := name
	if category != "" {
		detail = category + "." + name
	}
	if params, ok := ev.Payload["params"].(map[string]any); ok && len(params) > 0 {
		keys := make([]string, 0, len(params))
		for key := range params {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, key := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", key, params[key]))
		}
		detail += " " + strings.Join(parts, " ")
	}
	return detail
}
