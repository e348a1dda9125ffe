// Package logging assembles the structured slog loggers used by the MMSL
// tools.
//
// It owns the console and JSON handlers, centralizes level plumbing, and
// exposes a no-op logger for tests and wiring code that cannot fail. Prefer
// these constructors over hand-rolled slog setup so every command emits log
// lines with the same shape.
package logging
