// Package diag defines the diagnostic taxonomy shared by the parser,
// validator, and scheduler.
//
// The pipeline never panics over bad input: recoverable anomalies become
// warnings, schema problems are batched into one list so a single run
// reports everything, and only the fatal categories abort IR emission.
package diag

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Category names one diagnostic class from the error taxonomy.
type Category string

const (
	// SyntaxWarning marks a line that could not be parsed as its apparent
	// kind and was recovered as a lyric.
	SyntaxWarning Category = "syntax_warning"
	// SchemaViolation marks a structural invariant broken in the song tree.
	SchemaViolation Category = "schema_violation"
	// RangeViolation marks a parameter value outside its allowed range.
	RangeViolation Category = "range_violation"
	// UnknownCue marks a cue name absent from the configured namespace.
	UnknownCue Category = "unknown_cue"
	// TempoMapConflict marks overlapping or out-of-order tempo segments.
	TempoMapConflict Category = "tempo_map_conflict"
	// IOError marks unreadable or oversized input.
	IOError Category = "io_error"
)

// Severity orders diagnostics by how much they block IR emission.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
	SeverityFatal   Severity = "fatal"
)

// Sentinel errors used to tag pipeline failures for classification, in the
// same style the CLI uses for exit codes.
var (
	ErrValidation = errors.New("validation failed")
	ErrFatalInput = errors.New("fatal input error")
)

// Diagnostic is one recorded anomaly with its source context.
type Diagnostic struct {
	Category Category `json:"category"`
	Severity Severity `json:"severity"`
	Line     int      `json:"line,omitempty"`
	Field    string   `json:"field,omitempty"`
	Message  string   `json:"message"`
}

func (d Diagnostic) String() string {
	parts := make([]string, 0, 4)
	parts = append(parts, string(d.Severity), string(d.Category))
	if d.Line > 0 {
		parts = append(parts, fmt.Sprintf("line %d", d.Line))
	}
	if d.Field != "" {
		parts = append(parts, d.Field)
	}
	return strings.Join(parts, ": ") + ": " + d.Message
}

// JSON renders the diagnostic as a single JSON line for the CLI's stderr
// stream.
func (d Diagnostic) JSON() string {
	encoded, err := json.Marshal(d)
	if err != nil {
		return `{"category":"io_error","severity":"fatal","message":"diagnostic encoding failed"}`
	}
	return string(encoded)
}

// Warning builds a warning-severity diagnostic.
func Warning(category Category, line int, field, format string, args ...any) Diagnostic {
	return Diagnostic{
		Category: category,
		Severity: SeverityWarning,
		Line:     line,
		Field:    field,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Error builds an error-severity diagnostic.
func Error(category Category, line int, field, format string, args ...any) Diagnostic {
	return Diagnostic{
		Category: category,
		Severity: SeverityError,
		Line:     line,
		Field:    field,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Fatal builds a fatal-severity diagnostic. Fatal diagnostics abort IR
// emission for the input that produced them.
func Fatal(category Category, line int, field, format string, args ...any) Diagnostic {
	return Diagnostic{
		Category: category,
		Severity: SeverityFatal,
		Line:     line,
		Field:    field,
		Message:  fmt.Sprintf(format, args...),
	}
}

// List accumulates diagnostics across pipeline phases.
type List struct {
	items []Diagnostic
}

// Add appends diagnostics to the list.
func (l *List) Add(items ...Diagnostic) {
	l.items = append(l.items, items...)
}

// Items returns the accumulated diagnostics in insertion order.
func (l *List) Items() []Diagnostic {
	return l.items
}

// Len reports the number of accumulated diagnostics.
func (l *List) Len() int {
	return len(l.items)
}

// HasFatal reports whether any diagnostic blocks IR emission.
func (l *List) HasFatal() bool {
	for _, d := range l.items {
		if d.Severity == SeverityFatal {
			return true
		}
	}
	return false
}

// HasErrors reports whether any diagnostic is error severity or worse.
func (l *List) HasErrors() bool {
	for _, d := range l.items {
		if d.Severity == SeverityError || d.Severity == SeverityFatal {
			return true
		}
	}
	return false
}

// Count returns how many diagnostics carry the given category.
func (l *List) Count(category Category) int {
	n := 0
	for _, d := range l.items {
		if d.Category == category {
			n++
		}
	}
	return n
}
