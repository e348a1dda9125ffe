package song

import "strings"

// DefaultBPM applies when no @BPM header is present.
const DefaultBPM = 120.0

// DefaultBeatsPerBar applies when no @BeatsPerBar header is present.
const DefaultBeatsPerBar = 4.0

// ItemKind discriminates the Item union.
type ItemKind string

const (
	ItemPerformance ItemKind = "performance"
	ItemLyric       ItemKind = "lyric"
	ItemCue         ItemKind = "cue"
)

// Song is the root of one parsed MMSL document.
type Song struct {
	Version     string
	Title       string
	BPM         float64
	BeatsPerBar float64
	Key         string
	Sections    []Section

	// Extra holds unrecognized @headers verbatim, first-seen wins.
	Extra map[string]string
}

// Section groups consecutive items under one [Label] marker. Order of both
// sections and items follows the source text.
type Section struct {
	Label string
	Items []Item
	Line  int
}

// Item is a tagged union. Exactly one variant's fields are populated,
// selected by Kind.
type Item struct {
	Kind ItemKind
	Line int

	// ItemPerformance and ItemLyric.
	Text string

	// ItemCue.
	Cue *Cue
}

// Cue is a structured production trigger embedded in the DSL.
type Cue struct {
	Name     string
	Category string
	Params   Params
	// Args collects bare positional tokens that were not key=value pairs.
	Args []string
	Line int
}

// ValueKind discriminates cue parameter values.
type ValueKind int

const (
	ValueString ValueKind = iota
	ValueNumber
	ValueBool
	// ValueBeats marks a number that came from a duration literal and has
	// already been normalized to beats.
	ValueBeats
)

// Value is a typed cue parameter value.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	Bool bool
}

// Params maps lower-cased parameter keys to typed values.
type Params map[string]Value

// StringValue builds a string-typed Value.
func StringValue(s string) Value { return Value{Kind: ValueString, Str: s} }

// NumberValue builds a number-typed Value.
func NumberValue(n float64) Value { return Value{Kind: ValueNumber, Num: n} }

// BoolValue builds a bool-typed Value.
func BoolValue(b bool) Value { return Value{Kind: ValueBool, Bool: b} }

// BeatsValue builds a beats-typed Value.
func BeatsValue(n float64) Value { return Value{Kind: ValueBeats, Num: n} }

// Number returns the numeric value for number- and beats-typed params.
func (v Value) Number() (float64, bool) {
	if v.Kind == ValueNumber || v.Kind == ValueBeats {
		return v.Num, true
	}
	return 0, false
}

// Beats returns the value of a beats-typed parameter.
func (p Params) Beats(key string) (float64, bool) {
	v, ok := p[key]
	if !ok || v.Kind != ValueBeats {
		return 0, false
	}
	return v.Num, true
}

// Number returns a numeric parameter regardless of whether it was written as
// a bare number or a duration literal.
func (p Params) Number(key string) (float64, bool) {
	v, ok := p[key]
	if !ok {
		return 0, false
	}
	return v.Number()
}

// String returns a string-typed parameter.
func (p Params) String(key string) (string, bool) {
	v, ok := p[key]
	if !ok || v.Kind != ValueString {
		return "", false
	}
	return v.Str, true
}

// KnownParamKeys is the fixed enumeration of recognized cue parameter keys.
// Keys outside this set must carry the vendor-extension prefix. bpm is only
// meaningful on tempo cues.
var KnownParamKeys = []string{
	"bpm",
	"duration",
	"repeat",
	"intensity",
	"volume",
	"pan",
	"start",
	"pitch",
	"fade_in",
	"fade_out",
	"track",
}

// ExtensionPrefix marks vendor-extension parameter keys that bypass the
// fixed key enumeration.
const ExtensionPrefix = "x_"

var knownParamSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(KnownParamKeys))
	for _, key := range KnownParamKeys {
		set[key] = struct{}{}
	}
	return set
}()

// RecognizedParamKey reports whether key is in the fixed enumeration or is a
// valid extension key.
func RecognizedParamKey(key string) bool {
	if _, ok := knownParamSet[key]; ok {
		return true
	}
	return strings.HasPrefix(key, ExtensionPrefix) && len(key) > len(ExtensionPrefix)
}

// TempoSegment describes one constant-tempo span starting at StartBeat and
// running until the next segment (or forever for the last one).
type TempoSegment struct {
	StartBeat float64
	BPM       float64
}

// EventType classifies scheduled events for downstream consumers.
type EventType string

const (
	EventPerformance EventType = "performance"
	EventLyric       EventType = "lyric"
	EventCue         EventType = "cue"
)

// Event is one flattened, time-resolved instruction. Events are derived from
// the Song tree and recomputed whenever the tempo map changes.
type Event struct {
	TimeBeats   float64
	TimeSeconds float64
	Type        EventType
	Section     string
	// Payload carries the variant data: text for performance/lyric events,
	// cue name/category/params for cue events.
	Payload map[string]any
	// Seq is the source-order index used for stable tie-breaking when two
	// events share a beat.
	Seq int
}
