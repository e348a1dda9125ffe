// Package beats converts duration literals into tempo-relative beat counts.
//
// All conversions are pure functions of their inputs: identical arguments
// always produce bit-identical results, which the IR idempotence guarantee
// depends on.
package beats

import (
	"regexp"
	"strconv"
)

// Units accepted in duration literals. A literal with no unit is read as
// seconds; that convention is part of the documented cue grammar, not a
// silent fallback.
const (
	UnitMilliseconds = "ms"
	UnitSeconds      = "s"
	UnitBeats        = "beats"
	UnitBeatsShort   = "b"
	UnitBar          = "bar"
	UnitBars         = "bars"
)

var literalPattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)(ms|s|beats|bars|bar|b)?$`)

// ParseLiteral splits a duration literal such as "8beats", "500ms", "1.5s",
// or "2" into its numeric value and unit. The unit is empty for bare
// numbers. ok is false when the text is not a duration literal at all.
func ParseLiteral(text string) (value float64, unit string, ok bool) {
	match := literalPattern.FindStringSubmatch(text)
	if match == nil {
		return 0, "", false
	}
	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, "", false
	}
	return value, match[2], true
}

// ToBeats converts value in the given unit to beats at the given tempo.
// The empty unit means seconds.
//
//	ms        -> (value/1000) * bpm / 60
//	s or ""   -> value * bpm / 60
//	beats, b  -> value
//	bar, bars -> value * beatsPerBar
//
// Unknown units are treated as seconds so that a recognized literal can
// never fail to convert; the tokenizer only passes units matched by
// ParseLiteral.
func ToBeats(value float64, unit string, bpm, beatsPerBar float64) float64 {
	switch unit {
	case UnitMilliseconds:
		return (value / 1000) * bpm / 60
	case UnitBeats, UnitBeatsShort:
		return value
	case UnitBar, UnitBars:
		return value * beatsPerBar
	default:
		return value * bpm / 60
	}
}

// LiteralToBeats parses text as a duration literal and converts it in one
// step. ok is false only when text is not a duration literal.
func LiteralToBeats(text string, bpm, beatsPerBar float64) (float64, bool) {
	value, unit, ok := ParseLiteral(text)
	if !ok {
		return 0, false
	}
	return ToBeats(value, unit, bpm, beatsPerBar), true
}
