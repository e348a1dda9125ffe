package dsl

import (
	"strconv"
	"strings"

	"mmsl/internal/beats"
	"mmsl/internal/song"
)

// Category keywords recognized as the first cue token. When present, the
// second token becomes the cue name.
var cueCategories = map[string]struct{}{
	"sfx":        {},
	"instrument": {},
	"vocal":      {},
	"fx":         {},
	"tempo":      {},
}

// durationKeys lists parameter keys whose bare numeric values are read as
// seconds and normalized to beats. This is the documented convention for
// unitless durations, not a silent default.
var durationKeys = map[string]struct{}{
	"duration": {},
	"start":    {},
	"fade_in":  {},
	"fade_out": {},
}

// TokenizeCue parses the text between '<' and '>' into a Cue. bpm and
// beatsPerBar provide the tempo context for duration normalization; they
// come from the headers already parsed for this song.
//
// The body splits on whitespace, honoring double-quoted substrings. The
// first token is the cue name unless it is a recognized category keyword,
// in which case the second token is the name. Remaining tokens are
// key=value parameters (keys lower-cased) or bare positional arguments.
func TokenizeCue(body string, line int, bpm, beatsPerBar float64) *song.Cue {
	tokens := splitQuoted(body)
	cue := &song.Cue{Params: song.Params{}, Line: line}
	if len(tokens) == 0 {
		return cue
	}

	rest := tokens
	if _, ok := cueCategories[strings.ToLower(tokens[0])]; ok && len(tokens) > 1 && !strings.Contains(tokens[1], "=") {
		cue.Category = strings.ToLower(tokens[0])
		cue.Name = tokens[1]
		rest = tokens[2:]
	} else if _, ok := cueCategories[strings.ToLower(tokens[0])]; ok && len(tokens) == 1 {
		// A category keyword alone names the cue after the category.
		cue.Category = strings.ToLower(tokens[0])
		cue.Name = strings.ToLower(tokens[0])
		rest = nil
	} else {
		cue.Name = tokens[0]
		rest = tokens[1:]
	}

	for _, token := range rest {
		eq := strings.IndexByte(token, '=')
		if eq <= 0 {
			cue.Args = append(cue.Args, token)
			continue
		}
		key := strings.ToLower(strings.TrimSpace(token[:eq]))
		raw := token[eq+1:]
		if key == "" {
			cue.Args = append(cue.Args, token)
			continue
		}
		storeParam(cue.Params, key, raw, bpm, beatsPerBar)
	}
	return cue
}

// storeParam coerces raw and records it under key. Coercion order, first
// match wins: unit-suffixed duration literal (normalized to beats and
// stored under key+"_beats") > integer > float > boolean > raw string.
// Bare numbers under duration-semantic keys are seconds and are normalized
// to beats as well.
func storeParam(params song.Params, key, raw string, bpm, beatsPerBar float64) {
	unquoted := raw
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		unquoted = raw[1 : len(raw)-1]
		params[key] = song.StringValue(unquoted)
		return
	}

	if value, unit, ok := beats.ParseLiteral(unquoted); ok && unit != "" {
		params[key+"_beats"] = song.BeatsValue(beats.ToBeats(value, unit, bpm, beatsPerBar))
		return
	}

	if n, err := strconv.ParseInt(unquoted, 10, 64); err == nil {
		record := song.NumberValue(float64(n))
		if _, ok := durationKeys[key]; ok {
			params[key+"_beats"] = song.BeatsValue(beats.ToBeats(float64(n), "", bpm, beatsPerBar))
			return
		}
		params[key] = record
		return
	}

	if f, err := strconv.ParseFloat(unquoted, 64); err == nil {
		if _, ok := durationKeys[key]; ok {
			params[key+"_beats"] = song.BeatsValue(beats.ToBeats(f, "", bpm, beatsPerBar))
			return
		}
		params[key] = song.NumberValue(f)
		return
	}

	switch unquoted {
	case "true":
		params[key] = song.BoolValue(true)
		return
	case "false":
		params[key] = song.BoolValue(false)
		return
	}

	params[key] = song.StringValue(unquoted)
}

// splitQuoted splits on whitespace while keeping double-quoted substrings
// (which may contain spaces) as single tokens. Quotes around a whole token
// are stripped; quotes inside key=value tokens are preserved for the value
// coercer to handle.
func splitQuoted(body string) []string {
	var tokens []string
	var current strings.Builder
	inQuotes := false

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for _, r := range body {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			current.WriteRune(r)
		case (r == ' ' || r == '\t') && !inQuotes:
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()

	for i, token := range tokens {
		if !strings.Contains(token, "=") && len(token) >= 2 && token[0] == '"' && token[len(token)-1] == '"' {
			tokens[i] = token[1 : len(token)-1]
		}
	}
	return tokens
}
