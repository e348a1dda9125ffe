package dsl

import (
	"strconv"
	"strings"

	"mmsl/internal/diag"
	"mmsl/internal/song"
)

// ImplicitSectionLabel names the section that collects content appearing
// before the first [Label] marker. Treating leading content as an implicit
// intro is a documented convention; the source material handled it both
// ways.
const ImplicitSectionLabel = "Intro"

// Options controls one parse invocation. The zero value parses with
// repository defaults and no progress reporting.
type Options struct {
	// BPM overrides the @BPM header when > 0.
	BPM float64
	// BeatsPerBar overrides the @BeatsPerBar header when > 0.
	BeatsPerBar float64
	// DefaultBPM and DefaultBeatsPerBar replace the built-in fallbacks
	// when > 0. Unlike the overrides above, headers still win over them.
	DefaultBPM         float64
	DefaultBeatsPerBar float64
	// Progress, when set, is called once per input line with the number of
	// lines consumed so far and the total line count.
	Progress func(done, total int)
}

// parserState tracks where the grammar state machine is in the document.
type parserState int

const (
	stateBeforeSection parserState = iota
	stateInSection
)

// parseContext holds all mutable parse state. Each invocation owns its
// own context, so concurrent parses never share anything.
type parseContext struct {
	sng   *song.Song
	diags *diag.List

	state   parserState
	current song.Section
	// seenHeaders tracks first-seen header keys; later duplicates warn.
	seenHeaders map[string]int
	// bpmLocked / barLocked are set when caller overrides win over headers.
	bpmLocked bool
	barLocked bool
}

// Parse turns raw MMSL text into an immutable song tree plus diagnostics.
// It never returns an error: malformed markup degrades to lyric lines and
// the diagnostics record everything noteworthy. Structural validity is the
// validator's job.
func Parse(input string, opts Options) (*song.Song, []diag.Diagnostic) {
	ctx := &parseContext{
		sng: &song.Song{
			BPM:         song.DefaultBPM,
			BeatsPerBar: song.DefaultBeatsPerBar,
			Extra:       map[string]string{},
		},
		diags:       &diag.List{},
		state:       stateBeforeSection,
		seenHeaders: map[string]int{},
	}

	if opts.DefaultBPM > 0 {
		ctx.sng.BPM = opts.DefaultBPM
	}
	if opts.DefaultBeatsPerBar > 0 {
		ctx.sng.BeatsPerBar = opts.DefaultBeatsPerBar
	}

	// Caller overrides are applied up front so every duration literal is
	// normalized under the effective tempo; headers appear before any cue,
	// so a header that loses to an override never influenced a conversion.
	if opts.BPM > 0 {
		ctx.sng.BPM = opts.BPM
		ctx.bpmLocked = true
	}
	if opts.BeatsPerBar > 0 {
		ctx.sng.BeatsPerBar = opts.BeatsPerBar
		ctx.barLocked = true
	}

	lines := strings.Split(input, "\n")
	for i, raw := range lines {
		ctx.consume(raw, i+1)
		if opts.Progress != nil {
			opts.Progress(i+1, len(lines))
		}
	}
	ctx.flushSection()

	return ctx.sng, ctx.diags.Items()
}

func (ctx *parseContext) consume(raw string, line int) {
	classified := Classify(raw, line)
	if classified.Warning != nil {
		ctx.diags.Add(*classified.Warning)
	}

	switch classified.Kind {
	case LineBlank:
		return
	case LineHeader:
		ctx.consumeHeader(classified)
	case LineSection:
		ctx.flushSection()
		ctx.current = song.Section{Label: classified.Label, Line: line}
		ctx.state = stateInSection
	case LineInline:
		ctx.appendItem(song.Item{Kind: song.ItemPerformance, Line: line, Text: classified.Performance})
		ctx.appendItem(song.Item{Kind: song.ItemLyric, Line: line, Text: classified.Lyric})
	case LinePerformance:
		ctx.appendItem(song.Item{Kind: song.ItemPerformance, Line: line, Text: classified.Performance})
	case LineCue:
		cue := TokenizeCue(classified.CueBody, line, ctx.sng.BPM, ctx.sng.BeatsPerBar)
		ctx.appendItem(song.Item{Kind: song.ItemCue, Line: line, Cue: cue})
	case LineLyric:
		ctx.appendItem(song.Item{Kind: song.ItemLyric, Line: line, Text: classified.Lyric})
	}
}

// consumeHeader applies an @Key header. Headers are only accepted before
// the first section marker; later ones are recorded and ignored, and the
// first-seen value always wins.
func (ctx *parseContext) consumeHeader(classified Classified) {
	if ctx.state != stateBeforeSection {
		ctx.diags.Add(diag.Warning(diag.SyntaxWarning, classified.Line, classified.Key,
			"header after first section ignored"))
		return
	}
	if firstLine, seen := ctx.seenHeaders[classified.Key]; seen {
		ctx.diags.Add(diag.Warning(diag.SyntaxWarning, classified.Line, classified.Key,
			"duplicate header ignored, first value from line %d wins", firstLine))
		return
	}
	ctx.seenHeaders[classified.Key] = classified.Line

	switch classified.Key {
	case "version":
		ctx.sng.Version = classified.Value
	case "title":
		ctx.sng.Title = classified.Value
	case "key":
		ctx.sng.Key = classified.Value
	case "bpm":
		if ctx.bpmLocked {
			return
		}
		bpm, err := strconv.ParseFloat(classified.Value, 64)
		if err != nil || bpm <= 0 {
			ctx.diags.Add(diag.Warning(diag.SyntaxWarning, classified.Line, "bpm",
				"unreadable bpm %q, keeping %g", classified.Value, ctx.sng.BPM))
			return
		}
		ctx.sng.BPM = bpm
	case "beatsperbar", "timesig":
		if ctx.barLocked {
			return
		}
		// @TimeSig accepts "3/4" style values; only the numerator matters
		// for beat math.
		value := classified.Value
		if idx := strings.IndexByte(value, '/'); idx > 0 {
			value = value[:idx]
		}
		beatsPerBar, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || beatsPerBar <= 0 {
			ctx.diags.Add(diag.Warning(diag.SyntaxWarning, classified.Line, "beats_per_bar",
				"unreadable beats per bar %q, keeping %g", classified.Value, ctx.sng.BeatsPerBar))
			return
		}
		ctx.sng.BeatsPerBar = beatsPerBar
	default:
		ctx.diags.Add(diag.Warning(diag.SyntaxWarning, classified.Line, classified.Key,
			"unknown header %q kept as metadata", classified.Key))
		ctx.sng.Extra[classified.Key] = classified.Value
	}
}

// appendItem adds an item to the current section, opening the implicit
// leading section when content appears before any marker.
func (ctx *parseContext) appendItem(item song.Item) {
	if ctx.state == stateBeforeSection {
		ctx.current = song.Section{Label: ImplicitSectionLabel, Line: item.Line}
		ctx.state = stateInSection
	}
	ctx.current.Items = append(ctx.current.Items, item)
}

// flushSection pushes the open section onto the song if it holds at least
// one item. Empty sections (label followed immediately by another label)
// are dropped silently, matching the state machine rule.
func (ctx *parseContext) flushSection() {
	if ctx.state == stateInSection && len(ctx.current.Items) > 0 {
		ctx.sng.Sections = append(ctx.sng.Sections, ctx.current)
	}
	ctx.current = song.Section{}
}
