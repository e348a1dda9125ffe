// Package schedule flattens a song tree into a time-ordered event list.
//
// The scheduler walks sections and items in source order with a running
// beat cursor, resolves tempo cues into tempo-map segments, and stamps
// every event with both its beat position and absolute seconds. Event lists
// are derived values: callers regenerate them whenever they need a fresh
// time mapping.
package schedule

import (
	"sort"
	"strconv"

	"mmsl/internal/diag"
	"mmsl/internal/song"
	"mmsl/internal/tempo"
)

// Plan is the scheduler output: the flattened events and the tempo map they
// were resolved against.
type Plan struct {
	Events []song.Event
	Tempo  *tempo.Map
}

// pending is an event before its seconds are known. Seconds resolve in a
// second pass so tempo cues later in the document still affect earlier
// explicitly-positioned events.
type pending struct {
	beat    float64
	kind    song.EventType
	section string
	payload map[string]any
	seq     int
}

// Events schedules the song. A nil Plan means a fatal tempo conflict; the
// diagnostics carry the details either way.
func Events(sng *song.Song) (*Plan, []diag.Diagnostic) {
	var diags diag.List

	tm, err := tempo.New(sng.BPM)
	if err != nil {
		diags.Add(diag.Fatal(diag.TempoMapConflict, 0, "bpm", "unreadable tempo map: %v", err))
		return nil, diags.Items()
	}

	walker := &walker{tm: tm, diags: &diags}
	for _, section := range sng.Sections {
		walker.section = section.Label
		for _, item := range section.Items {
			walker.consume(item)
		}
	}
	if diags.HasFatal() {
		return nil, diags.Items()
	}

	events := make([]song.Event, 0, len(walker.pending))
	for _, p := range walker.pending {
		events = append(events, song.Event{
			TimeBeats:   p.beat,
			TimeSeconds: tm.SecondsAt(p.beat),
			Type:        p.kind,
			Section:     p.section,
			Payload:     p.payload,
			Seq:         p.seq,
		})
	}

	// Stable ordering: beat position first, source order as the tie-break.
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].TimeBeats != events[j].TimeBeats {
			return events[i].TimeBeats < events[j].TimeBeats
		}
		return events[i].Seq < events[j].Seq
	})

	return &Plan{Events: events, Tempo: tm}, diags.Items()
}

type walker struct {
	tm      *tempo.Map
	diags   *diag.List
	pending []pending
	section string
	cursor  float64
	seq     int
}

func (w *walker) consume(item song.Item) {
	switch item.Kind {
	case song.ItemPerformance, song.ItemLyric:
		// Text items fire at the cursor and never advance it.
		kind := song.EventPerformance
		if item.Kind == song.ItemLyric {
			kind = song.EventLyric
		}
		w.add(w.cursor, kind, map[string]any{"text": item.Text})
	case song.ItemCue:
		w.consumeCue(item.Cue)
	}
}

func (w *walker) consumeCue(cue *song.Cue) {
	if isTempoCue(cue) {
		w.consumeTempoCue(cue)
		return
	}

	beat := w.cursor
	explicit := false
	if start, ok := cue.Params.Beats("start_beats"); ok {
		beat = start
		explicit = true
	}
	if beat < 0 {
		w.diags.Add(diag.Error(diag.RangeViolation, cue.Line, "start",
			"cue %q scheduled at negative beat %g, clamped to 0", cue.Name, beat))
		beat = 0
	}

	duration, _ := cue.Params.Beats("duration_beats")
	if duration < 0 {
		duration = 0
	}
	repeat := 1
	if n, ok := cue.Params.Number("repeat"); ok && n >= 1 {
		repeat = int(n)
	}

	payload := cuePayload(cue)
	for i := 0; i < repeat; i++ {
		w.add(beat+float64(i)*duration, song.EventCue, payload)
	}

	// The cursor advances past the cue only when it declares a duration.
	// An explicitly positioned cue re-anchors the cursor at its own end;
	// without a duration it is a pure overlay and the cursor stays put.
	if duration > 0 {
		w.cursor = beat + float64(repeat)*duration
	} else if explicit {
		w.cursor = beat
	}
}

func (w *walker) consumeTempoCue(cue *song.Cue) {
	bpm, ok := tempoCueBPM(cue)
	if !ok {
		w.diags.Add(diag.Error(diag.SchemaViolation, cue.Line, "bpm",
			"tempo cue carries no readable bpm"))
		return
	}
	beat := w.cursor
	if start, ok := cue.Params.Beats("start_beats"); ok {
		beat = start
	}
	// A tempo change behind the cursor would retroactively retime material
	// that has already been sequenced; that is a conflict, not an edit.
	if beat < w.cursor {
		w.diags.Add(diag.Fatal(diag.TempoMapConflict, cue.Line, "start",
			"tempo change at beat %g behind cursor at beat %g", beat, w.cursor))
		return
	}
	if err := w.tm.Append(song.TempoSegment{StartBeat: beat, BPM: bpm}); err != nil {
		w.diags.Add(diag.Fatal(diag.TempoMapConflict, cue.Line, "bpm", "%v", err))
	}
}

func (w *walker) add(beat float64, kind song.EventType, payload map[string]any) {
	w.pending = append(w.pending, pending{
		beat:    beat,
		kind:    kind,
		section: w.section,
		payload: payload,
		seq:     w.seq,
	})
	w.seq++
}

func isTempoCue(cue *song.Cue) bool {
	return cue.Category == "tempo" || cue.Name == "tempo"
}

// tempoCueBPM reads the new tempo from a tempo cue, accepting
// <tempo bpm=90>, <tempo 90>, and the bare <tempo 90> form where the
// tokenizer took "90" for the cue name.
func tempoCueBPM(cue *song.Cue) (float64, bool) {
	if n, ok := cue.Params.Number("bpm"); ok && n > 0 {
		return n, true
	}
	for _, arg := range cue.Args {
		if n, err := strconv.ParseFloat(arg, 64); err == nil && n > 0 {
			return n, true
		}
	}
	if cue.Category == "tempo" {
		if n, err := strconv.ParseFloat(cue.Name, 64); err == nil && n > 0 {
			return n, true
		}
	}
	return 0, false
}

func cuePayload(cue *song.Cue) map[string]any {
	payload := map[string]any{"name": cue.Name}
	if cue.Category != "" {
		payload["category"] = cue.Category
	}
	if len(cue.Params) > 0 {
		params := make(map[string]any, len(cue.Params))
		for key, value := range cue.Params {
			switch value.Kind {
			case song.ValueNumber, song.ValueBeats:
				params[key] = value.Num
			case song.ValueBool:
				params[key] = value.Bool
			default:
				params[key] = value.Str
			}
		}
		payload["params"] = params
	}
	if len(cue.Args) > 0 {
		payload["args"] = cue.Args
	}
	return payload
}
