package dsl_test

import (
	"strings"
	"testing"

	"mmsl/internal/diag"
	"mmsl/internal/dsl"
	"mmsl/internal/song"
)

const chorusInput = `@BPM 120
[Chorus]
(full)
We are the fire!
<SFX guitar_solo duration=8beats>`

func TestParseChorusScenario(t *testing.T) {
	sng, diags := dsl.Parse(chorusInput, dsl.Options{})
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if sng.BPM != 120 {
		t.Fatalf("bpm = %v, want 120", sng.BPM)
	}
	if len(sng.Sections) != 1 {
		t.Fatalf("expected one section, got %d", len(sng.Sections))
	}
	section := sng.Sections[0]
	if section.Label != "Chorus" {
		t.Fatalf("unexpected label %q", section.Label)
	}
	if len(section.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(section.Items))
	}
	if section.Items[0].Kind != song.ItemPerformance || section.Items[0].Text != "full" {
		t.Fatalf("unexpected first item %+v", section.Items[0])
	}
	if section.Items[1].Kind != song.ItemLyric || section.Items[1].Text != "We are the fire!" {
		t.Fatalf("unexpected second item %+v", section.Items[1])
	}
	cue := section.Items[2]
	if cue.Kind != song.ItemCue || cue.Cue == nil {
		t.Fatalf("unexpected third item %+v", cue)
	}
	if cue.Cue.Name != "guitar_solo" || cue.Cue.Category != "sfx" {
		t.Fatalf("unexpected cue %+v", cue.Cue)
	}
	if b, ok := cue.Cue.Params.Beats("duration_beats"); !ok || b != 8 {
		t.Fatalf("duration_beats = %v (ok=%v), want 8", b, ok)
	}
}

func TestParseImplicitLeadingSection(t *testing.T) {
	sng, _ := dsl.Parse("humming in the dark\n[Verse]\nfirst line", dsl.Options{})
	if len(sng.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sng.Sections))
	}
	if sng.Sections[0].Label != dsl.ImplicitSectionLabel {
		t.Fatalf("leading section label = %q, want %q", sng.Sections[0].Label, dsl.ImplicitSectionLabel)
	}
	if len(sng.Sections[0].Items) != 1 || sng.Sections[0].Items[0].Text != "humming in the dark" {
		t.Fatalf("unexpected leading items %+v", sng.Sections[0].Items)
	}
}

func TestParseHeaderAfterSectionIgnored(t *testing.T) {
	sng, diags := dsl.Parse("@BPM 100\n[Verse]\nline one\n@BPM 180", dsl.Options{})
	if sng.BPM != 100 {
		t.Fatalf("bpm = %v, want first-seen 100", sng.BPM)
	}
	found := false
	for _, d := range diags {
		if d.Category == diag.SyntaxWarning && strings.Contains(d.Message, "header after first section") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected late-header warning, got %v", diags)
	}
}

func TestParseDuplicateHeaderFirstSeenWins(t *testing.T) {
	sng, diags := dsl.Parse("@Title One\n@Title Two\n[A]\nx", dsl.Options{})
	if sng.Title != "One" {
		t.Fatalf("title = %q, want first-seen One", sng.Title)
	}
	if len(diags) != 1 || diags[0].Category != diag.SyntaxWarning {
		t.Fatalf("expected one duplicate-header warning, got %v", diags)
	}
}

func TestParseEmptySectionDropped(t *testing.T) {
	sng, _ := dsl.Parse("[Empty]\n[Verse]\nwords", dsl.Options{})
	if len(sng.Sections) != 1 {
		t.Fatalf("expected empty section to be dropped, got %d sections", len(sng.Sections))
	}
	if sng.Sections[0].Label != "Verse" {
		t.Fatalf("unexpected label %q", sng.Sections[0].Label)
	}
}

func TestParseDefaults(t *testing.T) {
	sng, _ := dsl.Parse("[A]\nline", dsl.Options{})
	if sng.BPM != song.DefaultBPM {
		t.Fatalf("bpm = %v, want default %v", sng.BPM, song.DefaultBPM)
	}
	if sng.BeatsPerBar != song.DefaultBeatsPerBar {
		t.Fatalf("beatsPerBar = %v, want default %v", sng.BeatsPerBar, song.DefaultBeatsPerBar)
	}
}

func TestParseOverridesWinOverHeaders(t *testing.T) {
	sng, _ := dsl.Parse("@BPM 90\n[A]\n<pad duration=2s>", dsl.Options{BPM: 120})
	if sng.BPM != 120 {
		t.Fatalf("bpm = %v, want override 120", sng.BPM)
	}
	cue := sng.Sections[0].Items[0].Cue
	if b, ok := cue.Params.Beats("duration_beats"); !ok || b != 4 {
		t.Fatalf("duration normalized under override: got %v (ok=%v), want 4", b, ok)
	}
}

func TestParseDefaultBPMYieldsToHeaders(t *testing.T) {
	sng, _ := dsl.Parse("[A]\nline", dsl.Options{DefaultBPM: 90, DefaultBeatsPerBar: 3})
	if sng.BPM != 90 || sng.BeatsPerBar != 3 {
		t.Fatalf("defaults not applied: bpm=%v bar=%v", sng.BPM, sng.BeatsPerBar)
	}

	sng, _ = dsl.Parse("@BPM 140\n[A]\nline", dsl.Options{DefaultBPM: 90})
	if sng.BPM != 140 {
		t.Fatalf("header should beat the caller default, got %v", sng.BPM)
	}
}

func TestParseTimeSigHeader(t *testing.T) {
	sng, _ := dsl.Parse("@TimeSig 3/4\n[A]\n<pad duration=1bar>", dsl.Options{})
	if sng.BeatsPerBar != 3 {
		t.Fatalf("beatsPerBar = %v, want 3", sng.BeatsPerBar)
	}
	cue := sng.Sections[0].Items[0].Cue
	if b, ok := cue.Params.Beats("duration_beats"); !ok || b != 3 {
		t.Fatalf("duration_beats = %v (ok=%v), want 3", b, ok)
	}
}

func TestParseMalformedLinesSurviveAsLyrics(t *testing.T) {
	sng, diags := dsl.Parse("[Verse]\n<broken cue\nreal lyric", dsl.Options{})
	if len(sng.Sections) != 1 {
		t.Fatalf("expected one section, got %d", len(sng.Sections))
	}
	items := sng.Sections[0].Items
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Kind != song.ItemLyric || items[0].Text != "<broken cue" {
		t.Fatalf("degraded line lost: %+v", items[0])
	}
	warned := false
	for _, d := range diags {
		if d.Category == diag.SyntaxWarning && d.Line == 2 {
			warned = true
		}
	}
	if !warned {
		t.Fatalf("expected a syntax warning for line 2, got %v", diags)
	}
}

func TestParseProgressCallback(t *testing.T) {
	var calls []int
	total := 0
	dsl.Parse("[A]\none\ntwo", dsl.Options{Progress: func(done, lines int) {
		calls = append(calls, done)
		total = lines
	}})
	if len(calls) != 3 || calls[0] != 1 || calls[2] != 3 {
		t.Fatalf("unexpected progress calls %v", calls)
	}
	if total != 3 {
		t.Fatalf("unexpected total %d", total)
	}
}

func TestParseIdempotent(t *testing.T) {
	first, _ := dsl.Parse(chorusInput, dsl.Options{})
	second, _ := dsl.Parse(chorusInput, dsl.Options{})
	if first.Title != second.Title || first.BPM != second.BPM || len(first.Sections) != len(second.Sections) {
		t.Fatalf("parses diverged: %+v vs %+v", first, second)
	}
}
