package tempo_test

import (
	"errors"
	"math"
	"testing"

	"mmsl/internal/song"
	"mmsl/internal/tempo"
)

func TestSecondsAtSingleSegment(t *testing.T) {
	m, err := tempo.New(120)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cases := []struct {
		beat float64
		want float64
	}{
		{beat: 0, want: 0},
		{beat: 1, want: 0.5},
		{beat: 8, want: 4},
		{beat: 120, want: 60},
		{beat: -3, want: 0},
	}
	for _, tc := range cases {
		if got := m.SecondsAt(tc.beat); got != tc.want {
			t.Fatalf("SecondsAt(%v) = %v, want %v", tc.beat, got, tc.want)
		}
	}
}

func TestSecondsAtPiecewise(t *testing.T) {
	m, err := tempo.FromSegments([]song.TempoSegment{
		{StartBeat: 0, BPM: 120},
		{StartBeat: 16, BPM: 90},
	})
	if err != nil {
		t.Fatalf("FromSegments: %v", err)
	}
	// 16 beats at 120 bpm = 8s, then 4 beats at 90 bpm = 2.666...s.
	want := 8 + 4*60.0/90.0
	if got := m.SecondsAt(20); math.Abs(got-want) > 1e-6 {
		t.Fatalf("SecondsAt(20) = %v, want %v", got, want)
	}
	if got := m.SecondsAt(16); math.Abs(got-8) > 1e-9 {
		t.Fatalf("SecondsAt(16) = %v, want 8", got)
	}
	if got := m.SecondsAt(8); math.Abs(got-4) > 1e-9 {
		t.Fatalf("SecondsAt(8) = %v, want 4", got)
	}
}

func TestFromSegmentsRejectsConflicts(t *testing.T) {
	cases := []struct {
		name     string
		segments []song.TempoSegment
	}{
		{name: "empty", segments: nil},
		{name: "missing zero start", segments: []song.TempoSegment{{StartBeat: 4, BPM: 120}}},
		{name: "out of order", segments: []song.TempoSegment{{StartBeat: 0, BPM: 120}, {StartBeat: 8, BPM: 90}, {StartBeat: 4, BPM: 100}}},
		{name: "duplicate start", segments: []song.TempoSegment{{StartBeat: 0, BPM: 120}, {StartBeat: 0, BPM: 90}}},
		{name: "zero bpm", segments: []song.TempoSegment{{StartBeat: 0, BPM: 0}}},
		{name: "negative bpm", segments: []song.TempoSegment{{StartBeat: 0, BPM: -10}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tempo.FromSegments(tc.segments); !errors.Is(err, tempo.ErrConflict) {
				t.Fatalf("expected ErrConflict, got %v", err)
			}
		})
	}
}

func TestAppend(t *testing.T) {
	m, err := tempo.New(120)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := m.Append(song.TempoSegment{StartBeat: 16, BPM: 90}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := m.Append(song.TempoSegment{StartBeat: 8, BPM: 100}); !errors.Is(err, tempo.ErrConflict) {
		t.Fatalf("expected ErrConflict for backwards change, got %v", err)
	}
	// A change on the last segment's start replaces its tempo.
	if err := m.Append(song.TempoSegment{StartBeat: 16, BPM: 60}); err != nil {
		t.Fatalf("Append replace: %v", err)
	}
	segments := m.Segments()
	if len(segments) != 2 || segments[1].BPM != 60 {
		t.Fatalf("unexpected segments %v", segments)
	}
	want := 8 + 4*60.0/60.0
	if got := m.SecondsAt(20); math.Abs(got-want) > 1e-9 {
		t.Fatalf("SecondsAt(20) after replace = %v, want %v", got, want)
	}
}

func TestCacheInvalidatedAfterMutation(t *testing.T) {
	m, err := tempo.New(120)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	before := m.SecondsAt(20)
	if before != 10 {
		t.Fatalf("SecondsAt(20) = %v, want 10", before)
	}
	if err := m.Append(song.TempoSegment{StartBeat: 16, BPM: 90}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	after := m.SecondsAt(20)
	want := 8 + 4*60.0/90.0
	if math.Abs(after-want) > 1e-6 {
		t.Fatalf("SecondsAt(20) after append = %v, want %v", after, want)
	}
}

func TestBeatToFrame(t *testing.T) {
	m, err := tempo.New(120)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// Beat 8 at 120 bpm is 4 seconds; 24 fps puts it on frame 96.
	if got := m.BeatToFrame(8, 24); got != 96 {
		t.Fatalf("BeatToFrame(8, 24) = %d, want 96", got)
	}
	if got := m.BeatToFrame(0, 24); got != 0 {
		t.Fatalf("BeatToFrame(0, 24) = %d, want 0", got)
	}
}
