// Package tempo maps beat positions to absolute seconds across tempo
// changes.
//
// A Map holds the ordered tempo segments for one song. The cumulative
// seconds offset for each segment start is rebuilt lazily after the segment
// list mutates and cached otherwise, so repeated queries cost one binary
// search. Maps are scoped per song instance and never shared across
// concurrent parses.
package tempo

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"mmsl/internal/song"
)

// ErrConflict tags overlapping or out-of-order segment errors. Callers
// surface it as a fatal TempoMapConflict diagnostic.
var ErrConflict = errors.New("tempo map conflict")

// Map is a piecewise-constant tempo function over the beat timeline.
type Map struct {
	segments []song.TempoSegment
	// offsets[i] is the absolute time in seconds at segments[i].StartBeat.
	offsets []float64
	dirty   bool
}

// New returns a single-segment map: the whole timeline at bpm.
func New(bpm float64) (*Map, error) {
	if bpm <= 0 {
		return nil, fmt.Errorf("%w: bpm %g must be positive", ErrConflict, bpm)
	}
	return &Map{
		segments: []song.TempoSegment{{StartBeat: 0, BPM: bpm}},
		dirty:    true,
	}, nil
}

// FromSegments builds a map from an explicit segment list. Segments must be
// sorted by start beat, strictly increasing, begin at beat zero, and carry
// positive tempos.
func FromSegments(segments []song.TempoSegment) (*Map, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: no segments", ErrConflict)
	}
	if segments[0].StartBeat != 0 {
		return nil, fmt.Errorf("%w: first segment starts at beat %g, want 0", ErrConflict, segments[0].StartBeat)
	}
	for i, seg := range segments {
		if seg.BPM <= 0 {
			return nil, fmt.Errorf("%w: segment %d bpm %g must be positive", ErrConflict, i, seg.BPM)
		}
		if i > 0 && seg.StartBeat <= segments[i-1].StartBeat {
			return nil, fmt.Errorf("%w: segment %d start %g does not follow %g",
				ErrConflict, i, seg.StartBeat, segments[i-1].StartBeat)
		}
	}
	copied := make([]song.TempoSegment, len(segments))
	copy(copied, segments)
	return &Map{segments: copied, dirty: true}, nil
}

// Append adds a tempo change after all existing segments. A change landing
// exactly on the last segment's start replaces that segment's tempo;
// anything earlier is a conflict.
func (m *Map) Append(seg song.TempoSegment) error {
	if seg.BPM <= 0 {
		return fmt.Errorf("%w: bpm %g must be positive", ErrConflict, seg.BPM)
	}
	last := m.segments[len(m.segments)-1]
	switch {
	case seg.StartBeat == last.StartBeat:
		m.segments[len(m.segments)-1].BPM = seg.BPM
	case seg.StartBeat > last.StartBeat:
		m.segments = append(m.segments, seg)
	default:
		return fmt.Errorf("%w: tempo change at beat %g behind segment starting at %g",
			ErrConflict, seg.StartBeat, last.StartBeat)
	}
	m.dirty = true
	return nil
}

// Segments returns a copy of the segment list in timeline order.
func (m *Map) Segments() []song.TempoSegment {
	copied := make([]song.TempoSegment, len(m.segments))
	copy(copied, m.segments)
	return copied
}

// rebuild recomputes the cumulative offset table. Runs O(n) and only after
// the segment list changed.
func (m *Map) rebuild() {
	if !m.dirty {
		return
	}
	m.offsets = make([]float64, len(m.segments))
	for i := 1; i < len(m.segments); i++ {
		span := m.segments[i].StartBeat - m.segments[i-1].StartBeat
		m.offsets[i] = m.offsets[i-1] + span*60/m.segments[i-1].BPM
	}
	m.dirty = false
}

// SecondsAt converts a beat position to absolute seconds. Negative beats
// clamp to zero.
func (m *Map) SecondsAt(beat float64) float64 {
	if beat <= 0 {
		return 0
	}
	m.rebuild()

	// Index of the segment containing beat: the last segment whose start is
	// <= beat.
	idx := sort.Search(len(m.segments), func(i int) bool {
		return m.segments[i].StartBeat > beat
	}) - 1
	if idx < 0 {
		idx = 0
	}

	seg := m.segments[idx]
	return m.offsets[idx] + (beat-seg.StartBeat)*60/seg.BPM
}

// BeatToFrame converts a beat position to a video frame index at the given
// frame rate, for storyboard consumers.
func (m *Map) BeatToFrame(beat, fps float64) int {
	return int(math.Round(m.SecondsAt(beat) * fps))
}
