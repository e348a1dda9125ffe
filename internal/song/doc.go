// Package song defines the parsed representation of an MMSL document.
//
// A Song owns an ordered list of Sections, each owning an ordered list of
// Items. Items are a tagged union over performance directions, lyric lines,
// and cues; the variant is discriminated by Kind and dispatched by switch.
// The tree is built once by the parser and never mutated afterward, which is
// what makes parallel parsing and cached tempo math safe.
//
// Events are the one exception to immutability by construction: they are
// derived values, recomputed from the tree whenever the caller needs a fresh
// time mapping, and never edited in place.
package song
