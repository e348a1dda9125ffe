// Package dsl parses MMSL markup into the song tree.
//
// Parsing is line oriented and runs in three layers: the classifier decides
// what each raw line is, the grammar state machine assembles classified
// lines into Song/Section/Item structure, and the cue tokenizer breaks cue
// bodies into name, category, and typed parameters.
//
// The package never fails on malformed markup. Anything that cannot be read
// as its apparent kind degrades to a lyric line and records a warning, so a
// partially broken input still yields as much usable structure as possible.
// All state lives in the caller-owned parse context; concurrent parses of
// independent inputs need no coordination.
package dsl
