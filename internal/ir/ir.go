// Package ir emits the canonical intermediate representation of a parsed
// song.
//
// The IR is the stable contract between the parser and every downstream
// consumer (audio rendering, DAW export, video storyboarding). Field order
// is fixed, map-valued params marshal with sorted keys, and section ids
// follow a documented dedupe rule, so identical input always produces
// byte-identical output.
package ir

import (
	"encoding/json"

	"mmsl/internal/song"
)

// Version is the IR schema version stamped into documents whose source had
// no @Version header.
const Version = "1.0"

// Document is the canonical IR root.
type Document struct {
	MMSLVersion string    `json:"mmsl_version"`
	Title       string    `json:"title"`
	BPM         float64   `json:"bpm"`
	BeatsPerBar float64   `json:"beats_per_bar"`
	Key         string    `json:"key,omitempty"`
	Sections    []Section `json:"sections"`
}

// Section is one IR section with its derived id.
type Section struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Items []Item `json:"items"`
}

// Item is the serialized union variant. Type discriminates which of the
// remaining fields are present.
type Item struct {
	Type     string         `json:"type"`
	Line     int            `json:"line"`
	Text     string         `json:"text,omitempty"`
	Name     string         `json:"name,omitempty"`
	Category string         `json:"category,omitempty"`
	Params   map[string]any `json:"params,omitempty"`
	Args     []string       `json:"args,omitempty"`
}

// Build converts an immutable song tree into its IR document.
func Build(sng *song.Song) *Document {
	doc := &Document{
		MMSLVersion: sng.Version,
		Title:       sng.Title,
		BPM:         sng.BPM,
		BeatsPerBar: sng.BeatsPerBar,
		Key:         sng.Key,
		Sections:    make([]Section, 0, len(sng.Sections)),
	}
	if doc.MMSLVersion == "" {
		doc.MMSLVersion = Version
	}

	ids := newSlugger()
	for _, section := range sng.Sections {
		out := Section{
			ID:    ids.id(section.Label),
			Label: section.Label,
			Items: make([]Item, 0, len(section.Items)),
		}
		for _, item := range section.Items {
			out.Items = append(out.Items, buildItem(item))
		}
		doc.Sections = append(doc.Sections, out)
	}
	return doc
}

func buildItem(item song.Item) Item {
	switch item.Kind {
	case song.ItemCue:
		return Item{
			Type:     string(song.ItemCue),
			Line:     item.Line,
			Name:     item.Cue.Name,
			Category: item.Cue.Category,
			Params:   paramsToJSON(item.Cue.Params),
			Args:     item.Cue.Args,
		}
	default:
		return Item{
			Type: string(item.Kind),
			Line: item.Line,
			Text: item.Text,
		}
	}
}

// paramsToJSON flattens typed values into plain JSON scalars. Map keys
// marshal sorted, which keeps param order stable.
func paramsToJSON(params song.Params) map[string]any {
	if len(params) == 0 {
		return nil
	}
	out := make(map[string]any, len(params))
	for key, value := range params {
		switch value.Kind {
		case song.ValueNumber, song.ValueBeats:
			out[key] = value.Num
		case song.ValueBool:
			out[key] = value.Bool
		default:
			out[key] = value.Str
		}
	}
	return out
}

// Marshal renders the document as indented canonical JSON with a trailing
// newline, ready for stdout or a file.
func (d *Document) Marshal() ([]byte, error) {
	encoded, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(encoded, '\n'), nil
}
