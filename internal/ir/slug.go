package ir

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes accented characters and drops their combining
// marks, so "Précho" slugs the same as "Precho".
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slug derives a section id from its label: lowercase, diacritics stripped,
// spaces collapsed to single hyphens, everything outside [a-z0-9-] dropped.
func Slug(label string) string {
	folded, _, err := transform.String(stripMarks, label)
	if err != nil {
		folded = label
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(folded))
	lastHyphen := true // suppress leading hyphens
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case r == ' ' || r == '-' || r == '_' || r == '\t':
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		return "section"
	}
	return slug
}

// slugger hands out unique section ids within one song. The first
// occurrence keeps the bare slug; later duplicates get a deterministic
// numeric suffix starting at 2. The tie-break rule is part of the IR
// contract: without it, duplicate labels would break idempotence.
type slugger struct {
	seen map[string]int
}

func newSlugger() *slugger {
	return &slugger{seen: map[string]int{}}
}

func (s *slugger) id(label string) string {
	base := Slug(label)
	count := s.seen[base]
	s.seen[base] = count + 1
	if count == 0 {
		return base
	}
	return base + "-" + strconv.Itoa(count+1)
}
