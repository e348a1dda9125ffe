package dsl

import (
	"strings"

	"mmsl/internal/diag"
)

// LineKind enumerates the classifier verdicts.
type LineKind int

const (
	LineBlank LineKind = iota
	LineHeader
	LineSection
	// LineInline is a performance direction followed by lyric text on the
	// same line: "(softly) hold me closer".
	LineInline
	LinePerformance
	LineCue
	LineLyric
)

// Classified is the classifier's verdict for one raw line.
type Classified struct {
	Kind LineKind
	Line int

	// LineHeader.
	Key   string
	Value string

	// LineSection.
	Label string

	// LineInline and LinePerformance.
	Performance string

	// LineInline and LineLyric.
	Lyric string

	// LineCue.
	CueBody string

	// Warning is set when a malformed marker degraded to a lyric.
	Warning *diag.Diagnostic
}

// Classify categorizes one raw line. Precedence: header > section >
// inline performance > performance > cue > lyric. The lyric fallback means
// classification never fails; malformed bracketing degrades to lyric and
// records a SyntaxWarning on the verdict.
func Classify(raw string, line int) Classified {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Classified{Kind: LineBlank, Line: line}
	}

	switch trimmed[0] {
	case '@':
		return classifyHeader(trimmed, line)
	case '[':
		return classifySection(trimmed, line)
	case '(':
		return classifyPerformance(trimmed, line)
	case '<':
		return classifyCue(trimmed, line)
	}
	return Classified{Kind: LineLyric, Line: line, Lyric: trimmed}
}

func classifyHeader(trimmed string, line int) Classified {
	body := strings.TrimSpace(trimmed[1:])
	if body == "" {
		return degrade(trimmed, line, "header marker with no key")
	}
	key := body
	value := ""
	if idx := strings.IndexAny(body, " \t"); idx >= 0 {
		key = body[:idx]
		value = strings.TrimSpace(body[idx+1:])
	}
	return Classified{
		Kind:  LineHeader,
		Line:  line,
		Key:   strings.ToLower(key),
		Value: value,
	}
}

func classifySection(trimmed string, line int) Classified {
	end := strings.IndexByte(trimmed, ']')
	if end < 0 {
		return degrade(trimmed, line, "unterminated section marker")
	}
	if rest := strings.TrimSpace(trimmed[end+1:]); rest != "" {
		return degrade(trimmed, line, "trailing text after section marker")
	}
	label := strings.TrimSpace(trimmed[1:end])
	if label == "" {
		return degrade(trimmed, line, "empty section label")
	}
	return Classified{Kind: LineSection, Line: line, Label: label}
}

func classifyPerformance(trimmed string, line int) Classified {
	end := strings.IndexByte(trimmed, ')')
	if end < 0 {
		return degrade(trimmed, line, "unterminated performance marker")
	}
	performance := strings.TrimSpace(trimmed[1:end])
	if performance == "" {
		return degrade(trimmed, line, "empty performance marker")
	}
	remainder := strings.TrimSpace(trimmed[end+1:])
	if remainder == "" {
		return Classified{Kind: LinePerformance, Line: line, Performance: performance}
	}
	return Classified{Kind: LineInline, Line: line, Performance: performance, Lyric: remainder}
}

func classifyCue(trimmed string, line int) Classified {
	end := strings.LastIndexByte(trimmed, '>')
	if end <= 0 {
		return degrade(trimmed, line, "unterminated cue marker")
	}
	if rest := strings.TrimSpace(trimmed[end+1:]); rest != "" {
		return degrade(trimmed, line, "trailing text after cue marker")
	}
	body := strings.TrimSpace(trimmed[1:end])
	if body == "" {
		return degrade(trimmed, line, "empty cue body")
	}
	return Classified{Kind: LineCue, Line: line, CueBody: body}
}

// degrade records a lyric fallback for a line whose marker could not be
// parsed. The original text survives verbatim as lyric content.
func degrade(trimmed string, line int, reason string) Classified {
	warning := diag.Warning(diag.SyntaxWarning, line, "", "%s, line kept as lyric", reason)
	return Classified{Kind: LineLyric, Line: line, Lyric: trimmed, Warning: &warning}
}
