// Package validate batch-checks schema invariants on a parsed song.
//
// The validator never fails fast: one pass collects every violation, each
// carrying the source line and offending field, so a single run reports all
// problems in the input. Only fatal diagnostics (an empty song, an unusable
// tempo) block IR emission.
package validate

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"mmsl/internal/diag"
	"mmsl/internal/song"
)

// Options configures a validation pass.
type Options struct {
	// Strict escalates unknown-cue warnings to errors.
	Strict bool
	// KnownCues is the cue namespace. Empty means every cue name is
	// accepted without an unknown-cue check.
	KnownCues []string
}

var cueNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// Song runs every check and returns the batched diagnostics.
func Song(sng *song.Song, opts Options) []diag.Diagnostic {
	var diags diag.List

	if len(sng.Sections) == 0 {
		diags.Add(diag.Fatal(diag.SchemaViolation, 0, "sections", "empty song"))
	}
	if sng.BPM <= 0 {
		diags.Add(diag.Fatal(diag.TempoMapConflict, 0, "bpm", "bpm %g must be positive", sng.BPM))
	}
	if sng.BeatsPerBar <= 0 {
		diags.Add(diag.Error(diag.RangeViolation, 0, "beats_per_bar", "beats per bar %g must be positive", sng.BeatsPerBar))
	}

	namespace := buildNamespace(opts.KnownCues)
	for _, section := range sng.Sections {
		for _, item := range section.Items {
			if item.Kind != song.ItemCue || item.Cue == nil {
				continue
			}
			checkCue(item.Cue, namespace, opts.Strict, &diags)
		}
	}

	return diags.Items()
}

func buildNamespace(names []string) map[string]struct{} {
	if len(names) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[strings.ToLower(strings.TrimSpace(name))] = struct{}{}
	}
	return set
}

func checkCue(cue *song.Cue, namespace map[string]struct{}, strict bool, diags *diag.List) {
	switch {
	case cue.Name == "":
		diags.Add(diag.Error(diag.SchemaViolation, cue.Line, "name", "cue name must not be empty"))
	case !cueNamePattern.MatchString(cue.Name):
		diags.Add(diag.Error(diag.SchemaViolation, cue.Line, "name",
			"cue name %q contains characters outside [A-Za-z0-9_.-]", cue.Name))
	// Tempo cues name a tempo change, not a renderable asset; the cue
	// namespace does not apply to them.
	case namespace != nil && cue.Category != "tempo":
		if _, known := namespace[strings.ToLower(cue.Name)]; !known {
			if strict {
				diags.Add(diag.Error(diag.UnknownCue, cue.Line, "name", "unknown cue %q", cue.Name))
			} else {
				diags.Add(diag.Warning(diag.UnknownCue, cue.Line, "name", "unknown cue %q", cue.Name))
			}
		}
	}

	checkRepeat(cue, diags)
	checkUnitRange(cue, "intensity", diags)
	checkUnitRange(cue, "volume", diags)
	checkPan(cue, diags)
	checkBeats(cue, diags)
	checkParamKeys(cue, diags)
}

func checkRepeat(cue *song.Cue, diags *diag.List) {
	value, present := cue.Params["repeat"]
	if !present {
		return
	}
	n, ok := value.Number()
	if !ok || n != math.Trunc(n) {
		diags.Add(diag.Error(diag.RangeViolation, cue.Line, "repeat", "repeat must be an integer"))
		return
	}
	if n < 1 {
		diags.Add(diag.Error(diag.RangeViolation, cue.Line, "repeat", "repeat %g must be >= 1", n))
	}
}

// checkUnitRange validates parameters constrained to the unit interval.
func checkUnitRange(cue *song.Cue, key string, diags *diag.List) {
	value, present := cue.Params[key]
	if !present {
		return
	}
	n, ok := value.Number()
	if !ok {
		diags.Add(diag.Error(diag.RangeViolation, cue.Line, key, "%s must be numeric", key))
		return
	}
	if n < 0 || n > 1 {
		diags.Add(diag.Error(diag.RangeViolation, cue.Line, key, "%s %g outside [0,1]", key, n))
	}
}

var panWords = map[string]struct{}{"left": {}, "center": {}, "right": {}}

func checkPan(cue *song.Cue, diags *diag.List) {
	value, present := cue.Params["pan"]
	if !present {
		return
	}
	if n, ok := value.Number(); ok {
		if n < -1 || n > 1 {
			diags.Add(diag.Error(diag.RangeViolation, cue.Line, "pan", "pan %g outside [-1,1]", n))
		}
		return
	}
	if value.Kind == song.ValueString {
		if _, ok := panWords[strings.ToLower(value.Str)]; ok {
			return
		}
		diags.Add(diag.Error(diag.RangeViolation, cue.Line, "pan",
			"pan %q must be left, center, right, or numeric in [-1,1]", value.Str))
		return
	}
	diags.Add(diag.Error(diag.RangeViolation, cue.Line, "pan", "pan must be a direction word or number"))
}

// checkBeats enforces that every beat-normalized duration is non-negative.
func checkBeats(cue *song.Cue, diags *diag.List) {
	for _, key := range sortedKeys(cue.Params) {
		value := cue.Params[key]
		if value.Kind != song.ValueBeats {
			continue
		}
		if value.Num < 0 || math.IsNaN(value.Num) {
			diags.Add(diag.Error(diag.RangeViolation, cue.Line, key, "%s %g must be >= 0 beats", key, value.Num))
		}
	}
}

// checkParamKeys flags unrecognized parameter keys. The fixed enumeration
// plus the x_ extension escape is the whole key surface; a typo like
// "durration" should be loud, not silently carried into the IR.
func checkParamKeys(cue *song.Cue, diags *diag.List) {
	for _, key := range sortedKeys(cue.Params) {
		base := strings.TrimSuffix(key, "_beats")
		if song.RecognizedParamKey(base) {
			continue
		}
		diags.Add(diag.Warning(diag.SchemaViolation, cue.Line, key, "unrecognized parameter key %q", key))
	}
}

// sortedKeys keeps diagnostic order deterministic across runs.
func sortedKeys(params song.Params) []string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
