package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mmsl/internal/diag"
)

const demoSong = `@Title Demo
@Bpm 120

[Verse]
(whisper) hello there
<sfx riser duration=2s volume=0.5>
plain lyric line
`

func writeSongFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "song.mmsl")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write song: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	// Point at a path that does not exist so tests never read a real
	// user config.
	configPath := filepath.Join(t.TempDir(), "absent.toml")
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestParseCommandEmitsIR(t *testing.T) {
	path := writeSongFile(t, demoSong)

	stdout, stderr, err := runCLI(t, "parse", path)
	if err != nil {
		t.Fatalf("parse: %v (stderr: %q)", err, stderr)
	}
	if !strings.Contains(stdout, `"mmsl_version"`) || !strings.Contains(stdout, `"Demo"`) {
		t.Fatalf("missing IR fields in output: %q", stdout)
	}
	if !strings.Contains(stdout, `"duration_beats": 4`) {
		t.Fatalf("2s at 120 bpm should normalize to 4 beats: %q", stdout)
	}
	if strings.TrimSpace(stderr) != "" {
		t.Fatalf("clean parse should emit no diagnostics: %q", stderr)
	}
}

func TestParseCommandBPMOverride(t *testing.T) {
	path := writeSongFile(t, demoSong)

	stdout, _, err := runCLI(t, "parse", path, "--bpm", "60")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !strings.Contains(stdout, `"duration_beats": 2`) {
		t.Fatalf("2s at 60 bpm should normalize to 2 beats: %q", stdout)
	}
}

func TestParseCommandValidationErrorsStillEmitIR(t *testing.T) {
	path := writeSongFile(t, "[Verse]\n<sfx riser intensity=1.5>\n")

	stdout, stderr, err := runCLI(t, "parse", path)
	if !errors.Is(err, diag.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(stdout, `"mmsl_version"`) {
		t.Fatalf("IR should still be emitted on validation errors: %q", stdout)
	}
	if !strings.Contains(stderr, "range_violation") {
		t.Fatalf("expected range diagnostic on stderr: %q", stderr)
	}
}

func TestParseCommandEmptySongFailsValidation(t *testing.T) {
	path := writeSongFile(t, "")

	stdout, stderr, err := runCLI(t, "parse", path)
	// The file was perfectly readable; its emptiness is a validation
	// outcome and must not classify as an input failure.
	if !errors.Is(err, diag.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if errors.Is(err, diag.ErrFatalInput) {
		t.Fatalf("empty song must not classify as unreadable input: %v", err)
	}
	if strings.Contains(stdout, `"mmsl_version"`) {
		t.Fatalf("no IR should be emitted for a fatal diagnostic: %q", stdout)
	}
	if !strings.Contains(stderr, "schema_violation") {
		t.Fatalf("expected schema diagnostic on stderr: %q", stderr)
	}
}

func TestParseCommandOversizedInputIsFatal(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(configPath, []byte("[parser]\nmax_lines = 3\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	songPath := writeSongFile(t, demoSong)

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"--config", configPath, "parse", songPath})
	err := cmd.Execute()
	if !errors.Is(err, diag.ErrFatalInput) {
		t.Fatalf("oversized input is an input failure, got %v", err)
	}
	if !strings.Contains(stderr.String(), "io_error") {
		t.Fatalf("expected io_error diagnostic: %q", stderr.String())
	}
}

func TestParseCommandStderrIsPureJSONLines(t *testing.T) {
	path := writeSongFile(t, "[Verse]\n<sfx riser intensity=1.5>\n")

	_, stderr, err := runCLI(t, "parse", path)
	if !errors.Is(err, diag.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, line := range strings.Split(strings.TrimSpace(stderr), "\n") {
		var decoded map[string]any
		if jsonErr := json.Unmarshal([]byte(line), &decoded); jsonErr != nil {
			t.Fatalf("diagnostic stream carries a non-JSON line %q: %v", line, jsonErr)
		}
	}
}

func TestParseCommandMissingFile(t *testing.T) {
	_, _, err := runCLI(t, "parse", filepath.Join(t.TempDir(), "missing.mmsl"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if errors.Is(err, diag.ErrValidation) {
		t.Fatalf("missing file is not a validation failure: %v", err)
	}
}

func TestParseCommandStrictEscalatesUnknownCues(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(configPath, []byte("[cues]\nknown = [\"riser\"]\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	songPath := writeSongFile(t, "[Verse]\n<sfx airhorn>\n")

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"--config", configPath, "parse", songPath, "--strict"})
	err := cmd.Execute()
	if !errors.Is(err, diag.ErrValidation) {
		t.Fatalf("expected validation error under strict, got %v (stderr %q)", err, stderr.String())
	}
	if !strings.Contains(stderr.String(), "unknown_cue") {
		t.Fatalf("expected UnknownCue diagnostic: %q", stderr.String())
	}
}

func TestParseCommandOutputFlag(t *testing.T) {
	songPath := writeSongFile(t, demoSong)
	outPath := filepath.Join(t.TempDir(), "out.json")

	stdout, _, err := runCLI(t, "parse", songPath, "--output", outPath)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if strings.Contains(stdout, `"mmsl_version"`) {
		t.Fatalf("IR should go to the file, not stdout: %q", stdout)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output file: %v", err)
	}
	if !strings.Contains(string(data), `"mmsl_version"`) {
		t.Fatalf("output file missing IR: %q", data)
	}
}

func TestEventsCommandJSON(t *testing.T) {
	path := writeSongFile(t, demoSong)

	stdout, stderr, err := runCLI(t, "events", path, "--json")
	if err != nil {
		t.Fatalf("events: %v (stderr %q)", err, stderr)
	}
	if !strings.Contains(stdout, `"type": "cue"`) {
		t.Fatalf("missing cue event: %q", stdout)
	}
	// The lyric after a 2-second cue at 120 bpm lands on beat 4.
	if !strings.Contains(stdout, `"beat": 4`) {
		t.Fatalf("cursor should advance past the cue: %q", stdout)
	}
	if !strings.Contains(stdout, `"frame": 0`) {
		t.Fatalf("expected frame numbers in output: %q", stdout)
	}
}

func TestEventsCommandRejectsBadFPS(t *testing.T) {
	path := writeSongFile(t, demoSong)
	_, _, err := runCLI(t, "events", path, "--fps", "-5")
	if err == nil || !strings.Contains(err.Error(), "fps") {
		t.Fatalf("expected fps error, got %v", err)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "config.toml")

	stdout, _, err := runCLI(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(stdout, target) {
		t.Fatalf("init should report the written path: %q", stdout)
	}

	if _, _, err := runCLI(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error when config already exists")
	}

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--config", target, "config", "show"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out.String(), "Config path:") || !strings.Contains(out.String(), `"BPM"`) {
		t.Fatalf("unexpected show output: %q", out.String())
	}
}
