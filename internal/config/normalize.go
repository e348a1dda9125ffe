package config

import "strings"

// normalize cleans user-provided values so validation and later use see a
// consistent shape.
func (c *Config) normalize() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}

	known := make([]string, 0, len(c.Cues.Known))
	for _, name := range c.Cues.Known {
		name = strings.TrimSpace(name)
		if name != "" {
			known = append(known, name)
		}
	}
	c.Cues.Known = known

	if c.Parser.MaxLines == 0 {
		c.Parser.MaxLines = defaultMaxLines
	}
	if c.Video.FPS == 0 {
		c.Video.FPS = defaultFPS
	}
	if c.Song.BPM == 0 {
		c.Song.BPM = defaultBPM
	}
	if c.Song.BeatsPerBar == 0 {
		c.Song.BeatsPerBar = defaultBeatsPerBar
	}
}
