package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSong(); err != nil {
		return err
	}
	if err := c.validateParser(); err != nil {
		return err
	}
	if err := c.validateVideo(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateSong() error {
	if c.Song.BPM <= 0 {
		return fmt.Errorf("song.bpm must be positive, got %g", c.Song.BPM)
	}
	if c.Song.BeatsPerBar <= 0 {
		return fmt.Errorf("song.beats_per_bar must be positive, got %g", c.Song.BeatsPerBar)
	}
	return nil
}

func (c *Config) validateParser() error {
	if c.Parser.MaxLines < 1 {
		return fmt.Errorf("parser.max_lines must be at least 1, got %d", c.Parser.MaxLines)
	}
	return nil
}

func (c *Config) validateVideo() error {
	if c.Video.FPS <= 0 {
		return fmt.Errorf("video.fps must be positive, got %g", c.Video.FPS)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return errors.New("logging.level must be one of debug, info, warn, error")
	}
}
