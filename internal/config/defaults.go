package config

const (
	defaultBPM         = 120.0
	defaultBeatsPerBar = 4.0
	defaultMaxLines    = 10000
	defaultFPS         = 24.0
	defaultLogFormat   = "console"
	defaultLogLevel    = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Song: Song{
			BPM:         defaultBPM,
			BeatsPerBar: defaultBeatsPerBar,
		},
		Parser: Parser{
			Strict:   false,
			MaxLines: defaultMaxLines,
		},
		Video: Video{
			FPS: defaultFPS,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
