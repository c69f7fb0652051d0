package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a JSON logger writing to stderr, tagged with the owning
// component ("relay", "send", "receive").
func New(debug bool, tag string) zerolog.Logger {
	return newLogger(debug, tag, false)
}

// NewConsole returns a human-readable logger for interactive use. The CLI
// commands run it at error level by default so spinner and progress
// rendering stay clean.
func NewConsole(debug bool, tag string) zerolog.Logger {
	return newLogger(debug, tag, true)
}

func newLogger(debug bool, tag string, console bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	} else if console {
		level = zerolog.ErrorLevel
	}

	var logger zerolog.Logger
	if console {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"})
	} else {
		zerolog.TimeFieldFormat = time.RFC3339Nano
		logger = zerolog.New(os.Stderr)
	}

	return logger.Level(level).With().Timestamp().Str("tag", tag).Logger()
}
