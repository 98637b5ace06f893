package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New returns a logger writing to w. Console output is human readable,
// json switches to one JSON object per line.
func New(w io.Writer, level string, json bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	if !json {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}

	return zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}

// NewConsole logs to stderr so stdout stays free for grid output.
func NewConsole(level string, json bool) zerolog.Logger {
	return New(os.Stderr, level, json)
}

// Component tags every entry with the component that produced it.
func Component(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
