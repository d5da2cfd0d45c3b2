// Package logging configures the zerolog logger used by the CLI.
package logging

import (
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// New builds a console logger writing to out. The level comes from the
// MM_LOG_LEVEL environment variable; verbose forces debug.
func New(out io.Writer, environ []string, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	for _, env := range environ {
		if value, ok := strings.CutPrefix(env, "MM_LOG_LEVEL="); ok {
			if parsed, err := zerolog.ParseLevel(strings.ToLower(value)); err == nil {
				level = parsed
			}
		}
	}
	if verbose {
		level = zerolog.DebugLevel
	}

	writer := zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}
