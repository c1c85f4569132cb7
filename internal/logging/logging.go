package logging

import (
	"io"

	"github.com/rs/zerolog"
)

// New builds the process logger writing structured JSON to out.
// Verbose lowers the level from info to debug.
func New(out io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
