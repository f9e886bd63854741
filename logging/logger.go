package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns the process logger. Local runs get a human readable console
// writer, everything else logs JSON lines to stdout.
func New(env string) zerolog.Logger {
	var out io.Writer = os.Stdout
	if env == "local" || env == "" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).With().Timestamp().Str("service", "ootdapi").Logger()
}
