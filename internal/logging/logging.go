// Package logging builds the structured logger that cmd/dazzle passes to
// the host inventory loader. The task engine and the clone coordinator do
// not log.
package logging

import (
	"io"

	"github.com/joeycumines/izerolog"
	"github.com/joeycumines/logiface"
	"github.com/rs/zerolog"
)

// Logger is the concrete logger type threaded through the core packages.
type Logger = logiface.Logger[*izerolog.Event]

// New builds a Logger writing NDJSON to w. verbose raises the level from
// Info to Debug, matching the CLI's -v flag.
func New(w io.Writer, verbose bool) *Logger {
	level := logiface.LevelInformational
	if verbose {
		level = logiface.LevelDebug
	}

	zl := zerolog.New(w).With().Timestamp().Logger()

	return izerolog.L.New(
		izerolog.L.WithZerolog(zl),
		izerolog.L.WithLevel(level),
	)
}

// Discard returns a Logger that drops every event, for tests that don't
// care about log output.
func Discard() *Logger {
	return New(io.Discard, false)
}
