// Package logging builds the run logger.
package logging

import (
	"io"
	"log/slog"
)

// New returns a text logger writing to w. Verbose runs log at debug level;
// otherwise only warnings and errors are written.
func New(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
