// Package logging configures the structured logger shared by the renderer.
package logging

import (
	"io"
	"log/slog"
	"time"
)

// New returns a text logger writing to w. Debug records are only emitted when
// debug is true.
func New(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// Discard returns a logger which drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelError + 1,
	}))
}

// Step logs the completion of one initialization step together with how long
// it took.
func Step(logger *slog.Logger, step string, started time.Time, attrs ...any) {
	args := append([]any{"step", step, "took", time.Since(started)}, attrs...)
	logger.Info("initialized", args...)
}
