package util

import (
	"log/slog"
	"os"
)

// NewLogger builds the process logger. Logs go to stderr so measurement
// reports on stdout stay machine-readable.
func NewLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}
