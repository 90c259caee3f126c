// Package observability provides the logging setup and in-process
// metrics counters shared by the similarity services.
package observability

import (
	"log/slog"
	"os"
)

// NewLogger builds the process logger for the given deployment mode:
// JSON output at info level in prod, human-readable text at debug
// level everywhere else.
func NewLogger(mode string) *slog.Logger {
	if mode == "prod" {
		return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}
