// Package logger provides structured logging setup for AgentDeck.
package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/agentdeck/agentdeck/internal/config"
)

// asyncChanSize is the buffered channel capacity for async logging.
const asyncChanSize = 1024

// level is shared by every logger built by New so SetLevel can retune
// verbosity at runtime, e.g. after a config reload.
var level slog.LevelVar

// New creates a *slog.Logger from the given Logging config.
// Output is JSON to stdout with a "service" attribute on every record.
// When cfg.Async is set, records are handled off the hot path by a
// worker goroutine; call Close on the returned Closer during shutdown
// to flush buffered records.
func New(cfg config.Logging) (*slog.Logger, Closer) {
	level.Set(parseLevel(cfg.Level))

	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: &level,
	})

	var closer Closer = nopCloser{}
	if cfg.Async {
		async := NewAsyncHandler(handler, asyncChanSize, 1)
		handler = async
		closer = async
	}

	return slog.New(handler).With("service", cfg.Service), closer
}

// SetLevel adjusts the minimum level of every logger built by New.
func SetLevel(s string) {
	level.Set(parseLevel(s))
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
