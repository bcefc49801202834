// Package logging builds the process-wide slog.Logger from a run's
// Config, and installs it as slog's default so packages that log via the
// top-level slog functions (rather than holding a *slog.Logger) pick up
// the same level, format, and extra attrs.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config controls the logger Configure builds. Every field has a usable
// zero value: an empty Config produces an INFO-level text logger on
// stderr.
type Config struct {
	Level            string
	Structured       bool
	StructuredFormat string
	IncludePID       bool
	ExtraFields      map[string]string
}

// Configure builds a *slog.Logger from cfg, sets it as slog's process
// default, and returns it for callers that prefer to pass it explicitly.
func Configure(cfg Config) *slog.Logger {
	handler := newHandler(cfg, os.Stderr)
	if attrs := staticAttrs(cfg); len(attrs) > 0 {
		handler = handler.WithAttrs(attrs)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// newHandler picks the text or JSON handler for cfg at the requested
// level; unstructured and unrecognized structured formats both fall back
// to text.
func newHandler(cfg Config, out io.Writer) slog.Handler {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if cfg.Structured && strings.ToLower(cfg.StructuredFormat) == "json" {
		return slog.NewJSONHandler(out, opts)
	}
	return slog.NewTextHandler(out, opts)
}

// staticAttrs collects the attrs that should be attached to every record:
// the caller's ExtraFields plus, optionally, the process PID.
func staticAttrs(cfg Config) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(cfg.ExtraFields)+1)
	for k, v := range cfg.ExtraFields {
		attrs = append(attrs, slog.String(k, v))
	}
	if cfg.IncludePID {
		attrs = append(attrs, slog.Int("pid", os.Getpid()))
	}
	return attrs
}

// parseLevel maps a level name, case-insensitively, to a slog.Level.
// Anything unrecognized, including the empty string, resolves to INFO.
func parseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
