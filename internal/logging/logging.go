// Package logging configures the process-wide slog default logger from
// LogLevel/LogFormat config, the structured-logging idiom [[pipeline]] and
// [[ingest]] already assume (both build loggers via slog.Default().With(...)).
package logging

import (
	"log/slog"
	"os"
)

// Configure installs a new slog default logger using format ("json" or
// "text") at the given level ("debug", "info", "warn", "error"). Invalid
// values fall back to json/info rather than failing startup over a log
// config typo.
func Configure(level, format string) {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
