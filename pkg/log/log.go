// Package log configures the process-wide slog logger.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel maps debug, info, warn and error to a slog level. Anything else is info.
func ParseLevel(logLevel string) slog.Level {
	switch strings.ToLower(logLevel) {
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

// Setup installs a text handler on stderr as the default logger.
func Setup(logLevel string) {
	SetupWriter(os.Stderr, logLevel, "text")
}

// SetupWriter installs a text or json handler writing to w as the default logger.
func SetupWriter(w io.Writer, logLevel, format string) {
	options := &slog.HandlerOptions{
		Level: ParseLevel(logLevel),
	}

	var handler slog.Handler = slog.NewTextHandler(w, options)
	if format == "json" {
		handler = slog.NewJSONHandler(w, options)
	}

	slog.SetDefault(slog.New(handler))
}

func WithModule(module string) *slog.Logger {
	return slog.With("module", module)
}
