package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options select the handler behind the process logger.
type Options struct {
	Level  slog.Level
	Format string // "json" (default) or "text"
	Writer io.Writer
}

// OptionsFromEnv reads LOG_LEVEL and LOG_FORMAT.
func OptionsFromEnv() Options {
	return Options{
		Level:  parseLevel(os.Getenv("LOG_LEVEL")),
		Format: strings.ToLower(strings.TrimSpace(os.Getenv("LOG_FORMAT"))),
		Writer: os.Stdout,
	}
}

// New builds the service logger from the environment. Every record carries service=synergy-circle.
func New() *slog.Logger {
	return NewWithOptions(OptionsFromEnv())
}

func NewWithOptions(opts Options) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}
	handlerOpts := &slog.HandlerOptions{Level: opts.Level}

	var handler slog.Handler
	if opts.Format == "text" {
		handler = slog.NewTextHandler(w, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(w, handlerOpts)
	}
	return slog.New(handler).With("service", "synergy-circle")
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
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
