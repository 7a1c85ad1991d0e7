// Package logger wraps log/slog the way the teacher's pkg/logger does:
// a JSON or text handler selected by configuration, with small helpers to
// attach component/request fields.
package logger

import (
	"log/slog"
	"os"

	"github.com/JaimeStill/brainquery/internal/config"
)

// Logger embeds *slog.Logger so callers can use it as a drop-in slog.Logger.
type Logger struct {
	*slog.Logger
}

// New creates a structured logger from configuration.
func New(cfg *config.LoggingConfig) *Logger {
	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{Logger: slog.New(handler)}
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

// WithComponent scopes the logger to a named component.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.Logger.With("component", component)}
}

// WithFields attaches arbitrary key/value pairs.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{Logger: l.Logger.With(args...)}
}

// Setup builds a logger from configuration and installs it as the process
// default, mirroring the teacher's logger.Setup.
func Setup(cfg *config.LoggingConfig) *Logger {
	l := New(cfg)
	slog.SetDefault(l.Logger)
	return l
}
