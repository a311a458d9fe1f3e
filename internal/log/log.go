// Package log provides structured logging for go-scan.
// It wraps slog with sensible defaults for production use.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	logger *slog.Logger
	once   sync.Once
)

// Options configure a logger.
type Options struct {
	// Level is "debug", "info", "warn" or "error". Anything else is info.
	Level string

	// JSON selects the JSON handler instead of text.
	JSON bool

	// Writer defaults to os.Stdout.
	Writer io.Writer
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// New builds a logger without touching the global one.
func New(opts Options) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}
	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}
	if opts.JSON {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

// Init initializes the global logger with the specified level and installs
// it as the slog default, so package loggers created with slog.Default()
// pick it up. Only the first call has an effect.
func Init(level string) {
	once.Do(func() {
		// Use JSON in production, text in development
		logger = New(Options{
			Level: level,
			JSON:  os.Getenv("GO_ENV") == "production",
		})
		slog.SetDefault(logger)
	})
}

// L returns the global logger instance.
func L() *slog.Logger {
	if logger == nil {
		Init("info")
	}
	return logger
}

// Component returns a logger tagged with a component name.
func Component(name string) *slog.Logger {
	return L().With("component", name)
}
