// Package logger provides the leveled logging interface used across
// netwait. The default implementation is backed by slog; a silent
// implementation exists for quiet mode and as a test default.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is the logging interface consumed by the polling engine and
// the runners. Arguments are slog-style key-value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type slogLogger struct {
	logger *slog.Logger
}

func (l *slogLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l *slogLogger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *slogLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l *slogLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

// noLogger discards everything.
type noLogger struct{}

//nolint:revive // Parameters required by Logger interface
func (noLogger) Debug(msg string, args ...any) {}

//nolint:revive // Parameters required by Logger interface
func (noLogger) Info(msg string, args ...any) {}

//nolint:revive // Parameters required by Logger interface
func (noLogger) Warn(msg string, args ...any) {}

//nolint:revive // Parameters required by Logger interface
func (noLogger) Error(msg string, args ...any) {}

// ParseLevel converts a level name (debug, info, warn, error,
// case-insensitive) to a slog.Level. Unknown names default to info.
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

// NewLogger creates a Logger writing text records to stderr at the
// given level name.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewLogger(level string) Logger {
	return NewLoggerWithWriter(level, os.Stderr)
}

// NewLoggerWithWriter creates a Logger writing text records to w at
// the given level name.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewLoggerWithWriter(level string, w io.Writer) Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	return &slogLogger{logger: slog.New(handler)}
}

// NewNoLogger creates a Logger that discards all records.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewNoLogger() Logger {
	return noLogger{}
}
