package logger_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/netwait/netwait/pkg/logger"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{input: "debug", want: slog.LevelDebug},
		{input: "info", want: slog.LevelInfo},
		{input: "warn", want: slog.LevelWarn},
		{input: "error", want: slog.LevelError},
		{input: "ERROR", want: slog.LevelError},
		{input: "unknown", want: slog.LevelInfo},
		{input: "", want: slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, logger.ParseLevel(tt.input))
		})
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewLoggerWithWriter("warn", &buf)

	log.Debug("debug message")
	log.Info("info message")
	log.Warn("warn message")
	log.Error("error message")

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error message")
}

func TestLoggerStructuredArgs(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewLoggerWithWriter("info", &buf)

	log.Info("attempt finished", "attempt", 3, "remaining", 1)

	out := buf.String()
	assert.Contains(t, out, "attempt=3")
	assert.Contains(t, out, "remaining=1")
}

func TestNoLoggerIsSilent(t *testing.T) {
	log := logger.NewNoLogger()

	// Must not panic and produces no observable output.
	log.Debug("a")
	log.Info("b", "k", "v")
	log.Warn("c")
	log.Error("d")
}
