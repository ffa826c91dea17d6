package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// ParseLevel maps a LOG_LEVEL string to a slog level. Unknown values fall back to info.
func ParseLevel(logLevelStr string) (slog.Level, bool) {
	switch strings.ToLower(logLevelStr) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// New builds the JSON logger used by the whole process. The returned Capture
// is already installed in the handler chain; pass it to whoever assembles reports.
// Call this once at application startup, after loading config.
func New(logLevelStr string) (*slog.Logger, *Capture) {
	return NewWithWriter(logLevelStr, os.Stdout)
}

func NewWithWriter(logLevelStr string, w io.Writer) (*slog.Logger, *Capture) {
	level, ok := ParseLevel(logLevelStr)

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				// Format time as RFC3339 for better machine readability
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.Format(time.RFC3339))
				}
			}
			return a
		},
	}

	capture := NewCapture(slog.NewJSONHandler(w, opts))
	l := slog.New(capture)
	if !ok {
		l.Warn("Invalid LOG_LEVEL specified, defaulting to INFO", "configuredLevel", logLevelStr)
	}
	l.Info("Logger initialized", "level", level.String())
	return l, capture
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
