package logger

import (
	"log/slog"
	"os"
)

// NewLogger returns a JSON logger writing to stdout. The level can be
// overridden with the LOG_LEVEL env variable (debug, info, warn, error).
func NewLogger() *slog.Logger {
	level := slog.LevelInfo
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		var l slog.Level
		if err := l.UnmarshalText([]byte(v)); err == nil {
			level = l
		}
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
