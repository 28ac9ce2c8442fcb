package log

import (
	"log/slog"
	"os"
	"strings"
)

// Setup installs the process-wide JSON logger. The level comes from
// LOG_LEVEL (debug, info, warn, error), defaulting to info.
func Setup() {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// ForComponent returns a logger scoped to one component name.
func ForComponent(name string) *slog.Logger {
	return slog.Default().With(FieldComponent, name)
}
