// Package log configures structured logging for the application and
// provides the shared field and component names used across packages.
package log

import (
	"log/slog"
	"os"
	"strings"
)

// Setup installs a text handler on the default slog logger. Unknown
// level names fall back to info.
func Setup(level string) {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	slog.SetDefault(slog.New(handler))
}

// ParseLevel maps a level name to a slog.Level.
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

// ForComponent returns a logger that tags every record with the
// component name.
func ForComponent(component string) *slog.Logger {
	return slog.Default().With(FieldComponent, component)
}
