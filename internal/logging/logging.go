package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Setup builds the process-wide logger from the PETTRACK_LOG_LEVEL value
// ("debug", "info", "warn", "error"; case-insensitive, anything else means
// info), installs it as the slog default, and returns it. Components derive
// their own child loggers from the returned one via With.
func Setup(level string) *slog.Logger {
	lvl := parseLevel(level)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: lvl,
	}))
	slog.SetDefault(logger)
	return logger
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
