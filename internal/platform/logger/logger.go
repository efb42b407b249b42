// Package logger provides structured logging functionality for the application.
package logger

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/taskshare/task-api/internal/config"
)

// Setup initializes the application's logging system from configuration.
// It creates a structured JSON logger with the configured level, sets it as
// the process default, and returns it.
func Setup(cfg config.ServerConfig) (*slog.Logger, error) {
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger, nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %q", s)
	}
}
