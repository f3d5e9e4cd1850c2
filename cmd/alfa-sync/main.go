// Package main is the entry point for the alfa-sync service.
package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/vmsantos44/alfa-platform/cmd/alfa-sync/app"
)

// getLogLevel parses the ALFA_LOG_LEVEL environment variable, falling back to
// LOG_LEVEL. Defaults to info when neither is set or the value is invalid.
func getLogLevel() slog.Level {
	levelStr := os.Getenv("ALFA_LOG_LEVEL")
	if levelStr == "" {
		levelStr = os.Getenv("LOG_LEVEL")
	}

	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		slog.Warn("Invalid LOG_LEVEL, using INFO", "value", levelStr)
		return slog.LevelInfo
	}
}

func main() {
	// Structured JSON logging on stderr keeps stdout clean for commands that
	// output data (e.g. version --format json).
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: getLogLevel()})
	slog.SetDefault(slog.New(handler))

	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
