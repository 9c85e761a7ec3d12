// Package logging sets up the application's file logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/hy4ri/todoify/internal/config"
)

// FileName is the log file created in the data directory when no path is configured.
const FileName = "todoify.log"

// ParseLevel maps a config level name onto a slog level. Unknown names map to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns a text logger writing to w.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Setup opens the log file named by cfg (or the default one in the data
// directory) and returns a logger writing to it along with a close function.
// The terminal belongs to the TUI, so a log file that cannot be opened
// yields a discarding logger instead of stderr output.
func Setup(cfg config.LogConfig, verbose bool) (*slog.Logger, func() error) {
	level := ParseLevel(cfg.Level)
	if verbose {
		level = slog.LevelDebug
	}

	path, err := logPath(cfg.File)
	if err != nil {
		return New(io.Discard, level), func() error { return nil }
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return New(io.Discard, level), func() error { return nil }
	}

	return New(f, level), f.Close
}

func logPath(configured string) (string, error) {
	if configured != "" {
		if err := os.MkdirAll(filepath.Dir(configured), 0700); err != nil {
			return "", fmt.Errorf("failed to create log directory: %w", err)
		}
		return configured, nil
	}
	dir, err := config.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}
