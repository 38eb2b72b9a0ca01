// Package logging builds the application's structured logger. Records are
// written as JSON to a size-rotated file because the terminal UI owns
// stdout and stderr while an exam is running.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config selects where and how much to log.
type Config struct {
	// File is the log file path. Empty disables file logging.
	File string `yaml:"file"`
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	// MaxSizeMB is the size at which the file is rotated.
	MaxSizeMB int `yaml:"max_size_mb" validate:"gte=0"`
	// MaxBackups is how many rotated files are kept.
	MaxBackups int `yaml:"max_backups" validate:"gte=0"`
	// MaxAgeDays removes rotated files older than this.
	MaxAgeDays int `yaml:"max_age_days" validate:"gte=0"`
	// Stderr additionally writes human-readable records to stderr.
	Stderr bool `yaml:"stderr"`
}

// DefaultConfig logs at info level into dataDir/sapprep.log.
func DefaultConfig(dataDir string) Config {
	cfg := Config{
		Level:      "info",
		MaxSizeMB:  5,
		MaxBackups: 3,
		MaxAgeDays: 28,
	}
	if dataDir != "" {
		cfg.File = filepath.Join(dataDir, "sapprep.log")
	}
	return cfg
}

// ParseLevel maps a level name to a slog level. Unknown names are info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// New returns a logger for cfg and a closer for the underlying file.
// With no destinations configured the logger discards everything.
func New(cfg Config) (*slog.Logger, io.Closer, error) {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handlers []slog.Handler
	var closer io.Closer = nopCloser{}

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}
		closer = rotator
		handlers = append(handlers, slog.NewJSONHandler(rotator, opts))
	}
	if cfg.Stderr {
		handlers = append(handlers, slog.NewTextHandler(os.Stderr, opts))
	}

	var h slog.Handler
	switch len(handlers) {
	case 0:
		h = slog.NewTextHandler(io.Discard, nil)
	case 1:
		h = handlers[0]
	default:
		h = fanout(handlers)
	}
	return slog.New(h).With("app", "sapprep"), closer, nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
