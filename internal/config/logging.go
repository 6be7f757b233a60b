package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	slogmulti "github.com/samber/slog-multi"
)

// SetupLogger logs text to stderr and JSON to logFile. If the file cannot
// be opened, only stderr is used. The returned func closes the file.
func SetupLogger(logFile string, level slog.Level) (*slog.Logger, func() error) {
	file, err := openLogFile(logFile)
	if err != nil {
		logger := newLogger(level, os.Stderr, nil)
		logger.Warn("log file unavailable, logging to stderr only", "file", logFile, "error", err)
		return logger, noopClose
	}
	return newLogger(level, os.Stderr, file), file.Close
}

// SetupFileLogger logs JSON to logFile only, for the terminal viewer which
// owns stderr while it runs. Without a usable file, logs are discarded.
func SetupFileLogger(logFile string, level slog.Level) (*slog.Logger, func() error) {
	file, err := openLogFile(logFile)
	if err != nil {
		return newLogger(level, nil, io.Discard), noopClose
	}
	return newLogger(level, nil, file), file.Close
}

// SetupLoggerWithWriters creates a logger with custom writers (for testing).
// A nil writer disables that output.
func SetupLoggerWithWriters(stderr, file io.Writer, level slog.Level) *slog.Logger {
	return newLogger(level, stderr, file)
}

// newLogger fans out to a text handler on console and a JSON handler on
// file. Debug level adds source positions to the JSON records.
func newLogger(level slog.Level, console, file io.Writer) *slog.Logger {
	var handlers []slog.Handler
	if console != nil {
		handlers = append(handlers, slog.NewTextHandler(console, &slog.HandlerOptions{Level: level}))
	}
	if file != nil {
		handlers = append(handlers, slog.NewJSONHandler(file, &slog.HandlerOptions{
			Level:     level,
			AddSource: level <= slog.LevelDebug,
		}))
	}

	var logger *slog.Logger
	switch len(handlers) {
	case 0:
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	case 1:
		logger = slog.New(handlers[0])
	default:
		logger = slog.New(slogmulti.Fanout(handlers...))
	}
	return logger.With("app", "germano")
}

func openLogFile(path string) (*os.File, error) {
	if path == "" {
		return nil, fmt.Errorf("no log file configured")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

func noopClose() error { return nil }
