// ABOUTME: Structured logging configuration using log/slog.
// ABOUTME: Provides Init() to configure default logger with level, format, and optional rotating file from environment.

package logger

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Init configures the default slog logger based on environment variables.
// LOG_LEVEL: debug, info, warn, error (default: info)
// LOG_FORMAT: text, json (default: text)
// LOG_FILE: also write to this file, rotated at LOG_FILE_MAX_MB (default: 10)
//
// The returned closer flushes the log file; it is a no-op without LOG_FILE.
func Init() io.Closer {
	out, closer := output(os.Getenv("LOG_FILE"), os.Getenv("LOG_FILE_MAX_MB"))
	slog.SetDefault(slog.New(newHandler(out, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))))
	return closer
}

func newHandler(w io.Writer, level, format string) slog.Handler {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}
	if strings.ToLower(format) == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func output(path, maxMB string) (io.Writer, io.Closer) {
	if path == "" {
		return os.Stdout, nopCloser{}
	}
	size, err := strconv.Atoi(maxMB)
	if err != nil || size <= 0 {
		size = 10
	}
	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    size,
		MaxBackups: 3,
		MaxAge:     7,
		Compress:   true,
	}
	return io.MultiWriter(os.Stdout, file), file
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
