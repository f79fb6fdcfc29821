package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where log lines go.
type Options struct {
	Level string
	// File enables a rotating log file when set.
	File string
	// Quiet drops the stdout sink, for when a TUI owns the terminal.
	Quiet bool
}

// New creates a console slog.Logger with provided level string.
func New(level string) *slog.Logger {
	logger, _ := NewWithOptions(Options{Level: level})
	return logger
}

// NewWithOptions builds a text logger writing to stdout, a rotating file, or both.
// The returned closer flushes the file sink and is safe to call when none is open.
func NewWithOptions(opts Options) (*slog.Logger, io.Closer) {
	var (
		writers []io.Writer
		closer  io.Closer = nopCloser{}
	)
	if !opts.Quiet {
		writers = append(writers, os.Stdout)
	}
	if opts.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		}
		writers = append(writers, rotator)
		closer = rotator
	}

	var out io.Writer
	switch len(writers) {
	case 0:
		out = io.Discard
	case 1:
		out = writers[0]
	default:
		out = io.MultiWriter(writers...)
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: levelFromString(opts.Level),
	})
	return slog.New(handler), closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func levelFromString(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "error":
		return slog.LevelError
	case "warn", "warning":
		return slog.LevelWarn
	case "info":
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
