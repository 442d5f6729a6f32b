package utils

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// NewFileLogger appends text records to path. An empty path logs to stderr.
// The returned closer must be called when the program is done logging.
func NewFileLogger(path string, level slog.Level) (*slog.Logger, io.Closer, error) {
	opts := &slog.HandlerOptions{Level: level}
	if path == "" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), io.NopCloser(nil), nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, err
		}
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, err
	}
	return slog.New(slog.NewTextHandler(file, opts)), file, nil
}

// Discard returns logger, or a logger that drops everything if it is nil.
func Discard(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.New(slog.DiscardHandler)
}
