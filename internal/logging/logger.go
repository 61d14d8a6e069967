// Package logging sets up the shared slog logger: human-readable text on
// stdout, structured JSON in an optional log file.
package logging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
)

// multiHandler fans records out to multiple handlers.
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, handler := range h.handlers {
		if err := handler.Handle(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}

// Setup creates the logger. When logPath is empty only the stdout text
// handler is installed and the returned file is nil.
func Setup(level slog.Level, logPath string) (*slog.Logger, *os.File, error) {
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})

	if logPath == "" {
		return slog.New(textHandler), nil, nil
	}

	if dir := filepath.Dir(logPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, nil, err
		}
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}

	jsonHandler := slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: level})
	logger := slog.New(&multiHandler{handlers: []slog.Handler{textHandler, jsonHandler}})

	return logger, logFile, nil
}
