// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging provides the application logger.
//
// chatmc owns the terminal while running, so logs go to a file under the
// app directory instead of stderr. The logger is exposed as a minimal
// interface so packages do not depend on the backing implementation.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gookit/slog"
	"github.com/gookit/slog/handler"
)

// Logger is the minimal logging interface used across the application.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// New creates a file-backed logger writing at the given minimum level
// ("debug", "info", "warn", "error"). The parent directory is created if
// missing. Closing is handled by process exit; log writes are line-buffered.
func New(path, level string) (Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logLevel := slog.LevelByName(strings.ToLower(level))

	var levels slog.Levels
	for _, lv := range slog.AllLevels {
		if lv <= logLevel {
			levels = append(levels, lv)
		}
	}

	h, err := handler.NewFileHandler(path, handler.WithLogLevels(levels))
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	formatter := slog.NewTextFormatter()
	formatter.TimeFormat = "2006-01-02T15:04:05"
	h.SetFormatter(formatter)

	return slog.NewWithHandlers(h), nil
}

// nopLogger discards everything.
type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

// Nop returns a logger that discards all output. Used in tests and as a
// fallback when the log file cannot be opened.
func Nop() Logger {
	return nopLogger{}
}
