// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

package config

import (
	"io"
	"log/slog"
	"strings"
)

// NewLogger builds the slog logger described by c. verbose forces debug.
func (c LoggingConfig) NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(c.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
