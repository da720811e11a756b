package main

import (
	"log/slog"
	"os"
)

// NewLogger returns a structured slog.Logger on stderr with the given level.
// Stdout is reserved for the selection result.
func NewLogger(level slog.Leveler, json bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if json {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
