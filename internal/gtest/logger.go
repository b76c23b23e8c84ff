// Package gtest holds helpers shared by tests across the module.
package gtest

import (
	"io"
	"log/slog"
	"testing"

	"github.com/neilotoole/slogt"
)

// NewLogger returns a logger that writes through t.Log,
// so output is attributed to the test that produced it.
func NewLogger(t testing.TB) *slog.Logger {
	return slogt.New(t)
}

// NewDiscardLogger drops everything. Use it for components whose background
// goroutines may still log after the test has returned.
func NewDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
