// Package testutil contains utilities for testing.
package testutil

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// CorruptDocument is a truncated, unparseable quiz document.
const CorruptDocument = `{"availaT00:00:00","id90": "0523456e293e3d46ceaa60e5a9b27653","last_updatT19:32:22.272055","see quiz 1",are Engineering - Quiz 1"}]`

// SignalCtx returns a context that is canceled when the test is interrupted
// (e.g., via the Stop button in an IDE).
func SignalCtx(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	ctx, stop := signal.NotifyContext(t.Context(), os.Interrupt)
	t.Cleanup(stop)

	return ctx, stop
}

// TestWriter is an io.Writer that forwards writes to tb.Log.
// It is thread-safe and ensures logs are captured by the test runner.
type TestWriter struct {
	tb testing.TB
	mu sync.Mutex
}

// NewTestWriter creates a new TestWriter that forwards writes to tb.Log.
func NewTestWriter(tb testing.TB) *TestWriter {
	tb.Helper()

	return &TestWriter{tb: tb}
}

// Write forwards writes to tb.Log.
func (w *TestWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.tb.Logf("%s", string(p))

	return len(p), nil
}

// Logger returns a debug-level logger that writes to the test log.
func Logger(tb testing.TB) *slog.Logger {
	tb.Helper()

	return slog.New(slog.NewTextHandler(NewTestWriter(tb), &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// Date returns midnight UTC on the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// WriteFile writes content to path, creating parent directories, and fails the test on error.
func WriteFile(tb testing.TB, path, content string) {
	tb.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		tb.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		tb.Fatalf("failed to write %s: %v", path, err)
	}
}

// ReadFile returns the content of path and fails the test on error.
func ReadFile(tb testing.TB, path string) string {
	tb.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		tb.Fatalf("failed to read %s: %v", path, err)
	}

	return string(data)
}
