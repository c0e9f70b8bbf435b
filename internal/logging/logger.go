// Package logging provides leveled logging and load tracing for vbcache.
// It offers two complementary outputs:
//   - A leveled slog.Logger for stderr (operational output)
//   - A LoadLogger for structured JSONL load traces (.vbcache/loads.jsonl)
package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LevelTrace is a custom slog level below Debug for full content logging.
// At this level, per-row reconciliation detail and raw table schemas are
// included.
const LevelTrace = slog.LevelDebug - 4

// ParseLevel maps a string level name to a slog.Level.
// Supported values: "info", "debug", "trace" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled slog.Logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Label the custom trace level
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// LoadLogger writes structured table-load and reconciliation events to a
// JSONL file. It is safe for concurrent use. A nil LoadLogger is safe to
// use; all methods are no-ops on nil receiver.
type LoadLogger struct {
	mu   sync.Mutex
	file *os.File
}

// NewLoadLogger creates a load logger writing to dir/loads.jsonl.
// At "info" level (the default), returns nil — no file is created.
// At "debug" or "trace" level, the file is opened for append.
// Returns nil if the file cannot be opened. All methods are nil-safe.
func NewLoadLogger(dir string, level string) *LoadLogger {
	lvl := ParseLevel(level)
	if lvl == slog.LevelInfo {
		return nil
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil
	}

	path := filepath.Join(dir, "loads.jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil
	}

	return &LoadLogger{file: f}
}

// Log writes a load event as a single JSONL line.
// A "time" field is added automatically. The caller's map is not mutated.
// Safe to call on nil receiver.
func (ll *LoadLogger) Log(event map[string]any) {
	if ll == nil || ll.file == nil {
		return
	}

	// Copy to avoid mutating caller's map
	entry := make(map[string]any, len(event)+1)
	for k, v := range event {
		entry[k] = v
	}
	entry["time"] = time.Now().UTC().Format(time.RFC3339Nano)

	ll.mu.Lock()
	defer ll.mu.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	data = append(data, '\n')
	_, _ = ll.file.Write(data)
}

// Close closes the underlying file. Safe to call on nil receiver.
func (ll *LoadLogger) Close() {
	if ll == nil || ll.file == nil {
		return
	}

	ll.mu.Lock()
	defer ll.mu.Unlock()

	ll.file.Close()
	ll.file = nil
}
