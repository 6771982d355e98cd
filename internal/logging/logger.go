// Package logging provides leveled logging and decision tracing for verdant.
//   - NewLogger builds the operational slog.Logger (stderr, text or JSON).
//   - DecisionLogger appends simulation decisions (catch-up spans, season
//     rolls, crosses) to .verdant/decisions.jsonl at debug and trace levels.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LevelTrace is a custom slog level below Debug for per-plant detail.
const LevelTrace = slog.LevelDebug - 4

// DecisionFile is the decision log's file name.
const DecisionFile = "decisions.jsonl"

// DefaultMaxDecisionBytes is the size at which the decision log rotates.
const DefaultMaxDecisionBytes = 5 << 20

// ParseLevel maps a level name to a slog.Level.
// Supported values: "trace", "debug", "info", "warn", "error" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace
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

// NewLogger creates a leveled slog.Logger writing to w. format "json"
// selects the JSON handler; anything else uses text.
func NewLogger(level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// DecisionLogger writes structured decision events to a JSONL file.
// It is safe for concurrent use, and every method is a no-op on a nil receiver.
type DecisionLogger struct {
	mu       sync.Mutex
	path     string
	file     *os.File
	size     int64
	maxBytes int64
}

// NewDecisionLogger opens dir/decisions.jsonl for append. It returns nil at
// info level or above, or when the file cannot be opened.
func NewDecisionLogger(dir, level string) *DecisionLogger {
	if ParseLevel(level) > slog.LevelDebug {
		return nil
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil
	}

	path := filepath.Join(dir, DecisionFile)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil
	}
	var size int64
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}
	return &DecisionLogger{path: path, file: f, size: size, maxBytes: DefaultMaxDecisionBytes}
}

// SetMaxBytes changes the rotation threshold. n <= 0 disables rotation.
func (dl *DecisionLogger) SetMaxBytes(n int64) {
	if dl == nil {
		return
	}
	dl.mu.Lock()
	dl.maxBytes = n
	dl.mu.Unlock()
}

// Path returns the log file path, or "" for a nil logger.
func (dl *DecisionLogger) Path() string {
	if dl == nil {
		return ""
	}
	return dl.path
}

// Log writes event as one JSONL line with a "time" field added.
// The caller's map is not mutated.
func (dl *DecisionLogger) Log(event map[string]any) {
	if dl == nil {
		return
	}

	entry := make(map[string]any, len(event)+1)
	for k, v := range event {
		entry[k] = v
	}
	entry["time"] = time.Now().UTC().Format(time.RFC3339Nano)

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	data = append(data, '\n')

	dl.mu.Lock()
	defer dl.mu.Unlock()
	if dl.file == nil {
		return
	}
	if dl.maxBytes > 0 && dl.size > 0 && dl.size+int64(len(data)) > dl.maxBytes {
		if err := dl.rotate(); err != nil {
			return
		}
	}
	n, _ := dl.file.Write(data)
	dl.size += int64(n)
}

// rotate moves the current file to decisions.jsonl.1 and reopens. Caller holds mu.
func (dl *DecisionLogger) rotate() error {
	dl.file.Close()
	dl.file = nil
	if err := os.Rename(dl.path, dl.path+".1"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("rotate decision log: %w", err)
	}
	f, err := os.OpenFile(dl.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("reopen decision log: %w", err)
	}
	dl.file = f
	dl.size = 0
	return nil
}

// Close closes the underlying file.
func (dl *DecisionLogger) Close() {
	if dl == nil {
		return
	}
	dl.mu.Lock()
	defer dl.mu.Unlock()
	if dl.file != nil {
		dl.file.Close()
		dl.file = nil
	}
}
