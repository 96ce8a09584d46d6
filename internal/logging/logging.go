// Package logging builds the charmbracelet/log logger shared by the client.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// ParseLevel maps a level name to a log.Level. Unknown names mean info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// New returns a text logger writing to w.
func New(w io.Writer, level string) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           ParseLevel(level),
		Formatter:       log.TextFormatter,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "tada",
	})
}

// Open picks the log destination. One-shot commands log to stderr; the
// TUI owns the terminal, so it logs to path when set and nowhere otherwise.
// The returned close func is never nil.
func Open(path, level string, interactive bool) (*log.Logger, func() error, error) {
	noop := func() error { return nil }
	if path == "" {
		if interactive {
			return New(io.Discard, level), noop, nil
		}
		return New(os.Stderr, level), noop, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, noop, fmt.Errorf("open log file: %w", err)
	}
	return New(f, level), f.Close, nil
}
