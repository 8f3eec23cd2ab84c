// Package logging builds the application's charmbracelet/log logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

const prefix = "todo"

// ParseLevel maps a config level name to a log.Level; unknown names are info.
func ParseLevel(v string) log.Level {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(v)))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// New returns a logger writing to w.
func New(w io.Writer, level string) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           ParseLevel(level),
		ReportTimestamp: true,
		Prefix:          prefix,
	})
}

// OpenFile returns a logger appending logfmt lines to path. An empty path
// discards everything, which keeps a full-screen UI clean.
func OpenFile(path, level string) (*log.Logger, io.Closer, error) {
	if path == "" {
		return New(io.Discard, level), io.NopCloser(nil), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	l := New(f, level)
	l.SetFormatter(log.LogfmtFormatter)
	return l, f, nil
}
