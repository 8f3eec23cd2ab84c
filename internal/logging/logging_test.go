package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, log.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, log.WarnLevel, ParseLevel(" warn "))
	assert.Equal(t, log.InfoLevel, ParseLevel("chatty"))
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn")
	l.Info("hidden")
	l.Warn("shown", "id", "01H")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "id=01H")
}

func TestOpenFileAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "todo.log")

	l, c, err := OpenFile(path, "info")
	require.NoError(t, err)
	l.Info("alarm fired", "text", "Call mom")
	require.NoError(t, c.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "alarm fired")
	assert.Contains(t, string(data), `text="Call mom"`)
}

func TestOpenFileEmptyPathDiscards(t *testing.T) {
	l, c, err := OpenFile("", "debug")
	require.NoError(t, err)
	l.Info("nowhere")
	assert.NoError(t, c.Close())
}
