package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexttodo/internal/task"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	// Flag variables outlive a single Execute.
	listSearch, listCategory, listOutput = "", "all", "table"
	addNote, addPriority, addDue, addCategory = "", "medium", "", "work"

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	return out.String()
}

func writeConfig(t *testing.T, store string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := "store = \"" + store + "\"\nlog_level = \"error\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestAddListDoneRoundTrip(t *testing.T) {
	for _, store := range []string{"sqlite", "file"} {
		t.Run(store, func(t *testing.T) {
			cfg := writeConfig(t, store)

			milkID := strings.TrimSpace(execute(t, "--config", cfg, "add", "Buy", "milk", "-c", "shopping"))
			require.NotEmpty(t, milkID)
			execute(t, "--config", cfg, "add", "Call mom", "-c", "personal", "-d", "2026-01-01T09:00", "-p", "high")

			var listed []task.Task
			require.NoError(t, json.Unmarshal([]byte(execute(t, "--config", cfg, "list", "-o", "json")), &listed))
			require.Len(t, listed, 2)
			assert.Equal(t, "Call mom", listed[0].Text, "due tasks first")
			assert.Equal(t, "Buy milk", listed[1].Text)

			require.NoError(t, json.Unmarshal([]byte(execute(t, "--config", cfg, "list", "-o", "json", "-c", "shopping")), &listed))
			require.Len(t, listed, 1)

			out := execute(t, "--config", cfg, "done", strings.ToLower(milkID))
			assert.Contains(t, out, "Buy milk")

			require.NoError(t, json.Unmarshal([]byte(execute(t, "--config", cfg, "list", "-o", "json")), &listed))
			require.Len(t, listed, 1)
			assert.Equal(t, "Call mom", listed[0].Text)
		})
	}
}

func TestWriteTasksTable(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	err := writeTasks(&buf, []task.Task{
		{ID: "01A", Text: "Buy milk", Priority: task.PriorityLow, Category: task.CategoryShopping},
		{ID: "01B", Text: "Call mom", Priority: task.PriorityHigh, Category: task.CategoryPersonal, DueDate: "2026-01-01T09:00"},
	}, "table")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "TITLE")
	assert.Contains(t, lines[1], "-")
	assert.Contains(t, lines[2], "2026-01-01 09:00")
}

func TestWriteTasksYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeTasks(&buf, []task.Task{{ID: "01A", Text: "Buy milk", Category: task.CategoryShopping}}, "yaml"))
	assert.Contains(t, buf.String(), "text: Buy milk")
	assert.Contains(t, buf.String(), "category: shopping")
}

func TestWriteTasksUnknownFormat(t *testing.T) {
	assert.Error(t, writeTasks(&bytes.Buffer{}, nil, "xml"))
}

func TestFindByPrefix(t *testing.T) {
	tasks := []task.Task{{ID: "01ABC"}, {ID: "01ABD"}, {ID: "01XYZ"}}

	got, err := findByPrefix(tasks, "01x")
	require.NoError(t, err)
	assert.Equal(t, "01XYZ", got.ID)

	_, err = findByPrefix(tasks, "01AB")
	assert.ErrorContains(t, err, "matches 2")

	_, err = findByPrefix(tasks, "zz")
	assert.Error(t, err)

	_, err = findByPrefix(tasks, " ")
	assert.Error(t, err)
}
