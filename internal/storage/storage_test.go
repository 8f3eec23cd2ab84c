package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]KV {
	t.Helper()
	dir := t.TempDir()

	sq, err := OpenSQLite(filepath.Join(dir, "db", "todo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sq.Close() })

	fs, err := OpenFile(filepath.Join(dir, "files"))
	require.NoError(t, err)

	return map[string]KV{
		"memory": NewMemory(),
		"sqlite": sq,
		"file":   fs,
	}
}

func TestKVGetMissing(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := kv.Get(context.Background(), "my-todos")
			assert.ErrorIs(t, err, ErrNotFound)
			assert.EqualError(t, err, "my-todos: not found")
		})
	}
}

func TestKVSetOverwrites(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, kv.Set(ctx, "my-todos", []byte(`[{"text":"a"}]`)))
			require.NoError(t, kv.Set(ctx, "my-todos", []byte(`[]`)))

			got, err := kv.Get(ctx, "my-todos")
			require.NoError(t, err)
			assert.Equal(t, `[]`, string(got))
		})
	}
}

func TestSQLitePersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "todo.db")

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "k", []byte("v")))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))

	at, err := s.UpdatedAt(ctx, "k")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), at, time.Minute)
}

func TestOpenSQLiteEmptyPath(t *testing.T) {
	_, err := OpenSQLite("")
	assert.Error(t, err)
}

func TestFileRejectsPathKeys(t *testing.T) {
	fs, err := OpenFile(t.TempDir())
	require.NoError(t, err)

	err = fs.Set(context.Background(), "../escape", []byte("x"))
	assert.Error(t, err)
}

func TestMemoryCountsWrites(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Set(context.Background(), "a", []byte("1")))
	require.NoError(t, m.Set(context.Background(), "a", []byte("2")))
	assert.Equal(t, 2, m.Writes())
}

func TestFileSetLeavesOnlyTheList(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fs, err := OpenFile(dir)
	require.NoError(t, err)

	require.NoError(t, fs.Set(ctx, "my-todos", []byte(`[{"text":"a"}]`)))
	require.NoError(t, fs.Set(ctx, "my-todos", []byte(`[]`)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files are renamed or removed")
	assert.Equal(t, "my-todos.json", entries[0].Name())

	info, err := entries[0].Info()
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}
