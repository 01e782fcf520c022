package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads", "docs")
	_, err := New(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestPathRejectsTraversal(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = store.Path("../etc/passwd")
	assert.Error(t, err)
	_, err = store.Path("")
	assert.Error(t, err)
	_, err = store.Path("sub/dir/file.pdf")
	assert.Error(t, err)
}

func TestPathAndRemove(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	require.NoError(t, err)

	name := "0b1c2d3e.pdf"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("data"), 0o644))

	path, err := store.Path(name)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, name), path)

	require.NoError(t, store.Remove(name))
	_, err = store.Path(name)
	assert.Error(t, err)

	// Повторное удаление не ошибка: файла просто уже нет.
	assert.NoError(t, store.Remove(name))
	assert.Error(t, store.Remove("../outside"))
}
