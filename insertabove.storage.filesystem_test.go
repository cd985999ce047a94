package insertabove

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilesystemStorage_Contract(t *testing.T) {
	storage, err := NewFilesystemStorage(t.TempDir())
	require.NoError(t, err)
	runStorageContract(t, storage, false)
}

func TestFilesystemStorage_ServesExistingDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pages"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.html"), []byte(testBaseTemplate), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pages", "home.html"),
		[]byte(`{% extends "base.html" %}{% block content %}{% insert_str js "home.js" %}Home{% endblock %}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "HEAD"), []byte("ref"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.html"), []byte("x"), 0o644))

	storage, err := NewFilesystemStorage(dir)
	require.NoError(t, err)

	names, err := storage.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"base.html", "pages/home.html"}, names)

	engine := newTestEngine(t, WithStorage(storage), WithMediaPrefix(false))
	out, err := engine.Render(context.Background(), "pages/home.html", nil)
	require.NoError(t, err)
	assert.Equal(t, "<head><script type='text/javascript' src='home.js'></script></head><body>Home</body>", out)
}

func TestFilesystemStorage_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewFilesystemStorage(dir)
	require.NoError(t, err)

	require.NoError(t, storage.Save(context.Background(), &StoredTemplate{Name: "a.html", Source: "a"}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.html", entries[0].Name())
}

func TestNewFilesystemStorage_EmptyRoot(t *testing.T) {
	_, err := NewFilesystemStorage("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgEmptyConnString)
}
