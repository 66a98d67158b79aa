package views

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherReloadsOnChange(t *testing.T) {
	root := t.TempDir()
	dir := NewDirectory(afero.NewOsFs(), root)
	repo, err := NewRepository()
	require.NoError(t, err)

	reloads := make(chan error, 16)
	w := NewWatcher(dir, repo, 20*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))
	w.OnReload = func(err error) {
		select {
		case reloads <- err:
		default:
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Wait for the watch to be installed: keep touching a file until a
	// reload shows up.
	path := filepath.Join(root, "photos.vql")
	require.Eventually(t, func() bool {
		if err := os.WriteFile(path, []byte(`SELECT "*.jpg"`), 0o644); err != nil {
			return false
		}
		select {
		case err := <-reloads:
			return err == nil
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	text, ok := repo.Lookup("photos")
	assert.True(t, ok)
	assert.Equal(t, `SELECT "*.jpg"`, text)

	require.NoError(t, os.WriteFile(filepath.Join(root, "ignored.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Remove(path))
	assert.Eventually(t, func() bool { return repo.Len() == 0 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcherMissingDirectory(t *testing.T) {
	dir := NewDirectory(afero.NewOsFs(), filepath.Join(t.TempDir(), "missing"))
	repo, err := NewRepository()
	require.NoError(t, err)

	err = NewWatcher(dir, repo, 0, nil).Run(context.Background())
	assert.Error(t, err)
}
