package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcher_DebouncesRapidWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 0\n"), 0o644))

	w, err := New(path)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	w.debounce = 80 * time.Millisecond

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("version: 0\n"), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-w.Reload():
	case <-time.After(2 * time.Second):
		t.Fatal("expected a reload signal after the debounce window")
	}

	select {
	case <-w.Reload():
		t.Fatal("five rapid writes should coalesce into a single reload signal")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 0\n"), 0o644))

	w, err := New(path)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	w.debounce = 80 * time.Millisecond

	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0o644))

	select {
	case <-w.Reload():
		t.Fatal("unrelated file write must not trigger a reload")
	case <-time.After(300 * time.Millisecond):
	}
}
