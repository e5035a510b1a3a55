package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	want := Document{ActiveMode: 3, ShutdownTime: time.Now().Truncate(time.Second)}
	require.NoError(t, Save(path, want))

	got := Load(path)
	assert.Equal(t, want.ActiveMode, got.ActiveMode)
	assert.True(t, want.ShutdownTime.Equal(got.ShutdownTime))
	assert.Equal(t, CurrentSchema, got.SchemaVersion)
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	got := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Equal(t, Defaults(), got)
}

func TestLoad_CorruptFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	got := Load(path)
	assert.Equal(t, Defaults(), got)
}

func TestLoad_ChecksumMismatchReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	require.NoError(t, Save(path, Document{ActiveMode: 5}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	tampered := append([]byte(nil), raw...)
	tampered[len(tampered)-3] = '0'
	require.NoError(t, os.WriteFile(path, tampered, 0o600))

	got := Load(path)
	assert.Equal(t, Defaults(), got)
}

func TestSave_FileIsOwnerOnly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	require.NoError(t, Save(path, Document{ActiveMode: 1}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
