package diagnostics

import (
	"os"
	"testing"
	"time"

	"github.com/aleister1102/pagewatch/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetResourceUsage(t *testing.T) {
	usage := GetResourceUsage()

	assert.Positive(t, usage.Goroutines)
	assert.Positive(t, usage.HeapObjects)
}

func TestRecorder_SnapshotWithoutProfiles(t *testing.T) {
	r := NewRecorder(config.DiagnosticsConfig{Enabled: true}, zerolog.Nop())

	_, ok := r.Last()
	assert.False(t, ok)

	snap, err := r.Snapshot(time.Now())
	require.NoError(t, err)
	assert.Empty(t, snap.ProfilePath)

	last, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, snap.TakenAt, last.TakenAt)
}

func TestRecorder_RotatesProfiles(t *testing.T) {
	dir := t.TempDir()
	r := NewRecorder(config.DiagnosticsConfig{Enabled: true, HeapProfileDir: dir, MaxProfiles: 2}, zerolog.Nop())

	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	var paths []string
	for i := 0; i < 4; i++ {
		snap, err := r.Snapshot(base.Add(time.Duration(i) * time.Second))
		require.NoError(t, err)
		require.FileExists(t, snap.ProfilePath)
		paths = append(paths, snap.ProfilePath)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.NoFileExists(t, paths[0])
	assert.NoFileExists(t, paths[1])
	assert.FileExists(t, paths[3])
}

func TestRecorder_Disabled(t *testing.T) {
	dir := t.TempDir()
	r := NewRecorder(config.DiagnosticsConfig{Enabled: false, HeapProfileDir: dir}, zerolog.Nop())

	snap, err := r.Snapshot(time.Now())
	require.NoError(t, err)
	assert.Empty(t, snap.ProfilePath)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
