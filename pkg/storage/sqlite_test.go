package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "webgate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewCreatesSchema(t *testing.T) {
	store := newTestStore(t)

	version, err := store.GetSchemaVersion()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, version, 2)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "webgate.db")

	store, err := New(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening the same file must not re-run applied migrations.
	store, err = New(dbPath)
	require.NoError(t, err)
	defer store.Close()

	version, err := store.GetSchemaVersion()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, version, 2)
}

func TestSettingsRoundTrip(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.SetSetting("autoplay_enabled", "true"))
	require.NoError(t, store.SetSetting("drm_decision", "allow"))

	got, err := store.GetSettings([]string{"autoplay_enabled", "drm_decision", "missing"})
	require.NoError(t, err)
	assert.Equal(t, "true", got["autoplay_enabled"])
	assert.Equal(t, "allow", got["drm_decision"])
	_, ok := got["missing"]
	assert.False(t, ok)
}

func TestSetSettingOverwrites(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.SetSetting("drm_decision", "allow"))
	require.NoError(t, store.SetSetting("drm_decision", "deny"))

	got, err := store.GetSettings([]string{"drm_decision"})
	require.NoError(t, err)
	assert.Equal(t, "deny", got["drm_decision"])
}

func TestSetSettingEmptyValueDeletes(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.SetSetting("webxr_enabled", "false"))
	require.NoError(t, store.SetSetting("webxr_enabled", ""))

	got, err := store.GetSettings([]string{"webxr_enabled"})
	require.NoError(t, err)
	assert.Empty(t, got)
}
