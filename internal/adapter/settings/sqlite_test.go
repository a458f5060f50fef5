package settings

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"installer-shell/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "state", "settings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

var acme = domain.SettingsScope{Publisher: "Acme", Product: "Tool"}

func TestSQLiteStore_GetMissing(t *testing.T) {
	s := newTestStore(t)
	v, ok, err := s.Get(context.Background(), acme, domain.SettingKeyPath)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestSQLiteStore_SetGetOverwrite(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, acme, domain.SettingKeyPath, "/opt"))
	require.NoError(t, s.Set(ctx, acme, domain.SettingKeyPath, "/srv"))

	v, ok, err := s.Get(ctx, acme, domain.SettingKeyPath)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/srv", v)
}

func TestSQLiteStore_ScopesAreIsolated(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	other := domain.SettingsScope{Publisher: "Acme", Product: "Other"}

	require.NoError(t, s.Set(ctx, acme, domain.SettingKeyPath, "/opt"))
	_, ok, err := s.Get(ctx, other, domain.SettingKeyPath)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStore_Remove(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, acme, domain.SettingKeyPath, "/opt"))
	require.NoError(t, s.Remove(ctx, acme, domain.SettingKeyPath))
	require.NoError(t, s.Remove(ctx, acme, domain.SettingKeyPath))

	_, ok, err := s.Get(ctx, acme, domain.SettingKeyPath)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStore_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, acme, domain.SettingKeyPath, "/opt"))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()
	v, ok, err := s.Get(ctx, acme, domain.SettingKeyPath)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/opt", v)
}

func TestSQLiteStore_ClosedStoreFails(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "settings.db"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	err = s.Set(context.Background(), acme, domain.SettingKeyPath, "/opt")
	assert.ErrorIs(t, err, domain.ErrSettingsStore)
	assert.Equal(t, domain.CodeSettingsStore, domain.ErrorCodeOf(err))
}
