package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiendita/storefront/internal/core/domain"
	"github.com/tiendita/storefront/internal/core/ports"
)

func TestSessionStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	s := NewSessionStorage(path)

	empty, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, empty.Identity)
	assert.Empty(t, empty.Token)

	stored := ports.StoredSession{
		Identity: &domain.Identity{ID: "u1", Name: "Jane", Email: "jane@example.com", Role: domain.RoleClient},
		Token:    "tok",
	}
	require.NoError(t, s.Save(ctx, stored))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(filePerm), info.Mode().Perm())

	got, err := NewSessionStorage(path).Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got.Identity)
	assert.Equal(t, *stored.Identity, *got.Identity)
	assert.Equal(t, "tok", got.Token)

	require.NoError(t, s.Clear(ctx))
	require.NoError(t, s.Clear(ctx))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestSessionStorage_PartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"token":"orphan"}`), 0o600))

	got, err := NewSessionStorage(path).Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got.Identity)
	assert.Equal(t, "orphan", got.Token)
}

func TestSessionStorage_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"user":`), 0o600))

	_, err := NewSessionStorage(path).Load(context.Background())
	assert.Error(t, err)
}

func TestSessionStorage_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	s := NewSessionStorage(filepath.Join(dir, "session.json"))
	require.NoError(t, s.Save(context.Background(), ports.StoredSession{Token: "a"}))
	require.NoError(t, s.Save(context.Background(), ports.StoredSession{Token: "b"}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
