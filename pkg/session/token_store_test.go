package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEncryptedStore(t *testing.T) *EncryptedFileStore {
	t.Helper()
	t.Setenv("INSTAVIEW_PASSPHRASE", "test-passphrase")

	store, err := NewEncryptedFileStore(filepath.Join(t.TempDir(), "session.enc"))
	require.NoError(t, err)
	return store
}

func TestEncryptedFileStoreRoundTrip(t *testing.T) {
	store := newTestEncryptedStore(t)

	saved := &StoredSession{
		Email:        "a@b.c",
		AccessToken:  "access-123",
		RefreshToken: "refresh-456",
	}
	require.NoError(t, store.Save(saved))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", loaded.Email)
	assert.Equal(t, "access-123", loaded.AccessToken)
	assert.Equal(t, "refresh-456", loaded.RefreshToken)
}

func TestEncryptedFileStoreTokensNotInPlaintext(t *testing.T) {
	store := newTestEncryptedStore(t)

	require.NoError(t, store.Save(&StoredSession{AccessToken: "super-secret-token"}))

	content, err := os.ReadFile(store.filepath)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "super-secret-token")
}

func TestEncryptedFileStoreLoadMissing(t *testing.T) {
	store := newTestEncryptedStore(t)

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestEncryptedFileStoreClear(t *testing.T) {
	store := newTestEncryptedStore(t)

	require.NoError(t, store.Save(&StoredSession{AccessToken: "access-123"}))
	require.NoError(t, store.Clear())

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// Clearing twice is fine.
	assert.NoError(t, store.Clear())
}

func TestEncryptedFileStoreWrongPassphrase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.enc")

	t.Setenv("INSTAVIEW_PASSPHRASE", "first")
	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(&StoredSession{AccessToken: "access-123"}))

	t.Setenv("INSTAVIEW_PASSPHRASE", "second")
	store2, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	_, err = store2.Load()
	assert.Error(t, err)
}

func TestEnvStore(t *testing.T) {
	t.Setenv("INSTAVIEW_ACCESS_TOKEN", "env-access")
	t.Setenv("INSTAVIEW_REFRESH_TOKEN", "env-refresh")
	t.Setenv("INSTAVIEW_EMAIL", "env@b.c")

	store := NewEnvStore()

	s, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "env-access", s.AccessToken)
	assert.Equal(t, "env-refresh", s.RefreshToken)
	assert.Equal(t, "env@b.c", s.Email)

	assert.ErrorIs(t, store.Save(&StoredSession{}), ErrStoreUnavailable)
	assert.ErrorIs(t, store.Clear(), ErrStoreUnavailable)
}

func TestEnvStoreMissing(t *testing.T) {
	t.Setenv("INSTAVIEW_ACCESS_TOKEN", "")

	_, err := NewEnvStore().Load()
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStoreManagerFallsBackToFile(t *testing.T) {
	t.Setenv("INSTAVIEW_PASSPHRASE", "test-passphrase")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("INSTAVIEW_ACCESS_TOKEN", "")

	manager, err := NewStoreManager()
	require.NoError(t, err)

	saved := &StoredSession{Email: "a@b.c", AccessToken: "access-123"}
	require.NoError(t, manager.Save(saved))

	loaded, err := manager.Load()
	require.NoError(t, err)
	assert.Equal(t, "access-123", loaded.AccessToken)

	require.NoError(t, manager.Clear())
	_, err = manager.Load()
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStoreManagerRejectsEmptyToken(t *testing.T) {
	manager := &StoreManager{stores: []TokenStore{NewEnvStore()}}

	assert.Error(t, manager.Save(nil))
	assert.Error(t, manager.Save(&StoredSession{}))
}
