package auth

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFileStore(t *testing.T) *EncryptedFileStore {
	t.Helper()
	store, err := NewEncryptedFileStore(filepath.Join(t.TempDir(), "credentials.enc"))
	require.NoError(t, err)
	return store
}

func TestEncryptedStoreRoundTrip(t *testing.T) {
	store := newFileStore(t)

	creds := &Credentials{
		Profile:   "default",
		APIKey:    "key-123",
		APISecret: "secret-456",
		UserID:    "12345678@N00",
	}
	require.NoError(t, store.Store(creds))

	got, err := store.Retrieve("default")
	require.NoError(t, err)
	assert.Equal(t, "key-123", got.APIKey)
	assert.Equal(t, "secret-456", got.APISecret)
	assert.Equal(t, "12345678@N00", got.UserID)
}

func TestEncryptedStoreMultipleProfiles(t *testing.T) {
	store := newFileStore(t)

	require.NoError(t, store.Store(&Credentials{Profile: "work", APIKey: "k1", APISecret: "s1"}))
	require.NoError(t, store.Store(&Credentials{Profile: "personal", APIKey: "k2", APISecret: "s2"}))

	work, err := store.Retrieve("work")
	require.NoError(t, err)
	assert.Equal(t, "k1", work.APIKey)

	personal, err := store.Retrieve("personal")
	require.NoError(t, err)
	assert.Equal(t, "k2", personal.APIKey)
}

func TestEncryptedStoreMissingProfile(t *testing.T) {
	store := newFileStore(t)

	_, err := store.Retrieve("nope")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
	assert.False(t, store.Exists("nope"))
}

func TestEncryptedStoreDelete(t *testing.T) {
	store := newFileStore(t)

	require.NoError(t, store.Store(&Credentials{Profile: "default", APIKey: "k", APISecret: "s"}))
	require.True(t, store.Exists("default"))

	require.NoError(t, store.Delete("default"))
	assert.False(t, store.Exists("default"))
	assert.ErrorIs(t, store.Delete("default"), ErrCredentialsNotFound)
}

func TestEncryptedStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.enc")

	first, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	require.NoError(t, first.Store(&Credentials{Profile: "default", APIKey: "k", APISecret: "s"}))

	second, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	got, err := second.Retrieve("default")
	require.NoError(t, err)
	assert.Equal(t, "k", got.APIKey)
}

func TestEnvironmentStoreReadsVariables(t *testing.T) {
	t.Setenv("FLICKR_API_KEY", "env-key")
	t.Setenv("FLICKR_API_SECRET", "env-secret")
	t.Setenv("FLICKR_USER_ID", "99@N00")

	store := NewEnvironmentStore()
	require.True(t, store.Exists("default"))

	creds, err := store.Retrieve("default")
	require.NoError(t, err)
	assert.Equal(t, "env-key", creds.APIKey)
	assert.Equal(t, "env-secret", creds.APISecret)
	assert.Equal(t, "99@N00", creds.UserID)
}

func TestEnvironmentStoreRejectsWrites(t *testing.T) {
	store := NewEnvironmentStore()
	assert.ErrorIs(t, store.Store(&Credentials{Profile: "default"}), ErrInvalidCredentials)
}

func TestManagerValidatesCredentials(t *testing.T) {
	m := NewManagerWithStores(newFileStore(t))

	err := m.Store(&Credentials{APIKey: "k", APISecret: "s"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	err = m.Store(&Credentials{Profile: "default", APIKey: "k"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestManagerFallsBackAcrossStores(t *testing.T) {
	primary := newFileStore(t)
	secondary := newFileStore(t)
	require.NoError(t, secondary.Store(&Credentials{Profile: "default", APIKey: "k", APISecret: "s"}))

	m := NewManagerWithStores(primary, secondary)

	creds, err := m.Retrieve("default")
	require.NoError(t, err)
	assert.Equal(t, "k", creds.APIKey)
}

func TestManagerDeleteRemovesEverywhere(t *testing.T) {
	a := newFileStore(t)
	b := newFileStore(t)
	require.NoError(t, a.Store(&Credentials{Profile: "default", APIKey: "k", APISecret: "s"}))
	require.NoError(t, b.Store(&Credentials{Profile: "default", APIKey: "k", APISecret: "s"}))

	m := NewManagerWithStores(a, b)
	require.NoError(t, m.Delete("default"))
	assert.False(t, m.Exists("default"))

	assert.ErrorIs(t, m.Delete("default"), ErrCredentialsNotFound)
}

func TestManagerStoreSetsLastModified(t *testing.T) {
	m := NewManagerWithStores(newFileStore(t))
	creds := &Credentials{Profile: "default", APIKey: "k", APISecret: "s"}
	require.NoError(t, m.Store(creds))
	assert.False(t, creds.LastModified.IsZero())
}
