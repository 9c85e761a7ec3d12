package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestCredentialStoreWithKeyring(t *testing.T) {
	keyring.MockInit()
	dir := t.TempDir()
	store := NewCredentialStoreAt(dir)

	token, err := store.Token()
	require.NoError(t, err)
	assert.Empty(t, token)

	data, err := store.UserData()
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, store.Save(" tok-1 ", []byte(`{"id":"u1"}`)))

	token, err = store.Token()
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	_, err = os.Stat(filepath.Join(dir, tokenFileName))
	assert.True(t, os.IsNotExist(err), "token should live in the keyring, not on disk")

	data, err = store.UserData()
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"u1"}`, string(data))

	require.NoError(t, store.Clear())

	token, err = store.Token()
	require.NoError(t, err)
	assert.Empty(t, token)
	data, err = store.UserData()
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestCredentialStoreFileFallback(t *testing.T) {
	keyring.MockInitWithError(keyring.ErrUnsupportedPlatform)
	t.Cleanup(keyring.MockInit)

	dir := t.TempDir()
	store := NewCredentialStoreAt(dir)

	require.NoError(t, store.Save("file-token", []byte(`{}`)))

	info, err := os.Stat(filepath.Join(dir, tokenFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	token, err := store.Token()
	require.NoError(t, err)
	assert.Equal(t, "file-token", token)

	require.NoError(t, store.Clear())
	token, err = store.Token()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestCredentialStoreSaveWithoutToken(t *testing.T) {
	keyring.MockInit()
	store := NewCredentialStoreAt(t.TempDir())

	require.NoError(t, store.Save("old", []byte(`{}`)))
	require.NoError(t, store.Save("", []byte(`{"id":"u2"}`)))

	token, err := store.Token()
	require.NoError(t, err)
	assert.Empty(t, token, "an empty token replaces the previous one")
}
