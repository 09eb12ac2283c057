package secrets

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	t.Setenv(EnvMasterPassphrase, "test-passphrase")

	path := filepath.Join(t.TempDir(), "secrets.enc")
	store, err := NewStore(path)
	require.NoError(t, err)

	payload := map[string]string{
		"KIS_APPKEY":    "PSabcdef1234567890",
		"KIS_APPSECRET": "secret-value",
	}
	require.NoError(t, store.Save(payload))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, payload, loaded)
}

func TestStoreLoadMissingFile(t *testing.T) {
	t.Setenv(EnvMasterPassphrase, "test-passphrase")

	store, err := NewStore(filepath.Join(t.TempDir(), "none.enc"))
	require.NoError(t, err)

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestStoreRequiresPassphrase(t *testing.T) {
	t.Setenv(EnvMasterPassphrase, "")

	_, err := NewStore(filepath.Join(t.TempDir(), "secrets.enc"))
	assert.Error(t, err)
}

func TestStoreWrongPassphraseFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.enc")

	t.Setenv(EnvMasterPassphrase, "first")
	store, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(map[string]string{"k": "v"}))

	t.Setenv(EnvMasterPassphrase, "second")
	other, err := NewStore(path)
	require.NoError(t, err)

	_, err = other.Load()
	assert.Error(t, err)
}

func TestMaskedView(t *testing.T) {
	t.Setenv(EnvMasterPassphrase, "test-passphrase")

	store, err := NewStore(filepath.Join(t.TempDir(), "secrets.enc"))
	require.NoError(t, err)
	require.NoError(t, store.Save(map[string]string{
		"long":  "abcdefgh",
		"short": "abc",
	}))

	masked, err := store.MaskedView()
	require.NoError(t, err)
	assert.Equal(t, "ab****gh", masked["long"])
	assert.Equal(t, "***", masked["short"])
}
