package cryptox

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stringsReader(s string) *strings.Reader {
	return strings.NewReader(s)
}

func TestSigningKey_WriteReadRoundTrip(t *testing.T) {
	key, err := GenerateSigningKey()
	require.NoError(t, err)
	assert.Regexp(t, `^a_[0-9a-f]{4}$`, key.Version)

	var buf bytes.Buffer
	require.NoError(t, WriteSigningKey(&buf, key))
	assert.Regexp(t, `^ed25519 a_[0-9a-f]{4} [A-Za-z0-9+/]{43}\n$`, buf.String())

	keys, err := ReadSigningKeys(&buf)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, key.Version, keys[0].Version)
	assert.True(t, key.Key.Equal(keys[0].Key))
}

func TestReadSigningKeys_KnownSeed(t *testing.T) {
	key := testKey(t)
	assert.Equal(t, "ed25519:1", key.KeyID())
	assert.Equal(t, "XGX0JRS2Af3be3knz2fBiRbApjm2Dh61gXDJA8kcJNI", EncodeBase64(key.Public()))
}

func TestReadSigningKeys_Malformed(t *testing.T) {
	for _, in := range []string{
		"ed25519 1",
		"rsa 1 " + testSeed,
		"ed25519 1 !!!",
		"ed25519 1 Zm9v",
	} {
		_, err := ReadSigningKeys(strings.NewReader(in))
		assert.ErrorIs(t, err, ErrMalformedKey, in)
	}
}

func TestReadSigningKeys_SkipsBlankLines(t *testing.T) {
	keys, err := ReadSigningKeys(strings.NewReader("\ned25519 1 " + testSeed + "\n\ned25519 2 " + testSeed + "\n"))
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Equal(t, "2", keys[1].Version)
}

func TestLoadOrCreateSigningKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "homeserver.signing.key")

	created, isNew, err := LoadOrCreateSigningKey(path)
	require.NoError(t, err)
	assert.True(t, isNew)

	loaded, isNew, err := LoadOrCreateSigningKey(path)
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, created.Version, loaded.Version)
	assert.True(t, created.Key.Equal(loaded.Key))

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())
}

func TestLoadOrCreateSigningKey_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.key")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	_, _, err := LoadOrCreateSigningKey(path)
	require.ErrorIs(t, err, ErrNoKeys)
}
