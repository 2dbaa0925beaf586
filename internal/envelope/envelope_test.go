package envelope

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpenRoundTrip(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	sealed, err := Seal([]byte(`{"hello":"world"}`), &key.PublicKey, "key-1")
	require.NoError(t, err)

	kid, err := Kid(sealed)
	require.NoError(t, err)
	assert.Equal(t, "key-1", kid)

	plaintext, err := Open(sealed, key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"hello":"world"}`, string(plaintext))
}

func TestOpen_WrongKeyFails(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	sealed, err := Seal([]byte("payload"), &key.PublicKey, "key-1")
	require.NoError(t, err)

	_, err = Open(sealed, other)
	assert.Error(t, err)
}
