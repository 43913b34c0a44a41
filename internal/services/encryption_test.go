package services

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAESEncryptorRoundTrip(t *testing.T) {
	enc := testEncryptor()

	plaintext := []byte("the quick brown fox")
	blob, err := enc.Encrypt(plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, blob)

	out, err := enc.Decrypt(blob)
	require.NoError(t, err)
	assert.Equal(t, plaintext, out)

	// Fresh nonce per call: same plaintext, different ciphertext.
	blob2, err := enc.Encrypt(plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, blob, blob2)
}

func TestAESEncryptorWrongKeyFails(t *testing.T) {
	enc := testEncryptor()
	other, err := NewAESEncryptor(base64.StdEncoding.EncodeToString(make([]byte, 32)))
	require.NoError(t, err)
	assert.NotEqual(t, enc.KeyID(), other.KeyID())

	blob, err := enc.Encrypt([]byte("secret"))
	require.NoError(t, err)

	_, err = other.Decrypt(blob)
	assert.Error(t, err)
}

func TestAESEncryptorTamperDetected(t *testing.T) {
	enc := testEncryptor()
	blob, err := enc.Encrypt([]byte("secret"))
	require.NoError(t, err)

	blob[len(blob)-1] ^= 0xff
	_, err = enc.Decrypt(blob)
	assert.Error(t, err)
}

func TestAESEncryptorRejectsBadKeys(t *testing.T) {
	_, err := NewAESEncryptor("not base64!!!")
	assert.Error(t, err)

	_, err = NewAESEncryptor(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.Error(t, err)
}

func TestAESEncryptorRejectsShortBlob(t *testing.T) {
	enc := testEncryptor()
	_, err := enc.Decrypt([]byte{1, 2, 3})
	assert.Error(t, err)
}
