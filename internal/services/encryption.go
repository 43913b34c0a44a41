package services

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// EncryptionAlgorithm is recorded in every encryption descriptor.
const EncryptionAlgorithm = "AES-256-GCM"

// AESEncryptor encrypts blobs at rest with AES-256-GCM. A fresh random nonce
// is generated per blob and prefixed to the ciphertext. The key itself is
// never persisted; descriptors carry only KeyID.
type AESEncryptor struct {
	key   []byte
	gcm   cipher.AEAD
	keyID string
}

// NewAESEncryptor parses a base64-encoded 32-byte key, normally loaded from
// configuration or a key management service.
func NewAESEncryptor(base64Key string) (*AESEncryptor, error) {
	key, err := base64.StdEncoding.DecodeString(base64Key)
	if err != nil {
		return nil, fmt.Errorf("encryption key is not valid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	// Key identifier: fingerprint of the key, not the key.
	digest := sha256.Sum256(key)
	return &AESEncryptor{
		key:   key,
		gcm:   gcm,
		keyID: hex.EncodeToString(digest[:8]),
	}, nil
}

// KeyID identifies which key encrypted a blob.
func (e *AESEncryptor) KeyID() string {
	return e.keyID
}

// Encrypt seals plaintext and returns nonce||ciphertext.
func (e *AESEncryptor) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, e.gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return e.gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens a blob produced by Encrypt.
func (e *AESEncryptor) Decrypt(blob []byte) ([]byte, error) {
	if len(blob) < e.gcm.NonceSize() {
		return nil, fmt.Errorf("encrypted blob too short")
	}
	nonce, ciphertext := blob[:e.gcm.NonceSize()], blob[e.gcm.NonceSize():]
	plaintext, err := e.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt blob: %w", err)
	}
	return plaintext, nil
}
