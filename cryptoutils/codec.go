package cryptoutils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

const gcmNonceSize = 12

var (
	ErrInvalidKeySize  = errors.New("symmetric key must be 16, 24 or 32 bytes")
	ErrCiphertextShort = errors.New("ciphertext too short")
)

// GenerateDataKey returns a random AES-256 key suitable for EncryptMessage.
func GenerateDataKey() ([]byte, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return key, nil
}

// EncryptMessage seals data with AES-GCM under key.
// Format: [iv (12 bytes)][ciphertext][tag (16 bytes)]
func EncryptMessage(key []byte, data []byte) ([]byte, error) {
	aesGCM, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	iv := make([]byte, gcmNonceSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, fmt.Errorf("failed to generate IV: %w", err)
	}

	return aesGCM.Seal(iv, iv, data, nil), nil
}

// DecryptMessage opens a payload produced by EncryptMessage.
func DecryptMessage(key []byte, encryptedData []byte) ([]byte, error) {
	aesGCM, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if len(encryptedData) < gcmNonceSize+aesGCM.Overhead() {
		return nil, ErrCiphertextShort
	}

	plaintext, err := aesGCM.Open(nil, encryptedData[:gcmNonceSize], encryptedData[gcmNonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}

	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, ErrInvalidKeySize
	}

	aesBlock, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(aesBlock)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aesGCM, nil
}
