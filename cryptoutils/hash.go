package cryptoutils

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
)

var ErrHashMismatch = errors.New("sha256 hash mismatch")

// ComputeHash returns the SHA-256 digest of data.
func ComputeHash(data []byte) []byte {
	h := sha256.Sum256(data)
	return h[:]
}

// HashString is the wire form of a digest: lowercase hex.
func HashString(digest []byte) string {
	return hex.EncodeToString(digest)
}

// ParseHash decodes a wire digest. Hex (with or without 0x) and standard
// base64 are both accepted; anything that does not decode to 32 bytes fails.
func ParseHash(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x")); err == nil && len(raw) == sha256.Size {
		return raw, nil
	}
	if raw, err := base64.StdEncoding.DecodeString(s); err == nil && len(raw) == sha256.Size {
		return raw, nil
	}
	return nil, errors.New("hash must be 32 bytes in hex or base64")
}

// VerifyHash checks data against an expected digest in constant time.
func VerifyHash(data []byte, expected []byte) error {
	if subtle.ConstantTimeCompare(ComputeHash(data), expected) != 1 {
		return ErrHashMismatch
	}
	return nil
}
