// Package cryptoutils provides the cryptographic primitives used by the
// work-order enclave service.
//
// # Symmetric Codec
//
// Work-order data items are sealed with per-item AES-GCM keys:
//
//	[iv (12 bytes)][ciphertext][tag (16 bytes)]
//
// EncryptMessage and DecryptMessage accept 16, 24 or 32 byte keys.
// GenerateDataKey returns a fresh 32-byte key.
//
// # Hashing
//
// ComputeHash and VerifyHash operate on SHA-256 digests. Digests travel as
// lowercase hex (HashString); ParseHash also accepts base64.
//
// # Key Wrapping
//
// Data keys are wrapped to the enclave with ECIES:
//
//   - Elliptic curve (NIST P-256) for key exchange
//   - ECDH for shared secret derivation
//   - SHA-256 for key derivation
//   - AES-GCM for symmetric encryption with authenticated encryption
//   - Unique ephemeral keys for each encryption operation
//
// Format: [ephemeral key length (2 bytes)][ephemeral key][iv][ciphertext]
//
// # Attestation
//
// AttestationProvider produces quotes over 64 bytes of report data. DCAP
// (TDX) quotes are produced through go-tdx-guest and checked with
// VerifyDCAPAttestation.
package cryptoutils
