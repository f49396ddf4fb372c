/*
Package kms holds the enclave's key material.

EnclaveKMS derives two keys from a 32-byte seed with HKDF-SHA256:

  - a P-256 encryption key; participants wrap per-item data keys to its
    public key with cryptoutils.EncryptWithPublicKey and UnwrapDataKey
    recovers them
  - a secp256k1 signing key; Sign signs keccak256(payload || nonce) and
    VerifyEnclaveSignature checks a signature against the signing address

Info attests both public keys through a cryptoutils.AttestationProvider.

The seed can be given directly, derived from a passphrase
(cryptoutils.DeriveSeed), or recovered from admin-held Shamir shares with
SeedRecovery.
*/
package kms
