package kms

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/ruteri/tee-workorder-service/cryptoutils"
	"github.com/ruteri/tee-workorder-service/interfaces"
	"golang.org/x/crypto/hkdf"
)

const (
	encryptionKeyLabel = "tee-workorder/encryption"
	signingKeyLabel    = "tee-workorder/signing"
)

// EnclaveKMS holds the enclave keys derived from a single seed: a P-256 key
// participants wrap data keys to, and a secp256k1 key signing responses.
type EnclaveKMS struct {
	seed []byte

	encryptionKey    *ecdsa.PrivateKey
	encryptionPubkey cryptoutils.EnclavePubkey
	signingKey       *ecdsa.PrivateKey

	attestationProvider cryptoutils.AttestationProvider
}

var _ interfaces.EnclaveKMS = (*EnclaveKMS)(nil)

// NewEnclaveKMS derives the enclave keys from seed, which must be at least
// 32 bytes. The same seed always yields the same keys.
func NewEnclaveKMS(seed []byte) (*EnclaveKMS, error) {
	if len(seed) < 32 {
		return nil, errors.New("enclave seed must be at least 32 bytes")
	}

	k := &EnclaveKMS{
		seed:                append([]byte(nil), seed...),
		attestationProvider: cryptoutils.DummyAttestationProvider{},
	}

	var err error
	k.encryptionKey, err = deriveP256Key(seed, encryptionKeyLabel)
	if err != nil {
		return nil, fmt.Errorf("failed to derive encryption key: %w", err)
	}
	k.encryptionPubkey, _, err = cryptoutils.MarshalP256Keypair(k.encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal encryption key: %w", err)
	}

	signingSeed, err := deriveBytes(seed, signingKeyLabel)
	if err != nil {
		return nil, fmt.Errorf("failed to derive signing key: %w", err)
	}
	k.signingKey, err = crypto.ToECDSA(signingSeed)
	if err != nil {
		return nil, fmt.Errorf("failed to derive signing key: %w", err)
	}

	return k, nil
}

// WithAttestationProvider creates a new EnclaveKMS with the same keys and the
// specified attestation provider.
func (k *EnclaveKMS) WithAttestationProvider(provider cryptoutils.AttestationProvider) *EnclaveKMS {
	newkms := *k
	newkms.attestationProvider = provider
	return &newkms
}

// EncryptionPubkey is the PEM public key data keys are wrapped to.
func (k *EnclaveKMS) EncryptionPubkey() cryptoutils.EnclavePubkey {
	return k.encryptionPubkey
}

// SigningAddress is the address enclave signatures recover to.
func (k *EnclaveKMS) SigningAddress() common.Address {
	return crypto.PubkeyToAddress(k.signingKey.PublicKey)
}

// UnwrapDataKey decrypts a data key wrapped with cryptoutils.EncryptWithPublicKey.
func (k *EnclaveKMS) UnwrapDataKey(encryptedKey []byte) ([]byte, error) {
	key, err := cryptoutils.DecryptWithECDSAKey(k.encryptionKey, encryptedKey)
	if err != nil {
		return nil, err
	}
	switch len(key) {
	case 16, 24, 32:
		return key, nil
	default:
		return nil, fmt.Errorf("unwrapped data key has invalid length %d", len(key))
	}
}

// Sign signs keccak256(payload || nonce) with a fresh random nonce. The
// signature is the 65-byte [R || S || V] form, hex encoded with 0x prefix.
func (k *EnclaveKMS) Sign(payload []byte) (string, string, error) {
	nonce := uuid.NewString()
	sig, err := crypto.Sign(SigningDigest(payload, nonce), k.signingKey)
	if err != nil {
		return "", "", err
	}
	return nonce, hexutil.Encode(sig), nil
}

// Info returns the enclave's public keys together with an attestation over
// EnclaveInfo.ReportData.
func (k *EnclaveKMS) Info() (interfaces.EnclaveInfo, error) {
	info := interfaces.EnclaveInfo{
		EncryptionPubkey: k.encryptionPubkey,
		SigningAddress:   k.SigningAddress(),
		AttestationType:  k.attestationProvider.AttestationType().String(),
	}

	attestation, err := k.attestationProvider.Attest(info.ReportData())
	if err != nil {
		return interfaces.EnclaveInfo{}, fmt.Errorf("failed to attest: %w", err)
	}
	info.Attestation = attestation
	return info, nil
}

// SigningDigest is the digest enclave signatures are computed over.
func SigningDigest(payload []byte, nonce string) []byte {
	return crypto.Keccak256(payload, []byte(nonce))
}

// VerifyEnclaveSignature checks that signature over payload and nonce was
// produced by the key behind address.
func VerifyEnclaveSignature(payload []byte, nonce string, signature string, address common.Address) error {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return fmt.Errorf("malformed signature: %w", err)
	}
	pub, err := crypto.SigToPub(SigningDigest(payload, nonce), sig)
	if err != nil {
		return fmt.Errorf("could not recover signer: %w", err)
	}
	if recovered := crypto.PubkeyToAddress(*pub); recovered != address {
		return fmt.Errorf("signature from %s, expected %s", recovered, address)
	}
	return nil
}

func deriveBytes(seed []byte, label string) ([]byte, error) {
	out := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, seed, nil, []byte(label)), out); err != nil {
		return nil, err
	}
	return out, nil
}

// deriveP256Key maps HKDF output onto a scalar in [1, n-1].
func deriveP256Key(seed []byte, label string) (*ecdsa.PrivateKey, error) {
	material, err := deriveBytes(seed, label)
	if err != nil {
		return nil, err
	}

	curve := elliptic.P256()
	nMinusOne := new(big.Int).Sub(curve.Params().N, big.NewInt(1))
	d := new(big.Int).SetBytes(material)
	d.Mod(d, nMinusOne)
	d.Add(d, big.NewInt(1))

	privateKey := &ecdsa.PrivateKey{
		PublicKey: ecdsa.PublicKey{Curve: curve},
		D:         d,
	}
	privateKey.PublicKey.X, privateKey.PublicKey.Y = curve.ScalarBaseMult(d.FillBytes(make([]byte, 32)))
	return privateKey, nil
}
