package cryptoutils

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
)

// EnclavePubkey is a PKIX "PUBLIC KEY" PEM holding a P-256 key. Data keys
// are wrapped to it.
type EnclavePubkey []byte

// ECDSA parses the key, rejecting anything but P-256.
func (pub EnclavePubkey) ECDSA() (*ecdsa.PublicKey, error) {
	block, _ := pem.Decode(pub)
	if block == nil || block.Type != "PUBLIC KEY" {
		return nil, errors.New("invalid public key: expected a PUBLIC KEY PEM block")
	}

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("invalid public key structure: %w", err)
	}
	key, ok := parsed.(*ecdsa.PublicKey)
	if !ok || key.Curve != elliptic.P256() {
		return nil, fmt.Errorf("unsupported public key type %T, want P-256", parsed)
	}
	return key, nil
}

func (pub EnclavePubkey) Validate() error {
	_, err := pub.ECDSA()
	return err
}

// EnclavePrivkey is an "EC PRIVATE KEY" PEM.
type EnclavePrivkey []byte

func (priv EnclavePrivkey) ECDSA() (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode(priv)
	if block == nil || block.Type != "EC PRIVATE KEY" {
		return nil, errors.New("invalid private key: expected an EC PRIVATE KEY PEM block")
	}
	key, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("invalid private key structure: %w", err)
	}
	return key, nil
}

// RandomP256Keypair generates a fresh P-256 keypair.
func RandomP256Keypair() (EnclavePubkey, EnclavePrivkey, error) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, err
	}
	return MarshalP256Keypair(privateKey)
}

// MarshalP256Keypair encodes privateKey as PUBLIC KEY and EC PRIVATE KEY
// PEM blocks.
func MarshalP256Keypair(privateKey *ecdsa.PrivateKey) (EnclavePubkey, EnclavePrivkey, error) {
	privateKeyBytes, err := x509.MarshalECPrivateKey(privateKey)
	if err != nil {
		return nil, nil, err
	}
	pubkeyBytes, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	if err != nil {
		return nil, nil, err
	}

	return EnclavePubkey(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubkeyBytes})),
		EnclavePrivkey(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: privateKeyBytes})),
		nil
}
