package kms

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/hashicorp/vault/shamir"
)

var (
	ErrAlreadyUnlocked   = errors.New("enclave seed already recovered")
	ErrUnknownAdmin      = errors.New("unregistered admin public key")
	ErrInvalidSignature  = errors.New("invalid share signature")
	ErrDuplicateShare    = errors.New("admin already submitted a share")
	ErrThresholdTooSmall = errors.New("threshold must be at least 2")
)

// SplitSeed splits the enclave seed into one share per admin, any threshold
// of which recover it. Shares are returned in admin order.
func SplitSeed(seed []byte, adminCount int, threshold int) ([][]byte, error) {
	if len(seed) < 32 {
		return nil, errors.New("enclave seed must be at least 32 bytes")
	}
	if threshold < 2 {
		return nil, ErrThresholdTooSmall
	}
	if adminCount < threshold {
		return nil, errors.New("admin count must be at least equal to threshold")
	}

	shares, err := shamir.Split(seed, adminCount, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to split enclave seed: %w", err)
	}
	return shares, nil
}

// SeedRecovery collects admin-signed seed shares until the threshold is met
// and the seed can be combined. It is safe for concurrent use.
type SeedRecovery struct {
	mu        sync.Mutex
	threshold int
	admins    map[string]*ecdsa.PublicKey // fingerprint -> key
	received  map[string][]byte           // fingerprint -> share
	seed      []byte
	unlocked  chan struct{}
}

// RecoveryStatus is a snapshot of a SeedRecovery.
type RecoveryStatus struct {
	Threshold int  `json:"threshold"`
	Received  int  `json:"received"`
	Unlocked  bool `json:"unlocked"`
}

// NewSeedRecovery accepts shares signed by any of adminPubKeys (PEM).
func NewSeedRecovery(threshold int, adminPubKeys map[string][]byte) (*SeedRecovery, error) {
	if threshold < 2 {
		return nil, ErrThresholdTooSmall
	}
	if len(adminPubKeys) < threshold {
		return nil, errors.New("admin count must be at least equal to threshold")
	}

	r := &SeedRecovery{
		threshold: threshold,
		admins:    make(map[string]*ecdsa.PublicKey, len(adminPubKeys)),
		received:  make(map[string][]byte),
		unlocked:  make(chan struct{}),
	}
	for id, publicKeyPEM := range adminPubKeys {
		pub, err := parseECDSAPublicKey(publicKeyPEM)
		if err != nil {
			return nil, fmt.Errorf("invalid admin pubkey %s: %w", id, err)
		}
		r.admins[Fingerprint(publicKeyPEM)] = pub
	}
	return r, nil
}

// SubmitShare verifies signature over share with the admin key and stores it.
// Reaching the threshold combines the shares and unlocks the recovery.
func (r *SeedRecovery) SubmitShare(share, signature, adminPubKeyPEM []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.seed != nil {
		return ErrAlreadyUnlocked
	}

	fingerprint := Fingerprint(adminPubKeyPEM)
	pub, found := r.admins[fingerprint]
	if !found {
		return ErrUnknownAdmin
	}
	if _, dup := r.received[fingerprint]; dup {
		return ErrDuplicateShare
	}
	if !ecdsa.VerifyASN1(pub, shareDigest(share), signature) {
		return ErrInvalidSignature
	}

	r.received[fingerprint] = append([]byte(nil), share...)
	if len(r.received) < r.threshold {
		return nil
	}

	shares := make([][]byte, 0, len(r.received))
	for _, s := range r.received {
		shares = append(shares, s)
	}
	seed, err := shamir.Combine(shares)
	if err != nil {
		return fmt.Errorf("failed to combine enclave seed: %w", err)
	}

	r.seed = seed
	for k := range r.received {
		wipeBytes(r.received[k])
	}
	r.received = make(map[string][]byte)
	close(r.unlocked)
	return nil
}

func (r *SeedRecovery) Status() RecoveryStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RecoveryStatus{
		Threshold: r.threshold,
		Received:  len(r.received),
		Unlocked:  r.seed != nil,
	}
}

// Wait blocks until the seed is recovered or ctx is done.
func (r *SeedRecovery) Wait(ctx context.Context) ([]byte, error) {
	select {
	case <-r.unlocked:
		r.mu.Lock()
		defer r.mu.Unlock()
		return append([]byte(nil), r.seed...), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SignShare signs a share for submission with an admin's key.
func SignShare(share []byte, privateKey *ecdsa.PrivateKey) ([]byte, error) {
	return ecdsa.SignASN1(rand.Reader, privateKey, shareDigest(share))
}

func shareDigest(share []byte) []byte {
	h := sha256.Sum256(share)
	return h[:]
}

// Fingerprint identifies an admin key: hex sha256 of its PEM.
func Fingerprint(publicKeyPEM []byte) string {
	h := sha256.Sum256(publicKeyPEM)
	return hex.EncodeToString(h[:])
}

type AdminsConfig struct {
	Admins []AdminMetadata `json:"admins"`
}

type AdminMetadata struct {
	ID     string `json:"id"`
	PubKey string `json:"pubkey"`
}

// LoadAdminKeys reads {"admins":[{"id":..,"pubkey":..}]} into a map of admin
// ID to PEM public key.
func LoadAdminKeys(r io.Reader) (map[string][]byte, error) {
	var data AdminsConfig
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode admin keys JSON: %w", err)
	}

	result := make(map[string][]byte, len(data.Admins))
	for _, admin := range data.Admins {
		if _, err := parseECDSAPublicKey([]byte(admin.PubKey)); err != nil {
			return nil, fmt.Errorf("invalid public key for admin %s: %w", admin.ID, err)
		}
		if _, dup := result[admin.ID]; dup {
			return nil, fmt.Errorf("duplicate admin %s", admin.ID)
		}
		result[admin.ID] = []byte(admin.PubKey)
	}
	return result, nil
}

// GenerateAdminKeyPair returns a fresh P-256 admin key as (private, public) PEM.
func GenerateAdminKeyPair() ([]byte, []byte, error) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate ECDSA key: %w", err)
	}

	privateKeyBytes, err := x509.MarshalECPrivateKey(privateKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal private key: %w", err)
	}
	publicKeyBytes, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal public key: %w", err)
	}

	return pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: privateKeyBytes}),
		pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: publicKeyBytes}),
		nil
}

// ParsePrivateKey parses an EC PRIVATE KEY PEM block.
func ParsePrivateKey(privateKeyPEM []byte) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode(privateKeyPEM)
	if block == nil {
		return nil, errors.New("failed to decode PEM block containing private key")
	}
	privateKey, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ECDSA private key: %w", err)
	}
	return privateKey, nil
}

func parseECDSAPublicKey(publicKeyPEM []byte) (*ecdsa.PublicKey, error) {
	block, _ := pem.Decode(publicKeyPEM)
	if block == nil {
		return nil, errors.New("failed to decode public key PEM")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	ecdsaPub, ok := pub.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("admin key is %T, not ECDSA", pub)
	}
	return ecdsaPub, nil
}

func wipeBytes(data []byte) {
	for i := range data {
		data[i] = 0
	}
}
