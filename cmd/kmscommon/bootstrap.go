package kmscommon

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ruteri/tee-workorder-service/cryptoutils"
	"github.com/ruteri/tee-workorder-service/kms"
	"github.com/urfave/cli/v2"
)

var EnclaveSeedFlag = &cli.StringFlag{
	Name:    "enclave-seed",
	EnvVars: []string{"ENCLAVE_SEED"},
	Usage:   "hex-encoded 32-byte enclave seed",
}
var EnclavePassphraseFlag = &cli.StringFlag{
	Name:    "enclave-passphrase",
	EnvVars: []string{"ENCLAVE_PASSPHRASE"},
	Usage:   "derive the enclave seed from this passphrase (argon2id)",
}
var EnclaveSaltFlag = &cli.StringFlag{
	Name:  "enclave-salt",
	Usage: "salt for --enclave-passphrase",
}
var AdminKeysFlag = &cli.StringFlag{
	Name:  "admin-keys-file",
	Usage: "JSON file with admin public keys; the seed is then recovered from admin shares",
}
var ShareThresholdFlag = &cli.IntFlag{
	Name:  "share-threshold",
	Value: 2,
	Usage: "number of admin shares needed to recover the seed",
}
var BootstrapTimeoutFlag = &cli.DurationFlag{
	Name:  "bootstrap-timeout",
	Value: 24 * time.Hour,
	Usage: "how long to wait for admin shares",
}
var AttestationFlag = &cli.StringFlag{
	Name:  "attestation",
	Value: cryptoutils.DummyAttestation.StringID,
	Usage: "attestation provider: 'dummy', 'qemu-tdx' or 'remote'",
}
var AttestationURLFlag = &cli.StringFlag{
	Name:  "attestation-url",
	Usage: "quote provider address for --attestation=remote",
}

var KmsFlags = []cli.Flag{
	EnclaveSeedFlag,
	EnclavePassphraseFlag,
	EnclaveSaltFlag,
	AdminKeysFlag,
	ShareThresholdFlag,
	BootstrapTimeoutFlag,
	AttestationFlag,
	AttestationURLFlag,
}

// StaticSeed returns the seed given on the command line, or nil when the
// seed is to be recovered from admin shares.
func StaticSeed(cCtx *cli.Context) ([]byte, error) {
	seedHex := cCtx.String(EnclaveSeedFlag.Name)
	passphrase := cCtx.String(EnclavePassphraseFlag.Name)
	adminKeysFile := cCtx.String(AdminKeysFlag.Name)

	configured := 0
	for _, v := range []string{seedHex, passphrase, adminKeysFile} {
		if v != "" {
			configured++
		}
	}
	if configured != 1 {
		return nil, errors.New("exactly one of --enclave-seed, --enclave-passphrase or --admin-keys-file is required")
	}

	switch {
	case seedHex != "":
		seed, err := hex.DecodeString(seedHex)
		if err != nil || len(seed) != 32 {
			return nil, fmt.Errorf("invalid enclave seed, must be 64 hex chars: %v", err)
		}
		return seed, nil
	case passphrase != "":
		salt := cCtx.String(EnclaveSaltFlag.Name)
		if salt == "" {
			return nil, errors.New("--enclave-salt is required with --enclave-passphrase")
		}
		return cryptoutils.DeriveSeed([]byte(passphrase), []byte(salt)), nil
	default:
		return nil, nil
	}
}

// NewSeedRecovery loads the admin keys file for share-based bootstrap.
func NewSeedRecovery(cCtx *cli.Context, logger *slog.Logger) (*kms.SeedRecovery, error) {
	adminKeysFile := cCtx.String(AdminKeysFlag.Name)

	logger.Info("Loading admin keys", "file", adminKeysFile)
	adminKeysData, err := os.Open(adminKeysFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open admin keys file: %w", err)
	}
	defer adminKeysData.Close()

	adminKeys, err := kms.LoadAdminKeys(adminKeysData)
	if err != nil {
		return nil, fmt.Errorf("failed to load admin keys: %w", err)
	}
	logger.Info("Admin keys loaded successfully", "count", len(adminKeys))

	return kms.NewSeedRecovery(cCtx.Int(ShareThresholdFlag.Name), adminKeys)
}

// NewEnclaveKMS derives the enclave keys from seed and attaches the
// configured attestation provider.
func NewEnclaveKMS(cCtx *cli.Context, seed []byte) (*kms.EnclaveKMS, error) {
	provider, err := cryptoutils.NewAttestationProvider(cCtx.String(AttestationFlag.Name), cCtx.String(AttestationURLFlag.Name))
	if err != nil {
		return nil, err
	}

	enclaveKMS, err := kms.NewEnclaveKMS(seed)
	if err != nil {
		return nil, err
	}
	return enclaveKMS.WithAttestationProvider(provider), nil
}
