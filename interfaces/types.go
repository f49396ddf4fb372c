package interfaces

import (
	"crypto/sha256"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/tee-workorder-service/cryptoutils"
)

type EnclavePubkey = cryptoutils.EnclavePubkey
type EnclavePrivkey = cryptoutils.EnclavePrivkey

// Attestation represents a cryptographic attestation of identity.
type Attestation []byte

// EnclaveInfo is the public description of an enclave: the key participants
// wrap data keys to, the address response signatures recover to, and an
// attestation binding both.
type EnclaveInfo struct {
	EncryptionPubkey EnclavePubkey
	SigningAddress   common.Address
	AttestationType  string
	Attestation      Attestation
}

// ReportData binds the enclave keys into attestation report data:
// SigningAddress || sha256(EncryptionPubkey) (52 bytes, zero padded).
func (i EnclaveInfo) ReportData() [64]byte {
	var reportData [64]byte
	copy(reportData[:20], i.SigningAddress[:])
	pubkeyHash := sha256.Sum256(i.EncryptionPubkey)
	copy(reportData[20:], pubkeyHash[:])
	return reportData
}
