package api

import (
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/tee-workorder-service/interfaces"
)

// EnclaveInfoResponse is the JSON form of interfaces.EnclaveInfo served on
// GET /api/enclave/info.
type EnclaveInfoResponse struct {
	// EncryptionPubkey is the PEM encoded P-256 key data keys are wrapped to.
	EncryptionPubkey string `json:"encryption_pubkey"`

	// SigningAddress is the address EnclaveSignature recovers to.
	SigningAddress common.Address `json:"signing_address"`

	AttestationType string `json:"attestation_type"`

	// Attestation is the hex encoded quote over EnclaveInfo.ReportData.
	Attestation string `json:"attestation"`
}

func NewEnclaveInfoResponse(info interfaces.EnclaveInfo) EnclaveInfoResponse {
	return EnclaveInfoResponse{
		EncryptionPubkey: string(info.EncryptionPubkey),
		SigningAddress:   info.SigningAddress,
		AttestationType:  info.AttestationType,
		Attestation:      hex.EncodeToString(info.Attestation),
	}
}

// EnclaveInfo converts the response back into interfaces.EnclaveInfo.
func (r EnclaveInfoResponse) EnclaveInfo() (interfaces.EnclaveInfo, error) {
	attestation, err := hex.DecodeString(r.Attestation)
	if err != nil {
		return interfaces.EnclaveInfo{}, fmt.Errorf("invalid attestation encoding: %w", err)
	}
	pubkey := interfaces.EnclavePubkey(r.EncryptionPubkey)
	if err := pubkey.Validate(); err != nil {
		return interfaces.EnclaveInfo{}, err
	}
	return interfaces.EnclaveInfo{
		EncryptionPubkey: pubkey,
		SigningAddress:   r.SigningAddress,
		AttestationType:  r.AttestationType,
		Attestation:      attestation,
	}, nil
}

// ShareSubmission is an admin's seed share, posted to /api/admin/share.
// Share and Signature are base64 encoded, AdminPubkey is PEM.
type ShareSubmission struct {
	AdminPubkey string `json:"admin_pubkey"`
	Share       string `json:"share"`
	Signature   string `json:"signature"`
}

// RecoveryStatusResponse reports seed recovery progress.
type RecoveryStatusResponse struct {
	Threshold int  `json:"threshold"`
	Received  int  `json:"received"`
	Unlocked  bool `json:"unlocked"`
}
