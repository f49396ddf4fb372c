package kms

import (
	"crypto/ecdsa"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ruteri/tee-workorder-service/interfaces"
)

// ParticipantDigest is what a participant signs for a request:
// keccak256(WorkOrderId || ParticipantGeneratedNonce || EnclaveId || ParticipantAddress).
func ParticipantDigest(req *interfaces.WorkOrderRequest) []byte {
	return crypto.Keccak256(
		[]byte(req.WorkOrderID),
		[]byte(req.ParticipantGeneratedNonce),
		[]byte(req.EnclaveID),
		[]byte(req.ParticipantAddress),
	)
}

// SignParticipantRequest produces the ParticipantSignature for req.
func SignParticipantRequest(key *ecdsa.PrivateKey, req *interfaces.WorkOrderRequest) (string, error) {
	sig, err := crypto.Sign(ParticipantDigest(req), key)
	if err != nil {
		return "", err
	}
	return hexutil.Encode(sig), nil
}

// ParticipantSignatureVerifier requires ParticipantSignature to recover to
// ParticipantAddress.
type ParticipantSignatureVerifier struct {
	Log *slog.Logger
}

func (v ParticipantSignatureVerifier) VerifyParticipantSignature(req *interfaces.WorkOrderRequest) bool {
	if !common.IsHexAddress(req.ParticipantAddress) {
		v.debug("participant address is not an address", "workOrderId", req.WorkOrderID)
		return false
	}

	sig, err := hexutil.Decode(req.ParticipantSignature)
	if err != nil {
		v.debug("malformed participant signature", "workOrderId", req.WorkOrderID, "err", err)
		return false
	}

	pub, err := crypto.SigToPub(ParticipantDigest(req), sig)
	if err != nil {
		v.debug("could not recover participant", "workOrderId", req.WorkOrderID, "err", err)
		return false
	}

	return crypto.PubkeyToAddress(*pub) == common.HexToAddress(req.ParticipantAddress)
}

func (v ParticipantSignatureVerifier) debug(msg string, args ...any) {
	if v.Log != nil {
		v.Log.Debug(msg, args...)
	}
}
