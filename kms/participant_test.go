package kms

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ruteri/tee-workorder-service/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParticipantSignatureVerifier(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	req := &interfaces.WorkOrderRequest{
		WorkOrderID:               "wo-1",
		ParticipantGeneratedNonce: "n",
		EnclaveID:                 "e",
		ParticipantAddress:        crypto.PubkeyToAddress(key.PublicKey).Hex(),
	}
	req.ParticipantSignature, err = SignParticipantRequest(key, req)
	require.NoError(t, err)

	v := ParticipantSignatureVerifier{}
	assert.True(t, v.VerifyParticipantSignature(req))

	tampered := *req
	tampered.WorkOrderID = "wo-2"
	assert.False(t, v.VerifyParticipantSignature(&tampered))

	wrongAddress := *req
	wrongAddress.ParticipantAddress = "0x0000000000000000000000000000000000000001"
	assert.False(t, v.VerifyParticipantSignature(&wrongAddress))

	notAddress := *req
	notAddress.ParticipantAddress = "participant"
	assert.False(t, v.VerifyParticipantSignature(&notAddress))

	badSig := *req
	badSig.ParticipantSignature = "zz"
	assert.False(t, v.VerifyParticipantSignature(&badSig))
}
