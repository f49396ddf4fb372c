package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/hashicorp/vault/shamir"
	"github.com/ruteri/tee-workorder-service/interfaces"
	"github.com/ruteri/tee-workorder-service/kms"
	"github.com/ruteri/tee-workorder-service/storage"
	"github.com/ruteri/tee-workorder-service/workorder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignRequest(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	raw := []byte(`{"jsonrpc":"2.0","method":"WorkOrderSubmit","id":7,"params":{
		"WorkOrderId":"0x1234","ParticipantGeneratedNonce":"abc","EnclaveId":"enc","Data":[{"Index":0,"Data":"aGk="}]}}`)

	signed, err := signRequest(raw, key)
	require.NoError(t, err)

	var doc struct {
		ID     json.Number    `json:"id"`
		Params map[string]any `json:"params"`
	}
	require.NoError(t, json.Unmarshal(signed, &doc))
	assert.Equal(t, "7", doc.ID.String())
	assert.Len(t, doc.Params["Data"], 1)

	req := &interfaces.WorkOrderRequest{
		WorkOrderID:               "0x1234",
		ParticipantGeneratedNonce: "abc",
		EnclaveID:                 "enc",
		ParticipantAddress:        doc.Params["ParticipantAddress"].(string),
		ParticipantSignature:      doc.Params["ParticipantSignature"].(string),
	}
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey).Hex(), req.ParticipantAddress)
	assert.True(t, kms.ParticipantSignatureVerifier{}.VerifyParticipantSignature(req))

	req.ParticipantGeneratedNonce = "abd"
	assert.False(t, kms.ParticipantSignatureVerifier{}.VerifyParticipantSignature(req))
}

func TestSignRequestErrors(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	_, err = signRequest([]byte(`not json`), key)
	assert.Error(t, err)

	_, err = signRequest([]byte(`{"params":[]}`), key)
	assert.Error(t, err)
}

func TestSplitSeed(t *testing.T) {
	dir := t.TempDir()
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i)
	}

	admins := map[string][]byte{}
	for _, id := range []string{"carol", "alice", "bob"} {
		_, pub, err := kms.GenerateAdminKeyPair()
		require.NoError(t, err)
		admins[id] = pub
	}

	written, err := splitSeed(seed, admins, 2, dir)
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "share-alice.hex"),
		filepath.Join(dir, "share-bob.hex"),
		filepath.Join(dir, "share-carol.hex"),
	}, written)

	var shares [][]byte
	for _, path := range written[1:] {
		content, err := os.ReadFile(path)
		require.NoError(t, err)
		share, err := hex.DecodeString(string(content))
		require.NoError(t, err)
		shares = append(shares, share)
	}

	recovered, err := shamir.Combine(shares)
	require.NoError(t, err)
	assert.Equal(t, seed, recovered)

	_, err = splitSeed(seed, admins, 4, dir)
	assert.Error(t, err)
}

func TestKeysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.json")

	_, err := loadKeys(path, false)
	assert.ErrorIs(t, err, os.ErrNotExist)

	keys, err := loadKeys(path, true)
	require.NoError(t, err)
	assert.Empty(t, keys)

	keys["intkey"] = "AAECAwQFBgcICQoLDA0ODxAREhMUFRYXGBkaGxwdHh8="
	require.NoError(t, saveKeys(path, keys))

	loaded, err := loadKeys(path, false)
	require.NoError(t, err)
	assert.Equal(t, workorder.DataKeys{"intkey": keys["intkey"]}, loaded)

	require.NoError(t, os.WriteFile(path, []byte("{"), 0600))
	_, err = loadKeys(path, false)
	assert.Error(t, err)
}

func TestFetchArchived(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	factory := storage.NewStorageBackendFactory(logger)

	emptyDir, archiveDir := t.TempDir(), t.TempDir()
	locations, err := storage.ParseLocations([]string{"file://" + emptyDir, "file://" + archiveDir})
	require.NoError(t, err)

	// The server archived to the second location only.
	archive, err := factory.StorageBackendFor(locations[1])
	require.NoError(t, err)
	response := []byte(`{"jsonrpc":"2.0","id":1,"result":{"WorkOrderId":"wo-1"}}`)
	id, err := archive.Store(ctx, response, interfaces.ResponseType)
	require.NoError(t, err)

	backend, err := factory.CreateMultiBackend(locations)
	require.NoError(t, err)

	parsed, err := interfaces.ParseContentID(id.String())
	require.NoError(t, err)
	contentType, err := parseContentType("response")
	require.NoError(t, err)

	data, err := fetchArchived(ctx, backend, parsed, contentType)
	require.NoError(t, err)
	assert.Equal(t, response, data)

	_, err = fetchArchived(ctx, backend, parsed, interfaces.OutputType)
	assert.ErrorIs(t, err, interfaces.ErrContentNotFound)

	files, err := filepath.Glob(filepath.Join(archiveDir, "*", id.String()))
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.NoError(t, os.WriteFile(files[0], []byte("tampered"), 0644))
	_, err = fetchArchived(ctx, backend, parsed, contentType)
	assert.ErrorContains(t, err, "does not match")
}

func TestFetchArgs(t *testing.T) {
	_, err := parseContentType("state")
	assert.Error(t, err)

	_, err = interfaces.ParseContentID("abcd")
	assert.Error(t, err)
	_, err = interfaces.ParseContentID("zz")
	assert.Error(t, err)

	id := interfaces.ComputeID([]byte("x"))
	parsed, err := interfaces.ParseContentID("0x" + id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}
