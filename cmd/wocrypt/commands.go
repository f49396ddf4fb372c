package main

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ruteri/tee-workorder-service/api"
	"github.com/ruteri/tee-workorder-service/api/adminhandler"
	"github.com/ruteri/tee-workorder-service/api/enclavehandler"
	"github.com/ruteri/tee-workorder-service/api/workorderhandler"
	"github.com/ruteri/tee-workorder-service/cmd/flags"
	"github.com/ruteri/tee-workorder-service/interfaces"
	"github.com/ruteri/tee-workorder-service/kms"
	"github.com/ruteri/tee-workorder-service/storage"
	"github.com/ruteri/tee-workorder-service/workorder"
	"github.com/urfave/cli/v2"
)

func encryptCmd(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)

	pubkey, err := enclavePubkey(cCtx)
	if err != nil {
		return err
	}
	keys, err := loadKeys(cCtx.String(keysFileFlag.Name), true)
	if err != nil {
		return err
	}
	input, err := os.ReadFile(cCtx.String(inputFlag.Name))
	if err != nil {
		return err
	}

	encrypted, err := workorder.EncryptRequest(input, cCtx.String("member"), keys, pubkey)
	if err != nil {
		return err
	}
	if err := saveKeys(cCtx.String(keysFileFlag.Name), keys); err != nil {
		return err
	}

	logger.Debug("Encrypted request", "types", len(keys))
	return writeOutput(cCtx.String(outputFlag.Name), encrypted)
}

func decryptCmd(cCtx *cli.Context) error {
	keys, err := loadKeys(cCtx.String(keysFileFlag.Name), false)
	if err != nil {
		return err
	}
	input, err := os.ReadFile(cCtx.String(inputFlag.Name))
	if err != nil {
		return err
	}

	decrypted, err := workorder.DecryptResponse(input, cCtx.String("member"), keys)
	if err != nil {
		return err
	}
	return writeOutput(cCtx.String(outputFlag.Name), decrypted)
}

func signCmd(cCtx *cli.Context) error {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(cCtx.String(participantKeyFlag.Name), "0x"))
	if err != nil {
		return fmt.Errorf("invalid participant key: %w", err)
	}
	input, err := os.ReadFile(cCtx.String(inputFlag.Name))
	if err != nil {
		return err
	}

	signed, err := signRequest(input, key)
	if err != nil {
		return err
	}
	return writeOutput(cCtx.String(outputFlag.Name), signed)
}

func submitCmd(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)

	input, err := os.ReadFile(cCtx.String(inputFlag.Name))
	if err != nil {
		return err
	}

	response, err := workorderhandler.Submit(nil, cCtx.String(flags.ServerAddrFlag.Name), input)
	if err != nil {
		return err
	}

	if _, rpcErr, err := workorder.DecodeResponse(response); err != nil {
		logger.Warn("Unexpected response format", "err", err)
	} else if rpcErr != nil {
		logger.Warn("Work order failed", "code", rpcErr.Code, "message", rpcErr.Message)
	}
	return writeOutput(cCtx.String(outputFlag.Name), response)
}

func fetchCmd(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)

	contentType, err := parseContentType(cCtx.String(contentTypeFlag.Name))
	if err != nil {
		return err
	}
	id, err := interfaces.ParseContentID(cCtx.String(contentIDFlag.Name))
	if err != nil {
		return err
	}
	locations, err := storage.ParseLocations(cCtx.StringSlice(storageFlag.Name))
	if err != nil {
		return err
	}
	backend, err := storage.NewStorageBackendFactory(logger).CreateMultiBackend(locations)
	if err != nil {
		return err
	}

	data, err := fetchArchived(cCtx.Context, backend, id, contentType)
	if err != nil {
		return err
	}
	return writeOutput(cCtx.String(outputFlag.Name), data)
}

// fetchArchived reads content back and checks it against its ID.
func fetchArchived(ctx context.Context, backend interfaces.StorageBackend, id interfaces.ContentID, contentType interfaces.ContentType) ([]byte, error) {
	data, err := backend.Fetch(ctx, id, contentType)
	if err != nil {
		return nil, err
	}
	if interfaces.ComputeID(data) != id {
		return nil, fmt.Errorf("archived %s %s does not match its content ID", contentType, id)
	}
	return data, nil
}

func parseContentType(name string) (interfaces.ContentType, error) {
	switch name {
	case interfaces.ResponseType.String():
		return interfaces.ResponseType, nil
	case interfaces.OutputType.String():
		return interfaces.OutputType, nil
	default:
		return 0, fmt.Errorf("unknown content type %q", name)
	}
}

func infoCmd(cCtx *cli.Context) error {
	info, err := enclavehandler.EnclaveInfo(nil, cCtx.String(flags.ServerAddrFlag.Name), cCtx.Bool(verifyFlag.Name))
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(api.NewEnclaveInfoResponse(*info), "", "    ")
	if err != nil {
		return err
	}
	return writeOutput(cCtx.String(outputFlag.Name), out)
}

func adminKeygenCmd(cCtx *cli.Context) error {
	privPEM, pubPEM, err := kms.GenerateAdminKeyPair()
	if err != nil {
		return err
	}
	if err := os.WriteFile(cCtx.String(adminPrivkeyFlag.Name), privPEM, 0600); err != nil {
		return err
	}
	if err := os.WriteFile(cCtx.String(adminPubkeyFlag.Name), pubPEM, 0644); err != nil {
		return err
	}
	fmt.Printf("admin key fingerprint: %s\n", kms.Fingerprint(pubPEM))
	return nil
}

func splitSeedCmd(cCtx *cli.Context) error {
	adminsFile, err := os.Open(cCtx.String(adminsFileFlag.Name))
	if err != nil {
		return err
	}
	defer adminsFile.Close()

	admins, err := kms.LoadAdminKeys(adminsFile)
	if err != nil {
		return err
	}

	var seed []byte
	if seedHex := cCtx.String("seed"); seedHex != "" {
		seed, err = hex.DecodeString(seedHex)
		if err != nil {
			return fmt.Errorf("invalid seed: %w", err)
		}
	} else {
		key, err := crypto.GenerateKey()
		if err != nil {
			return err
		}
		seed = crypto.FromECDSA(key)
	}

	written, err := splitSeed(seed, admins, cCtx.Int("threshold"), cCtx.String("out-dir"))
	if err != nil {
		return err
	}

	enclaveKMS, err := kms.NewEnclaveKMS(seed)
	if err != nil {
		return err
	}
	fmt.Printf("enclave signing address: %s\n", enclaveKMS.SigningAddress().Hex())
	for _, path := range written {
		fmt.Println(path)
	}
	return nil
}

func submitShareCmd(cCtx *cli.Context) error {
	shareHex, err := os.ReadFile(cCtx.String(shareFileFlag.Name))
	if err != nil {
		return err
	}
	share, err := hex.DecodeString(strings.TrimSpace(string(shareHex)))
	if err != nil {
		return fmt.Errorf("invalid share file: %w", err)
	}

	privPEM, err := os.ReadFile(cCtx.String(adminPrivkeyFlag.Name))
	if err != nil {
		return err
	}
	adminKey, err := kms.ParsePrivateKey(privPEM)
	if err != nil {
		return err
	}
	pubPEM, err := os.ReadFile(cCtx.String(adminPubkeyFlag.Name))
	if err != nil {
		return err
	}

	status, err := adminhandler.SubmitShare(nil, cCtx.String(flags.ServerAddrFlag.Name), share, adminKey, pubPEM)
	if err != nil {
		return err
	}
	fmt.Printf("shares received: %d/%d, unlocked: %t\n", status.Received, status.Threshold, status.Unlocked)
	return nil
}

func enclavePubkey(cCtx *cli.Context) ([]byte, error) {
	if path := cCtx.String(enclavePubkeyFlag.Name); path != "" {
		return os.ReadFile(path)
	}
	info, err := enclavehandler.EnclaveInfo(nil, cCtx.String(flags.ServerAddrFlag.Name), cCtx.Bool(verifyFlag.Name))
	if err != nil {
		return nil, err
	}
	return info.EncryptionPubkey, nil
}

// signRequest fills in ParticipantAddress from key and signs the request.
func signRequest(raw []byte, key *ecdsa.PrivateKey) ([]byte, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var doc map[string]any
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid request JSON: %w", err)
	}
	params, ok := doc["params"].(map[string]any)
	if !ok {
		return nil, errors.New("missing params object")
	}

	str := func(name string) string {
		s, _ := params[name].(string)
		return s
	}
	req := &interfaces.WorkOrderRequest{
		WorkOrderID:               str("WorkOrderId"),
		ParticipantGeneratedNonce: str("ParticipantGeneratedNonce"),
		EnclaveID:                 str("EnclaveId"),
		ParticipantAddress:        crypto.PubkeyToAddress(key.PublicKey).Hex(),
	}

	signature, err := kms.SignParticipantRequest(key, req)
	if err != nil {
		return nil, err
	}
	params["ParticipantAddress"] = req.ParticipantAddress
	params["ParticipantSignature"] = signature

	return json.MarshalIndent(doc, "", "    ")
}

// splitSeed writes one hex share file per admin, in admin ID order.
func splitSeed(seed []byte, admins map[string][]byte, threshold int, outDir string) ([]string, error) {
	ids := make([]string, 0, len(admins))
	for id := range admins {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	shares, err := kms.SplitSeed(seed, len(ids), threshold)
	if err != nil {
		return nil, err
	}

	written := make([]string, 0, len(ids))
	for i, id := range ids {
		path := filepath.Join(outDir, fmt.Sprintf("share-%s.hex", id))
		if err := os.WriteFile(path, []byte(hex.EncodeToString(shares[i])), 0600); err != nil {
			return nil, err
		}
		written = append(written, path)
	}
	return written, nil
}

func loadKeys(path string, allowMissing bool) (workorder.DataKeys, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && allowMissing {
		return workorder.DataKeys{}, nil
	}
	if err != nil {
		return nil, err
	}

	keys := workorder.DataKeys{}
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, fmt.Errorf("invalid keys file %s: %w", path, err)
	}
	return keys, nil
}

func saveKeys(path string, keys workorder.DataKeys) error {
	raw, err := json.MarshalIndent(keys, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0600)
}

func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(append(data, '\n'))
		return err
	}
	return os.WriteFile(path, data, 0644)
}
