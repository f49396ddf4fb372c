package workorder

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ruteri/tee-workorder-service/cryptoutils"
)

// DataKeys maps a data item Type to its base64 encoded AES key. It is the
// participant-side record of which key protects which item.
type DataKeys map[string]string

func (k DataKeys) key(dataType string, create bool) ([]byte, error) {
	if encoded, found := k[dataType]; found {
		key, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("invalid key for %s: %w", dataType, err)
		}
		return key, nil
	}
	if !create {
		return nil, fmt.Errorf("no data key for type %s", dataType)
	}

	key, err := cryptoutils.GenerateDataKey()
	if err != nil {
		return nil, err
	}
	k[dataType] = base64.StdEncoding.EncodeToString(key)
	return key, nil
}

// EncryptRequest encrypts every Data item in the object named member
// ("params" for requests) under a per-Type key from keys, generating
// missing keys, and wraps each key to the enclave encryption public key.
// Plaintext BLOBs get their Sha256Hash set.
func EncryptRequest(raw []byte, member string, keys DataKeys, enclavePubkeyPEM []byte) ([]byte, error) {
	return transformItems(raw, member, func(item map[string]any) error {
		dataType, ok := item["Type"].(string)
		if !ok {
			return errors.New("data item without Type")
		}
		key, err := keys.key(dataType, true)
		if err != nil {
			return err
		}

		if blob, _ := item["BLOB"].(string); blob != "" {
			ciphertext, err := cryptoutils.EncryptMessage(key, []byte(blob))
			if err != nil {
				return err
			}
			item["Sha256Hash"] = cryptoutils.HashString(cryptoutils.ComputeHash([]byte(blob)))
			item["BLOB"] = base64.StdEncoding.EncodeToString(ciphertext)
		}

		wrapped, err := cryptoutils.EncryptWithPublicKey(enclavePubkeyPEM, key)
		if err != nil {
			return fmt.Errorf("could not wrap %s key: %w", dataType, err)
		}
		item["EncryptedDataEncryptionKey"] = base64.StdEncoding.EncodeToString(wrapped)
		return nil
	})
}

// DecryptResponse decrypts the Data items of the object named member
// ("result" for responses) with keys and checks them against Sha256Hash.
// Items with an empty BLOB are left alone.
func DecryptResponse(raw []byte, member string, keys DataKeys) ([]byte, error) {
	return transformItems(raw, member, func(item map[string]any) error {
		delete(item, "EncryptedDataEncryptionKey")

		blob, _ := item["BLOB"].(string)
		if blob == "" {
			return nil
		}
		dataType, ok := item["Type"].(string)
		if !ok {
			return errors.New("data item without Type")
		}
		key, err := keys.key(dataType, false)
		if err != nil {
			return err
		}

		ciphertext, err := base64.StdEncoding.DecodeString(blob)
		if err != nil {
			return fmt.Errorf("%s BLOB is not base64: %w", dataType, err)
		}
		plaintext, err := cryptoutils.DecryptMessage(key, ciphertext)
		if err != nil {
			return fmt.Errorf("could not decrypt %s: %w", dataType, err)
		}

		if hash, _ := item["Sha256Hash"].(string); hash != "" {
			expected, err := cryptoutils.ParseHash(hash)
			if err != nil {
				return fmt.Errorf("%s Sha256Hash: %w", dataType, err)
			}
			if err := cryptoutils.VerifyHash(plaintext, expected); err != nil {
				return fmt.Errorf("%s: %w", dataType, err)
			}
		}

		item["BLOB"] = string(plaintext)
		return nil
	})
}

func transformItems(raw []byte, member string, fn func(item map[string]any) error) ([]byte, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var doc map[string]any
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid JSON document: %w", err)
	}

	obj, ok := doc[member].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("missing %q object", member)
	}
	data, ok := obj["Data"].([]any)
	if !ok {
		return nil, fmt.Errorf("missing Data array in %q", member)
	}

	for i, entry := range data {
		item, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("data item %d is not an object", i)
		}
		if err := fn(item); err != nil {
			return nil, fmt.Errorf("data item %d: %w", i, err)
		}
	}

	return json.MarshalIndent(doc, "", "    ")
}
