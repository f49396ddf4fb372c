package workorder

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/ruteri/tee-workorder-service/cryptoutils"
	"github.com/ruteri/tee-workorder-service/interfaces"
)

// RequestItem is one element of a request's Data array.
type RequestItem struct {
	Type                       *string `json:"Type"`
	OutputLink                 string  `json:"OutputLink,omitempty"`
	EncryptedDataEncryptionKey string  `json:"EncryptedDataEncryptionKey,omitempty"`
	BLOB                       string  `json:"BLOB,omitempty"`
	Sha256Hash                 string  `json:"Sha256Hash,omitempty"`
}

// PackedItem is one element of a response's Data array.
type PackedItem struct {
	Type       string `json:"Type"`
	Sha256Hash string `json:"Sha256Hash"`
	OutputLink string `json:"OutputLink"`
	BLOB       string `json:"BLOB"`
}

// Unpack decodes a request item, unwraps its data key, decrypts the payload
// and checks it against Sha256Hash when one is given.
//
// BLOB is base64 only when the item carries a key; plaintext items carry the
// payload verbatim.
func Unpack(raw json.RawMessage, unwrapper interfaces.KeyUnwrapper) (interfaces.DataItem, error) {
	var wire RequestItem
	if err := json.Unmarshal(raw, &wire); err != nil {
		return interfaces.DataItem{}, fmt.Errorf("%w: malformed work order data item: %v", interfaces.ErrValue, err)
	}
	if wire.Type == nil {
		return interfaces.DataItem{}, fmt.Errorf("%w: failed to retrieve work order data type", interfaces.ErrValue)
	}

	item := interfaces.DataItem{
		DataType:   *wire.Type,
		OutputLink: wire.OutputLink,
	}

	if wire.EncryptedDataEncryptionKey != "" {
		wrapped, err := base64.StdEncoding.DecodeString(wire.EncryptedDataEncryptionKey)
		if err != nil {
			return interfaces.DataItem{}, fmt.Errorf("%w: %s data encryption key is not base64: %v", interfaces.ErrValue, item.DataType, err)
		}
		key, err := unwrapper.UnwrapDataKey(wrapped)
		if err != nil {
			return interfaces.DataItem{}, fmt.Errorf("%w: could not unwrap %s data encryption key: %v", interfaces.ErrRuntime, item.DataType, err)
		}
		item.DataEncryptionKey = key
	}

	if wire.BLOB == "" {
		return item, nil
	}

	if len(item.DataEncryptionKey) == 0 {
		item.DecryptedInput = []byte(wire.BLOB)
	} else {
		ciphertext, err := base64.StdEncoding.DecodeString(wire.BLOB)
		if err != nil {
			return interfaces.DataItem{}, fmt.Errorf("%w: %s BLOB is not base64: %v", interfaces.ErrValue, item.DataType, err)
		}
		plaintext, err := cryptoutils.DecryptMessage(item.DataEncryptionKey, ciphertext)
		if err != nil {
			return interfaces.DataItem{}, fmt.Errorf("%w: could not decrypt %s: %v", interfaces.ErrIntegrity, item.DataType, err)
		}
		item.DecryptedInput = plaintext
	}

	if wire.Sha256Hash != "" {
		expected, err := cryptoutils.ParseHash(wire.Sha256Hash)
		if err != nil {
			return interfaces.DataItem{}, fmt.Errorf("%w: %s Sha256Hash: %v", interfaces.ErrValue, item.DataType, err)
		}
		if err := cryptoutils.VerifyHash(item.DecryptedInput, expected); err != nil {
			return interfaces.DataItem{}, fmt.Errorf("%w: %s: %v", interfaces.ErrIntegrity, item.DataType, err)
		}
		item.InputHash = expected
	}

	return item, nil
}

// Pack recomputes the output hash and encrypts the output under the item's key
// when it has one. It sets item.OutputHash.
func Pack(item *interfaces.DataItem) (PackedItem, error) {
	item.OutputHash = cryptoutils.ComputeHash(item.DecryptedOutput)

	packed := PackedItem{
		Type:       item.DataType,
		Sha256Hash: cryptoutils.HashString(item.OutputHash),
		OutputLink: item.OutputLink,
	}

	switch {
	case len(item.DecryptedOutput) == 0:
	case len(item.DataEncryptionKey) == 0:
		packed.BLOB = string(item.DecryptedOutput)
	default:
		ciphertext, err := cryptoutils.EncryptMessage(item.DataEncryptionKey, item.DecryptedOutput)
		if err != nil {
			return PackedItem{}, fmt.Errorf("%w: could not encrypt %s output: %v", interfaces.ErrRuntime, item.DataType, err)
		}
		packed.BLOB = base64.StdEncoding.EncodeToString(ciphertext)
	}

	return packed, nil
}

// cloneItems copies items so an interpreter cannot alias request buffers.
func cloneItems(items []interfaces.DataItem) []interfaces.DataItem {
	out := make([]interfaces.DataItem, len(items))
	for i, item := range items {
		out[i] = interfaces.DataItem{
			DataType:        item.DataType,
			DecryptedInput:  append([]byte(nil), item.DecryptedInput...),
			DecryptedOutput: append([]byte(nil), item.DecryptedOutput...),
		}
	}
	return out
}
