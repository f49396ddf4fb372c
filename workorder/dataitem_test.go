package workorder

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ruteri/tee-workorder-service/cryptoutils"
	"github.com/ruteri/tee-workorder-service/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func encryptedItem(t *testing.T, dataType string, key, wrapped, plaintext []byte) map[string]string {
	t.Helper()
	ct, err := cryptoutils.EncryptMessage(key, plaintext)
	require.NoError(t, err)
	return map[string]string{
		"Type":                       dataType,
		"EncryptedDataEncryptionKey": base64.StdEncoding.EncodeToString(wrapped),
		"BLOB":                       base64.StdEncoding.EncodeToString(ct),
		"Sha256Hash":                 cryptoutils.HashString(cryptoutils.ComputeHash(plaintext)),
	}
}

func TestUnpack_Plaintext(t *testing.T) {
	unwrapper := &MockKeyUnwrapper{}

	item, err := Unpack(mustJSON(t, map[string]string{
		"Type":       "code",
		"BLOB":       "0,100:intkey",
		"OutputLink": "file:///tmp/out",
	}), unwrapper)
	require.NoError(t, err)

	assert.Equal(t, "code", item.DataType)
	assert.Equal(t, []byte("0,100:intkey"), item.DecryptedInput)
	assert.Equal(t, "file:///tmp/out", item.OutputLink)
	assert.Empty(t, item.DataEncryptionKey)
	unwrapper.AssertNotCalled(t, "UnwrapDataKey", mock.Anything)
}

func TestUnpack_HashFormats(t *testing.T) {
	digest := cryptoutils.ComputeHash([]byte("hello"))

	for _, hash := range []string{
		cryptoutils.HashString(digest),
		"0x" + cryptoutils.HashString(digest),
		base64.StdEncoding.EncodeToString(digest),
	} {
		item, err := Unpack(mustJSON(t, map[string]string{"Type": "message", "BLOB": "hello", "Sha256Hash": hash}), nil)
		require.NoError(t, err, hash)
		assert.Equal(t, digest, item.InputHash)
	}

	_, err := Unpack(mustJSON(t, map[string]string{"Type": "message", "BLOB": "hellO", "Sha256Hash": cryptoutils.HashString(digest)}), nil)
	require.ErrorIs(t, err, interfaces.ErrIntegrity)

	_, err = Unpack(mustJSON(t, map[string]string{"Type": "message", "BLOB": "hello", "Sha256Hash": "d111"}), nil)
	require.ErrorIs(t, err, interfaces.ErrValue)
}

func TestUnpack_Encrypted(t *testing.T) {
	key, err := cryptoutils.GenerateDataKey()
	require.NoError(t, err)
	wrapped := []byte("wrapped-key")

	unwrapper := &MockKeyUnwrapper{}
	unwrapper.On("UnwrapDataKey", wrapped).Return(key, nil)

	item, err := Unpack(mustJSON(t, encryptedItem(t, "message", key, wrapped, []byte("init,50"))), unwrapper)
	require.NoError(t, err)
	assert.Equal(t, []byte("init,50"), item.DecryptedInput)
	assert.Equal(t, key, item.DataEncryptionKey)
	unwrapper.AssertExpectations(t)
}

func TestUnpack_Errors(t *testing.T) {
	key, err := cryptoutils.GenerateDataKey()
	require.NoError(t, err)
	otherKey, err := cryptoutils.GenerateDataKey()
	require.NoError(t, err)
	wrapped := []byte("wrapped")

	tests := []struct {
		name      string
		raw       json.RawMessage
		unwrapKey []byte
		unwrapErr error
		wantErr   error
	}{
		{
			name:    "missing type",
			raw:     mustJSON(t, map[string]string{"BLOB": "x"}),
			wantErr: interfaces.ErrValue,
		},
		{
			name:    "not an object",
			raw:     json.RawMessage(`"item"`),
			wantErr: interfaces.ErrValue,
		},
		{
			name:    "key not base64",
			raw:     mustJSON(t, map[string]string{"Type": "message", "EncryptedDataEncryptionKey": "***"}),
			wantErr: interfaces.ErrValue,
		},
		{
			name:      "unwrap fails",
			raw:       mustJSON(t, encryptedItem(t, "message", key, wrapped, []byte("x"))),
			unwrapErr: errors.New("bad key"),
			wantErr:   interfaces.ErrRuntime,
		},
		{
			name:      "wrong key",
			raw:       mustJSON(t, encryptedItem(t, "message", key, wrapped, []byte("x"))),
			unwrapKey: otherKey,
			wantErr:   interfaces.ErrIntegrity,
		},
		{
			name: "blob not base64",
			raw: mustJSON(t, map[string]string{
				"Type":                       "message",
				"EncryptedDataEncryptionKey": base64.StdEncoding.EncodeToString(wrapped),
				"BLOB":                       "not base64!",
			}),
			unwrapKey: key,
			wantErr:   interfaces.ErrValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unwrapper := &MockKeyUnwrapper{}
			if tt.unwrapErr != nil {
				unwrapper.On("UnwrapDataKey", wrapped).Return(nil, tt.unwrapErr)
			} else if tt.unwrapKey != nil {
				unwrapper.On("UnwrapDataKey", wrapped).Return(tt.unwrapKey, nil)
			}

			_, err := Unpack(tt.raw, unwrapper)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPack(t *testing.T) {
	plain := interfaces.DataItem{DataType: "result", DecryptedOutput: []byte("50"), OutputLink: "link"}
	packed, err := Pack(&plain)
	require.NoError(t, err)
	assert.Equal(t, PackedItem{
		Type:       "result",
		Sha256Hash: cryptoutils.HashString(cryptoutils.ComputeHash([]byte("50"))),
		OutputLink: "link",
		BLOB:       "50",
	}, packed)
	assert.Equal(t, cryptoutils.ComputeHash([]byte("50")), plain.OutputHash)

	key, err := cryptoutils.GenerateDataKey()
	require.NoError(t, err)
	enc := interfaces.DataItem{DataType: "state", DataEncryptionKey: key, DecryptedOutput: []byte("0,50")}
	packed, err = Pack(&enc)
	require.NoError(t, err)

	ct, err := base64.StdEncoding.DecodeString(packed.BLOB)
	require.NoError(t, err)
	pt, err := cryptoutils.DecryptMessage(key, ct)
	require.NoError(t, err)
	assert.Equal(t, []byte("0,50"), pt)
}

func TestPackUnpackRoundTrip(t *testing.T) {
	key, err := cryptoutils.GenerateDataKey()
	require.NoError(t, err)
	wrapped := []byte("wrapped")
	unwrapper := &MockKeyUnwrapper{}
	unwrapper.On("UnwrapDataKey", wrapped).Return(key, nil)

	for _, payload := range [][]byte{[]byte("1"), []byte("0,4294967295"), []byte("some longer payload \x00 with binary")} {
		out := interfaces.DataItem{DataType: "state", DataEncryptionKey: key, DecryptedOutput: payload}
		packed, err := Pack(&out)
		require.NoError(t, err)

		in, err := Unpack(mustJSON(t, map[string]string{
			"Type":                       packed.Type,
			"EncryptedDataEncryptionKey": base64.StdEncoding.EncodeToString(wrapped),
			"BLOB":                       packed.BLOB,
			"Sha256Hash":                 packed.Sha256Hash,
		}), unwrapper)
		require.NoError(t, err)
		assert.Equal(t, payload, in.DecryptedInput)
	}
}
