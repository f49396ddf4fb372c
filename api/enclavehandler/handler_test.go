package enclavehandler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/tee-workorder-service/api"
	"github.com/ruteri/tee-workorder-service/kms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKMS(t *testing.T) *kms.EnclaveKMS {
	t.Helper()
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i)
	}
	k, err := kms.NewEnclaveKMS(seed)
	require.NoError(t, err)
	return k
}

func TestHandleInfo(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger)

	mux := chi.NewRouter()
	handler.RegisterRoutes(mux)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/enclave/info", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	enclaveKMS := newKMS(t)
	require.NoError(t, handler.SetInfo(enclaveKMS))

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/enclave/info", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.EnclaveInfoResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())

	assert.Equal(t, enclaveKMS.SigningAddress(), resp.SigningAddress)
	assert.Contains(t, resp.EncryptionPubkey, "-----BEGIN PUBLIC KEY-----")
	assert.Equal(t, "dummy", resp.AttestationType)
	assert.NotEmpty(t, resp.Attestation)
}

func TestEnclaveInfoClient(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger)
	enclaveKMS := newKMS(t)
	require.NoError(t, handler.SetInfo(enclaveKMS))

	mux := chi.NewRouter()
	handler.RegisterRoutes(mux)
	server := httptest.NewServer(mux)
	defer server.Close()

	info, err := EnclaveInfo(server.Client(), server.URL, false)
	require.NoError(t, err)
	assert.Equal(t, enclaveKMS.SigningAddress(), info.SigningAddress)
	assert.Equal(t, enclaveKMS.EncryptionPubkey(), info.EncryptionPubkey)

	expected, err := enclaveKMS.Info()
	require.NoError(t, err)
	assert.Equal(t, expected.Attestation, info.Attestation)

	// dummy attestations cannot be verified
	_, err = EnclaveInfo(server.Client(), server.URL, true)
	assert.ErrorContains(t, err, "cannot verify attestation")
}
