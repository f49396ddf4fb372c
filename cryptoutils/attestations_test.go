package cryptoutils

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAttestationProvider(t *testing.T) {
	p, err := NewAttestationProvider("dummy", "")
	require.NoError(t, err)
	require.Equal(t, DummyAttestation, p.AttestationType())

	p, err = NewAttestationProvider("qemu-tdx", "")
	require.NoError(t, err)
	require.Equal(t, DCAPAttestation, p.AttestationType())

	_, err = NewAttestationProvider("remote", "")
	require.Error(t, err)

	_, err = NewAttestationProvider("azure-tdx", "")
	require.True(t, errors.Is(err, errors.ErrUnsupported))
}

func TestRemoteAttestationProvider(t *testing.T) {
	var reportData [64]byte
	reportData[0] = 0xab

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/attest/ab00"))
		w.Write([]byte("quote"))
	}))
	defer srv.Close()

	p, err := NewAttestationProvider("remote", srv.URL)
	require.NoError(t, err)

	quote, err := p.Attest(reportData)
	require.NoError(t, err)
	require.Equal(t, []byte("quote"), quote)
}

func TestDummyAttestationProvider(t *testing.T) {
	var reportData [64]byte
	quote, err := DummyAttestationProvider{}.Attest(reportData)
	require.NoError(t, err)
	require.Contains(t, string(quote), "Attestation for enclave")
}
