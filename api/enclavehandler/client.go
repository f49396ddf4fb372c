package enclavehandler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ruteri/tee-workorder-service/api"
	"github.com/ruteri/tee-workorder-service/cryptoutils"
	"github.com/ruteri/tee-workorder-service/interfaces"
)

// EnclaveInfo fetches the enclave info from the server at url. With verify
// set, the attestation must be a TDX quote committing to the returned keys.
func EnclaveInfo(client *http.Client, url string, verify bool) (*interfaces.EnclaveInfo, error) {
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Get(strings.TrimSuffix(url, "/") + "/api/enclave/info")
	if err != nil {
		return nil, fmt.Errorf("could not request enclave info: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read enclave info: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("enclave info request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var infoResp api.EnclaveInfoResponse
	if err := json.Unmarshal(body, &infoResp); err != nil {
		return nil, fmt.Errorf("could not parse enclave info: %w", err)
	}

	info, err := infoResp.EnclaveInfo()
	if err != nil {
		return nil, err
	}

	if verify {
		if err := VerifyEnclaveInfo(info); err != nil {
			return nil, err
		}
	}
	return &info, nil
}

// VerifyEnclaveInfo checks the attestation against the enclave keys.
func VerifyEnclaveInfo(info interfaces.EnclaveInfo) error {
	switch info.AttestationType {
	case cryptoutils.DCAPAttestation.StringID:
		if _, err := cryptoutils.VerifyDCAPAttestation(info.ReportData(), info.Attestation); err != nil {
			return fmt.Errorf("enclave attestation invalid: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("cannot verify attestation of type %q", info.AttestationType)
	}
}
