package adminhandler

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ruteri/tee-workorder-service/api"
	"github.com/ruteri/tee-workorder-service/kms"
)

// SubmitShare signs share with the admin key and posts it to the server.
func SubmitShare(client *http.Client, url string, share []byte, adminKey *ecdsa.PrivateKey, adminPubkeyPEM []byte) (*api.RecoveryStatusResponse, error) {
	signature, err := kms.SignShare(share, adminKey)
	if err != nil {
		return nil, fmt.Errorf("could not sign share: %w", err)
	}

	body, err := json.Marshal(api.ShareSubmission{
		AdminPubkey: string(adminPubkeyPEM),
		Share:       base64.StdEncoding.EncodeToString(share),
		Signature:   base64.StdEncoding.EncodeToString(signature),
	})
	if err != nil {
		return nil, err
	}

	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Post(strings.TrimSuffix(url, "/")+"/api/admin/share", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("could not submit share: %w", err)
	}
	return decodeStatus(resp)
}

// Status fetches the seed recovery progress.
func Status(client *http.Client, url string) (*api.RecoveryStatusResponse, error) {
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Get(strings.TrimSuffix(url, "/") + "/api/admin/status")
	if err != nil {
		return nil, fmt.Errorf("could not request recovery status: %w", err)
	}
	return decodeStatus(resp)
}

func decodeStatus(resp *http.Response) (*api.RecoveryStatusResponse, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var status api.RecoveryStatusResponse
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("could not parse recovery status: %w", err)
	}
	return &status, nil
}
