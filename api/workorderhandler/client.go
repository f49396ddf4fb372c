package workorderhandler

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Submit posts a raw work-order request to the server at url and returns
// the raw JSON-RPC response. JSON-RPC errors are not Go errors here; use
// workorder.DecodeResponse to inspect the body.
func Submit(client *http.Client, url string, request []byte) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Post(strings.TrimSuffix(url, "/")+"/api/workorder", "application/json", bytes.NewReader(request))
	if err != nil {
		return nil, fmt.Errorf("could not submit work order: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read work order response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("work order rejected with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return body, nil
}
