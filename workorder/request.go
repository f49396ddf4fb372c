package workorder

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ruteri/tee-workorder-service/interfaces"
)

// defaultRequestID is echoed when a request carries no usable id.
var defaultRequestID = json.RawMessage("0")

type rpcRequest struct {
	ID     json.RawMessage            `json:"id"`
	Params map[string]json.RawMessage `json:"params"`
}

var requiredParams = []struct {
	name   string
	what   string
	setter func(*interfaces.WorkOrderRequest, string)
}{
	{"WorkOrderId", "work order id", func(r *interfaces.WorkOrderRequest, v string) { r.WorkOrderID = v }},
	{"ParticipantSignature", "participant signature", func(r *interfaces.WorkOrderRequest, v string) { r.ParticipantSignature = v }},
	{"ParticipantGeneratedNonce", "participant generated nonce", func(r *interfaces.WorkOrderRequest, v string) { r.ParticipantGeneratedNonce = v }},
	{"TcServiceAddress", "TC service address", func(r *interfaces.WorkOrderRequest, v string) { r.TcServiceAddress = v }},
	{"EnclaveId", "enclave id", func(r *interfaces.WorkOrderRequest, v string) { r.EnclaveID = v }},
	{"ParticipantAddress", "participant address", func(r *interfaces.WorkOrderRequest, v string) { r.ParticipantAddress = v }},
}

// requestID extracts the JSON-RPC id without validating the rest of the
// request, so even malformed requests get their id echoed back.
func requestID(raw []byte) json.RawMessage {
	var envelope struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return defaultRequestID
	}
	return normalizeID(envelope.ID)
}

func normalizeID(id json.RawMessage) json.RawMessage {
	id = bytes.TrimSpace(id)
	if len(id) == 0 || bytes.Equal(id, []byte("null")) {
		return defaultRequestID
	}
	return id
}

// ParseRequest decodes a work-order JSON-RPC request and unpacks every data
// item. Each required parameter must be a non-empty string.
func ParseRequest(raw []byte, unwrapper interfaces.KeyUnwrapper) (*interfaces.WorkOrderRequest, error) {
	var rpc rpcRequest
	if err := json.Unmarshal(raw, &rpc); err != nil {
		return nil, fmt.Errorf("%w: failed to parse the work order request, badly formed JSON: %v", interfaces.ErrValue, err)
	}
	if rpc.Params == nil {
		return nil, fmt.Errorf("%w: missing params object in work order request", interfaces.ErrValue)
	}

	req := &interfaces.WorkOrderRequest{ID: normalizeID(rpc.ID)}
	for _, p := range requiredParams {
		var value string
		if err := json.Unmarshal(rpc.Params[p.name], &value); err != nil || value == "" {
			return nil, fmt.Errorf("%w: invalid request; failed to retrieve %s", interfaces.ErrValue, p.what)
		}
		p.setter(req, value)
	}

	var data []json.RawMessage
	if raw, ok := rpc.Params["Data"]; ok {
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("%w: invalid request; Data must be an array: %v", interfaces.ErrValue, err)
		}
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: invalid request; failed to retrieve work order data", interfaces.ErrValue)
	}

	req.Items = make([]interfaces.DataItem, 0, len(data))
	for i, rawItem := range data {
		item, err := Unpack(rawItem, unwrapper)
		if err != nil {
			return nil, fmt.Errorf("data item %d: %w", i, err)
		}
		req.Items = append(req.Items, item)
	}

	return req, nil
}

// codeItem returns the index of the single "code" item.
func codeItem(items []interfaces.DataItem) (int, error) {
	idx := -1
	for i := range items {
		if items[i].DataType != interfaces.DataTypeCode {
			continue
		}
		if idx >= 0 {
			return -1, fmt.Errorf("%w: work order has more than one code item", interfaces.ErrValue)
		}
		idx = i
	}
	if idx < 0 {
		return -1, fmt.Errorf("%w: work order code item not found", interfaces.ErrValue)
	}
	return idx, nil
}

// findItem returns the first item of dataType, or -1.
func findItem(items []interfaces.DataItem, dataType string) int {
	for i := range items {
		if items[i].DataType == dataType {
			return i
		}
	}
	return -1
}
