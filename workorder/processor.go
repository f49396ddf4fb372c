package workorder

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ruteri/tee-workorder-service/contracts"
	"github.com/ruteri/tee-workorder-service/dispatch"
	"github.com/ruteri/tee-workorder-service/interfaces"
)

// Stage is the last pipeline step a work order reached.
type Stage int

const (
	StageReceived Stage = iota
	StageParsed
	StageVerified
	StageExecuted
	StageSigned
	StageSerialized
)

func (s Stage) String() string {
	switch s {
	case StageReceived:
		return "received"
	case StageParsed:
		return "parsed"
	case StageVerified:
		return "verified"
	case StageExecuted:
		return "executed"
	case StageSigned:
		return "signed"
	case StageSerialized:
		return "serialized"
	default:
		return "unknown"
	}
}

const unknownErrorMessage = "unknown internal error"

// Recorder receives one observation per processed work order.
type Recorder interface {
	ObserveWorkOrder(stage, outcome string, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveWorkOrder(string, string, time.Duration) {}

// AcceptAllVerifier accepts every participant signature.
type AcceptAllVerifier struct{}

func (AcceptAllVerifier) VerifyParticipantSignature(*interfaces.WorkOrderRequest) bool { return true }

// Result is the success payload of a work-order response. The enclave signs
// the JSON encoding of SignedPayload.
type Result struct {
	WorkOrderID           string       `json:"WorkOrderId"`
	Data                  []PackedItem `json:"Data"`
	EnclaveGeneratedNonce string       `json:"EnclaveGeneratedNonce"`
	EnclaveSignature      string       `json:"EnclaveSignature"`
}

// SignedPayload is the part of a Result covered by the enclave signature.
type SignedPayload struct {
	WorkOrderID string       `json:"WorkOrderId"`
	Data        []PackedItem `json:"Data"`
}

// SigningPayload returns the bytes the enclave signature is computed over.
func (r *Result) SigningPayload() ([]byte, error) {
	return json.Marshal(SignedPayload{WorkOrderID: r.WorkOrderID, Data: r.Data})
}

type successResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  *Result         `json:"result"`
}

// RPCError is the error member of a JSON-RPC error response.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Error   RPCError        `json:"error"`
}

// Outcome is everything Process learned about one work order. Response is
// always set; Result is set only on success.
type Outcome struct {
	Response []byte
	Result   *Result
	Stage    Stage
	Err      error
}

// Processor turns a raw work-order request into a JSON-RPC response. It holds
// no per-request state and is safe for concurrent use.
type Processor struct {
	registry  *dispatch.Registry
	unwrapper interfaces.KeyUnwrapper
	signer    interfaces.Signer
	verifier  interfaces.ParticipantVerifier
	recorder  Recorder
	log       *slog.Logger
}

func NewProcessor(registry *dispatch.Registry, unwrapper interfaces.KeyUnwrapper, signer interfaces.Signer, log *slog.Logger) *Processor {
	return &Processor{
		registry:  registry,
		unwrapper: unwrapper,
		signer:    signer,
		verifier:  AcceptAllVerifier{},
		recorder:  nopRecorder{},
		log:       log,
	}
}

// WithVerifier returns a copy of the processor checking participant
// signatures with v.
func (p *Processor) WithVerifier(v interfaces.ParticipantVerifier) *Processor {
	cp := *p
	cp.verifier = v
	return &cp
}

// WithRecorder returns a copy of the processor reporting to r.
func (p *Processor) WithRecorder(r Recorder) *Processor {
	cp := *p
	cp.recorder = r
	return &cp
}

// Process handles one request and returns the serialized response.
func (p *Processor) Process(raw []byte) []byte {
	return p.ProcessRequest(raw).Response
}

// ProcessRequest handles one request. Failures never escape: they are
// reported as a JSON-RPC error response in Outcome.Response.
func (p *Processor) ProcessRequest(raw []byte) Outcome {
	start := time.Now()
	outcome := p.process(raw)

	label := "success"
	if outcome.Err != nil {
		label = "error"
	}
	p.recorder.ObserveWorkOrder(outcome.Stage.String(), label, time.Since(start))
	return outcome
}

func (p *Processor) process(raw []byte) Outcome {
	stage := StageReceived
	id := requestID(raw)
	workOrderID := ""

	fail := func(err error) Outcome {
		p.log.Error("work order failed", "workOrderId", workOrderID, "stage", stage.String(), "err", err)
		return Outcome{Response: errorResponseFor(id, err), Stage: stage, Err: err}
	}

	req, err := ParseRequest(raw, p.unwrapper)
	if err != nil {
		return fail(err)
	}
	id, workOrderID = req.ID, req.WorkOrderID
	stage = StageParsed

	if !p.verifier.VerifyParticipantSignature(req) {
		return fail(fmt.Errorf("%w: participant signature verification failed", interfaces.ErrIntegrity))
	}
	stage = StageVerified

	packed, err := p.execute(req)
	if err != nil {
		return fail(err)
	}
	stage = StageExecuted

	result := &Result{WorkOrderID: req.WorkOrderID, Data: packed}
	payload, err := result.SigningPayload()
	if err != nil {
		return fail(fmt.Errorf("%w: could not encode signing payload: %v", interfaces.ErrRuntime, err))
	}
	nonce, signature, err := p.signer.Sign(payload)
	if err != nil {
		return fail(fmt.Errorf("%w: could not sign work order result: %v", interfaces.ErrRuntime, err))
	}
	result.EnclaveGeneratedNonce, result.EnclaveSignature = nonce, signature
	stage = StageSigned

	response, err := json.Marshal(successResponse{JSONRPC: "2.0", ID: id, Result: result})
	if err != nil {
		return fail(fmt.Errorf("%w: work order response serialization failed: %v", interfaces.ErrRuntime, err))
	}
	stage = StageSerialized

	p.log.Debug("work order processed", "workOrderId", workOrderID, "stage", stage.String(), "items", len(packed))
	return Outcome{Response: response, Result: result, Stage: stage}
}

// execute resolves the code item and runs either the raw work-order
// interpreter or the contract path, returning the packed outputs.
func (p *Processor) execute(req *interfaces.WorkOrderRequest) ([]PackedItem, error) {
	idx, err := codeItem(req.Items)
	if err != nil {
		return nil, err
	}

	target, err := p.registry.Resolve(string(req.Items[idx].DecryptedInput))
	if err != nil {
		return nil, err
	}

	if target.Interpreter != nil {
		return p.executeWorkOrder(req, target)
	}
	return p.executeContract(req, target)
}

// executeWorkOrder runs a raw interpreter over copies of the items. Every
// non-empty output is packed once for each request item of the same type.
func (p *Processor) executeWorkOrder(req *interfaces.WorkOrderRequest, target dispatch.Target) ([]PackedItem, error) {
	env := interfaces.WorkOrderEnvironment{
		CodeID:             target.Code,
		TcServiceAddress:   req.TcServiceAddress,
		ParticipantAddress: req.ParticipantAddress,
		EnclaveID:          req.EnclaveID,
		WorkOrderID:        req.WorkOrderID,
	}

	outputs := cloneItems(req.Items)
	if err := target.Interpreter().ProcessWorkOrder(env, outputs); err != nil {
		return nil, err
	}

	packed := []PackedItem{}
	for _, out := range outputs {
		if len(out.DecryptedOutput) == 0 {
			continue
		}
		for i := range req.Items {
			if req.Items[i].DataType != out.DataType {
				continue
			}
			req.Items[i].DecryptedOutput = out.DecryptedOutput
			item, err := Pack(&req.Items[i])
			if err != nil {
				return nil, err
			}
			packed = append(packed, item)
		}
	}
	return packed, nil
}

// executeContract drives the resolved executor. A non-empty state item means
// the message is sent to existing state; otherwise the state is created. The
// first message and state items are the inputs. Like work order outputs, the
// result and new state are packed into every item of their type.
func (p *Processor) executeContract(req *interfaces.WorkOrderRequest, target dispatch.Target) ([]PackedItem, error) {
	msgIdx := findItem(req.Items, interfaces.DataTypeMessage)
	if msgIdx < 0 {
		return nil, fmt.Errorf("%w: work order message item not found", interfaces.ErrValue)
	}
	stateIdx := findItem(req.Items, interfaces.DataTypeState)

	env := interfaces.ContractEnvironment{
		ContractID:   req.WorkOrderID,
		CreatorID:    req.ParticipantAddress,
		OriginatorID: req.ParticipantAddress,
	}
	processor := contracts.NewContractProcessor(target.Executor)
	message := string(req.Items[msgIdx].DecryptedInput)

	var out interfaces.ContractOutput
	var err error
	if stateIdx >= 0 && len(req.Items[stateIdx].DecryptedInput) > 0 {
		out, err = processor.SendMessage(env, target.Code, message, string(req.Items[stateIdx].DecryptedInput))
	} else {
		out, err = processor.CreateInitialState(env, target.Code, message)
	}
	if err != nil {
		return nil, err
	}

	for i := range req.Items {
		switch req.Items[i].DataType {
		case interfaces.DataTypeResult:
			req.Items[i].DecryptedOutput = []byte(out.Result)
		case interfaces.DataTypeState:
			req.Items[i].DecryptedOutput = []byte(out.State)
		}
	}

	packed := []PackedItem{}
	for i := range req.Items {
		if len(req.Items[i].DecryptedOutput) == 0 {
			continue
		}
		item, err := Pack(&req.Items[i])
		if err != nil {
			return nil, err
		}
		packed = append(packed, item)
	}
	return packed, nil
}

// errorResponseFor builds a JSON-RPC error response. Errors outside the known
// kinds are reported with a generic message.
func errorResponseFor(id json.RawMessage, err error) []byte {
	code := interfaces.ErrorCode(err)
	message := err.Error()
	if code == interfaces.CodeUnknown {
		message = unknownErrorMessage
	}

	resp, mErr := json.Marshal(errorResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   RPCError{Code: code, Message: message},
	})
	if mErr != nil {
		// id was not valid JSON; fall back to the default id.
		resp, _ = json.Marshal(errorResponse{
			JSONRPC: "2.0",
			ID:      defaultRequestID,
			Error:   RPCError{Code: code, Message: message},
		})
	}
	return resp
}

// DecodeResponse parses a serialized response into its result or error.
func DecodeResponse(raw []byte) (*Result, *RPCError, error) {
	var resp struct {
		Result *Result   `json:"result"`
		Error  *RPCError `json:"error"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, nil, err
	}
	if resp.Result == nil && resp.Error == nil {
		return nil, nil, errors.New("response has neither result nor error")
	}
	return resp.Result, resp.Error, nil
}
