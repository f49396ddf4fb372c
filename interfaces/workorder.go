package interfaces

import "encoding/json"

// Data item type tags recognised by the pipeline.
const (
	DataTypeCode    = "code"
	DataTypeMessage = "message"
	DataTypeResult  = "result"
	DataTypeState   = "state"
	DataTypePlain   = "plain"
)

// Executor buffer minimums. Callers pass these as capacity to
// ContractExecutor.GetOutState and ContractExecutor.GetResult.
const (
	MinStateCapacity  = 13
	MinResultCapacity = 100
)

// DataItem is one element of a work order's Data array after unpacking.
// An empty DataEncryptionKey means the payload travels in plaintext.
type DataItem struct {
	DataType          string
	DataEncryptionKey []byte
	DecryptedInput    []byte
	DecryptedOutput   []byte
	InputHash         []byte
	OutputHash        []byte
	OutputLink        string
}

// WorkOrderRequest is a parsed work-order JSON-RPC call. ID is kept verbatim so
// it can be echoed back in either response shape.
type WorkOrderRequest struct {
	ID json.RawMessage

	WorkOrderID               string
	ParticipantSignature      string
	ParticipantGeneratedNonce string
	TcServiceAddress          string
	EnclaveID                 string
	ParticipantAddress        string

	Items []DataItem
}

// KeyUnwrapper recovers per-item symmetric keys wrapped to the enclave.
type KeyUnwrapper interface {
	UnwrapDataKey(encryptedKey []byte) ([]byte, error)
}

// Signer produces the enclave nonce and signature over a serialized result.
type Signer interface {
	Sign(payload []byte) (nonce string, signature string, err error)
}

// ParticipantVerifier checks the participant's signature over a request.
type ParticipantVerifier interface {
	VerifyParticipantSignature(req *WorkOrderRequest) bool
}

// ContractExecutor is a single-use state machine. Operations must be called
// in order: SetCode, SetMessage, optionally SetInState, Execute, then any of
// GetResult and GetOutState. Calls made out of that order return ErrOutOfOrder.
type ContractExecutor interface {
	SetCode(code string) error
	SetMessage(message string, originator string) error
	SetInState(state string) error
	Execute(contractID string, creatorID string) error
	GetResult(capacity int) (string, error)
	GetOutState(capacity int) (string, error)
}

// ExecutorFactory returns a fresh executor for each invocation.
type ExecutorFactory func() ContractExecutor

// ContractEnvironment identifies the contract instance and the caller.
type ContractEnvironment struct {
	ContractID   string
	CreatorID    string
	OriginatorID string
}

// ContractOutput is what a contract invocation produces.
type ContractOutput struct {
	Result string
	State  string
}

// WorkOrderEnvironment carries the request fields exposed to raw work-order interpreters.
type WorkOrderEnvironment struct {
	CodeID             string
	TcServiceAddress   string
	ParticipantAddress string
	EnclaveID          string
	WorkOrderID        string
}

// Interpreter is the capability set shared by contract and raw work-order
// variants. Variants return ErrUnsupported for operations they do not implement.
type Interpreter interface {
	CreateInitialState(env ContractEnvironment, code string, message string) (ContractOutput, error)
	SendMessage(env ContractEnvironment, code string, message string, inState string) (ContractOutput, error)

	// ProcessWorkOrder receives every decrypted item and sets DecryptedOutput
	// on the items it produces.
	ProcessWorkOrder(env WorkOrderEnvironment, items []DataItem) error
}

// InterpreterFactory returns a fresh interpreter for each invocation.
type InterpreterFactory func() Interpreter
