// Package interfaces defines core interfaces and types for the work-order
// enclave service, separating interface definitions from implementations.
//
// # Work Orders
//
// WorkOrderRequest and DataItem describe a parsed JSON-RPC work order. Items
// carry a type tag ("code", "message", "state", "result", "plain", ...) and,
// once unpacked, their decrypted input together with the per-item symmetric key.
//
// # Execution
//
// ContractExecutor: a single-use state machine driven through
// SetCode, SetMessage, SetInState, Execute, GetResult and GetOutState.
//
// Interpreter: the capability set resolved from the dispatch registry. Contract
// variants implement CreateInitialState and SendMessage; raw work-order variants
// implement ProcessWorkOrder. Everything else returns ErrUnsupported.
//
// # Enclave Collaborators
//
// KeyUnwrapper, Signer and ParticipantVerifier are the narrow capabilities the
// pipeline consumes. EnclaveKMS bundles the first two with enclave metadata.
//
// # Storage Interfaces
//
// StorageBackend: content-addressed storage used to archive work-order outputs
// across multiple backend types (file, S3, IPFS, Vault).
//
// # Errors
//
// Every failure carries one of the sentinel kinds declared in errors.go.
// ErrorCode maps a wrapped error to the numeric code reported to clients.
package interfaces
