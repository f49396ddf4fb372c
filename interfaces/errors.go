package interfaces

import (
	"errors"
	"fmt"
)

// Numeric error codes carried in JSON-RPC error responses.
const (
	CodeSuccess   = 0
	CodeUnknown   = -1
	CodeRuntime   = -4
	CodeValue     = -8
	CodeIntegrity = -11
	CodeNotFound  = -12

	CodeExecCode        = -102
	CodeExecMessage     = -103
	CodeExecState       = -104
	CodeExecParam       = -105
	CodeExecTerminated  = -106
	CodeExecResult      = -107
	CodeExecUnsupported = -110
)

var (
	// ErrValue is returned for malformed or missing request fields.
	ErrValue = errors.New("invalid value")

	// ErrNotFound is returned when no contract or work-order entry matches an identifier.
	ErrNotFound = errors.New("not found")

	ErrCode       = errors.New("invalid contract code")
	ErrMessage    = errors.New("invalid contract message")
	ErrState      = errors.New("invalid contract state")
	ErrParam      = errors.New("invalid contract parameter")
	ErrTerminated = errors.New("contract terminated")
	ErrResult     = errors.New("contract result unavailable")

	// ErrUnsupported is returned by interpreter operations a variant does not implement.
	ErrUnsupported = errors.New("operation not supported")

	// ErrIntegrity is returned when a payload fails decryption or hash verification.
	ErrIntegrity = errors.New("integrity check failed")

	// ErrRuntime covers internal failures such as key unwrapping or serialization.
	ErrRuntime = errors.New("runtime error")

	// ErrOutOfOrder is returned when an executor operation is called before its
	// predecessors succeeded, or after a failure.
	ErrOutOfOrder = fmt.Errorf("%w: executor operation out of order", ErrRuntime)
)

var errorCodes = []struct {
	err  error
	code int
}{
	{ErrValue, CodeValue},
	{ErrNotFound, CodeNotFound},
	{ErrCode, CodeExecCode},
	{ErrMessage, CodeExecMessage},
	{ErrState, CodeExecState},
	{ErrParam, CodeExecParam},
	{ErrTerminated, CodeExecTerminated},
	{ErrResult, CodeExecResult},
	{ErrUnsupported, CodeExecUnsupported},
	{ErrIntegrity, CodeIntegrity},
	{ErrRuntime, CodeRuntime},
}

// ErrorCode maps an error chain to its JSON-RPC code. The first matching kind
// in declaration order wins; unrecognized errors map to CodeUnknown.
func ErrorCode(err error) int {
	if err == nil {
		return CodeSuccess
	}
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return CodeUnknown
}
