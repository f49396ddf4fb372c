package contracts

import (
	"fmt"

	"github.com/ruteri/tee-workorder-service/interfaces"
)

// EchoResult is a raw work-order interpreter: it copies the decrypted
// "message" input into the "result" output.
type EchoResult struct {
	BaseInterpreter
}

// NewEchoResult is the dispatch factory for the "echo-result:" work order.
func NewEchoResult() interfaces.Interpreter {
	return &EchoResult{}
}

func (EchoResult) ProcessWorkOrder(env interfaces.WorkOrderEnvironment, items []interfaces.DataItem) error {
	message, result := -1, -1
	for i := range items {
		switch items[i].DataType {
		case interfaces.DataTypeMessage:
			message = i
		case interfaces.DataTypeResult:
			result = i
		}
	}
	if message < 0 {
		return fmt.Errorf("%w: work order %s has no message item", interfaces.ErrValue, env.WorkOrderID)
	}
	if result < 0 {
		return fmt.Errorf("%w: work order %s has no result item", interfaces.ErrValue, env.WorkOrderID)
	}

	items[result].DecryptedOutput = append([]byte(nil), items[message].DecryptedInput...)
	return nil
}
