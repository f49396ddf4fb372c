package contracts

import (
	"fmt"

	"github.com/ruteri/tee-workorder-service/interfaces"
)

// BaseInterpreter implements interfaces.Interpreter with every operation
// returning ErrUnsupported. Variants embed it and override what they support.
type BaseInterpreter struct{}

func (BaseInterpreter) CreateInitialState(interfaces.ContractEnvironment, string, string) (interfaces.ContractOutput, error) {
	return interfaces.ContractOutput{}, fmt.Errorf("%w: CreateInitialState", interfaces.ErrUnsupported)
}

func (BaseInterpreter) SendMessage(interfaces.ContractEnvironment, string, string, string) (interfaces.ContractOutput, error) {
	return interfaces.ContractOutput{}, fmt.Errorf("%w: SendMessage", interfaces.ErrUnsupported)
}

func (BaseInterpreter) ProcessWorkOrder(interfaces.WorkOrderEnvironment, []interfaces.DataItem) error {
	return fmt.Errorf("%w: ProcessWorkOrder", interfaces.ErrUnsupported)
}

// ContractProcessor drives a fresh ContractExecutor through the full call
// sequence for each contract invocation.
type ContractProcessor struct {
	BaseInterpreter
	newExecutor interfaces.ExecutorFactory
}

func NewContractProcessor(factory interfaces.ExecutorFactory) *ContractProcessor {
	return &ContractProcessor{newExecutor: factory}
}

// CreateInitialState runs message against the initial (false, 0) state.
func (p *ContractProcessor) CreateInitialState(env interfaces.ContractEnvironment, code string, message string) (interfaces.ContractOutput, error) {
	return p.invoke(env, code, message, nil)
}

// SendMessage runs message against a previously serialized state.
func (p *ContractProcessor) SendMessage(env interfaces.ContractEnvironment, code string, message string, inState string) (interfaces.ContractOutput, error) {
	return p.invoke(env, code, message, &inState)
}

func (p *ContractProcessor) invoke(env interfaces.ContractEnvironment, code string, message string, inState *string) (interfaces.ContractOutput, error) {
	executor := p.newExecutor()

	if err := executor.SetCode(code); err != nil {
		return interfaces.ContractOutput{}, fmt.Errorf("set contract code: %w", err)
	}
	if err := executor.SetMessage(message, env.OriginatorID); err != nil {
		return interfaces.ContractOutput{}, fmt.Errorf("set contract message: %w", err)
	}
	if inState != nil {
		if err := executor.SetInState(*inState); err != nil {
			return interfaces.ContractOutput{}, fmt.Errorf("set contract state: %w", err)
		}
	}
	if err := executor.Execute(env.ContractID, env.CreatorID); err != nil {
		return interfaces.ContractOutput{}, fmt.Errorf("execute message: %w", err)
	}

	result, err := executor.GetResult(interfaces.MinResultCapacity)
	if err != nil {
		return interfaces.ContractOutput{}, fmt.Errorf("get result: %w", err)
	}
	state, err := executor.GetOutState(interfaces.MinStateCapacity)
	if err != nil {
		return interfaces.ContractOutput{}, fmt.Errorf("get state: %w", err)
	}

	return interfaces.ContractOutput{Result: result, State: state}, nil
}
