package contracts

import (
	"fmt"
	"strconv"

	"github.com/ruteri/tee-workorder-service/interfaces"
)

// Echo stores whatever value it is sent. Its code is opaque and messages may
// be a bare "<value>".
type Echo struct {
	seq sequence

	code    string
	message Message
	state   State
}

// NewEcho is the dispatch factory for the "echo" engine.
func NewEcho() interfaces.ContractExecutor {
	return &Echo{}
}

func (e *Echo) SetCode(code string) error {
	return e.seq.step("SetCode", PhaseCodeSet, func() error {
		e.code = code
		return nil
	}, PhaseFresh)
}

func (e *Echo) SetMessage(message string, originator string) error {
	return e.seq.step("SetMessage", PhaseMessageSet, func() error {
		m, err := parseMessage(message, originator, true)
		if err != nil {
			return err
		}
		e.message = m
		return nil
	}, PhaseCodeSet)
}

func (e *Echo) SetInState(state string) error {
	return e.seq.step("SetInState", PhaseStateSet, func() error {
		st, err := ParseState(state)
		if err != nil {
			return err
		}
		e.state = st
		return nil
	}, PhaseMessageSet)
}

// Execute rejects every action on a terminated contract. Terminate sets the
// flag; any other action copies the message value without bound checks.
func (e *Echo) Execute(contractID string, creatorID string) error {
	return e.seq.step("Execute", PhaseExecuted, func() error {
		if e.state.Terminated {
			return fmt.Errorf("%w: %s on contract %s", interfaces.ErrTerminated, e.message.Action, contractID)
		}
		if e.message.Action == ActionTerminate {
			e.state.Terminated = true
			return nil
		}
		e.state.Value = e.message.Value
		return nil
	}, PhaseMessageSet, PhaseStateSet)
}

func (e *Echo) GetResult(capacity int) (string, error) {
	return e.seq.read("GetResult", interfaces.ErrResult, func() (string, error) {
		if capacity < interfaces.MinResultCapacity {
			return "", fmt.Errorf("%w: result capacity %d below minimum %d", interfaces.ErrResult, capacity, interfaces.MinResultCapacity)
		}
		return strconv.FormatUint(uint64(e.state.Value), 10), nil
	})
}

func (e *Echo) GetOutState(capacity int) (string, error) {
	return e.seq.read("GetOutState", interfaces.ErrState, func() (string, error) {
		return e.state.Encode(capacity)
	})
}
