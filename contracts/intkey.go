package contracts

import (
	"fmt"
	"strconv"

	"github.com/ruteri/tee-workorder-service/interfaces"
)

// BoundedCounter ("intkey") keeps a counter inside the inclusive range given
// by its code "<min>,<max>".
type BoundedCounter struct {
	seq sequence

	min, max uint32
	message  Message
	state    State
}

// NewBoundedCounter is the dispatch factory for the "intkey" engine.
func NewBoundedCounter() interfaces.ContractExecutor {
	return &BoundedCounter{}
}

func (c *BoundedCounter) SetCode(code string) error {
	return c.seq.step("SetCode", PhaseCodeSet, func() error {
		lower, rest, err := scanUint(code, DefaultTerminators)
		if err != nil {
			return fmt.Errorf("%w: min: %v", interfaces.ErrCode, err)
		}
		if rest == "" {
			return fmt.Errorf("%w: expected <min>,<max> in %q", interfaces.ErrCode, code)
		}
		upper, _, err := scanUint(rest[1:], DefaultTerminators)
		if err != nil {
			return fmt.Errorf("%w: max: %v", interfaces.ErrCode, err)
		}
		if lower > upper {
			return fmt.Errorf("%w: min %d greater than max %d", interfaces.ErrCode, lower, upper)
		}
		c.min, c.max = lower, upper
		return nil
	}, PhaseFresh)
}

func (c *BoundedCounter) SetMessage(message string, originator string) error {
	return c.seq.step("SetMessage", PhaseMessageSet, func() error {
		m, err := parseMessage(message, originator, false)
		if err != nil {
			return err
		}
		c.message = m
		return nil
	}, PhaseCodeSet)
}

func (c *BoundedCounter) SetInState(state string) error {
	return c.seq.step("SetInState", PhaseStateSet, func() error {
		st, err := ParseState(state)
		if err != nil {
			return err
		}
		c.state = st
		return nil
	}, PhaseMessageSet)
}

// Execute applies the message. Init ignores the terminated flag; every other
// action on a terminated contract fails before it is evaluated. A failed
// Execute leaves the state untouched.
func (c *BoundedCounter) Execute(contractID string, creatorID string) error {
	return c.seq.step("Execute", PhaseExecuted, func() error {
		v := c.message.Value
		if c.message.Action == ActionInit {
			if v < c.min || v > c.max {
				return fmt.Errorf("%w: init value %d outside [%d,%d]", interfaces.ErrParam, v, c.min, c.max)
			}
			c.state.Value = v
			return nil
		}

		if c.state.Terminated {
			return fmt.Errorf("%w: %s on contract %s", interfaces.ErrTerminated, c.message.Action, contractID)
		}

		switch c.message.Action {
		case ActionIncrement:
			if c.state.Value > c.max || v > c.max-c.state.Value {
				return fmt.Errorf("%w: increment %d exceeds max %d from %d", interfaces.ErrParam, v, c.max, c.state.Value)
			}
			c.state.Value += v
		case ActionDecrement:
			if c.state.Value < c.min || v > c.state.Value-c.min {
				return fmt.Errorf("%w: decrement %d below min %d from %d", interfaces.ErrParam, v, c.min, c.state.Value)
			}
			c.state.Value -= v
		case ActionTerminate:
			c.state.Terminated = true
		default:
			return fmt.Errorf("%w: unsupported action %s", interfaces.ErrParam, c.message.Action)
		}
		return nil
	}, PhaseMessageSet, PhaseStateSet)
}

func (c *BoundedCounter) GetResult(capacity int) (string, error) {
	return c.seq.read("GetResult", interfaces.ErrResult, func() (string, error) {
		if capacity < interfaces.MinResultCapacity {
			return "", fmt.Errorf("%w: result capacity %d below minimum %d", interfaces.ErrResult, capacity, interfaces.MinResultCapacity)
		}
		return strconv.FormatUint(uint64(c.state.Value), 10), nil
	})
}

func (c *BoundedCounter) GetOutState(capacity int) (string, error) {
	return c.seq.read("GetOutState", interfaces.ErrState, func() (string, error) {
		return c.state.Encode(capacity)
	})
}
