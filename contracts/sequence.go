package contracts

import (
	"fmt"

	"github.com/ruteri/tee-workorder-service/interfaces"
)

// Phase is how far an executor has progressed through its call sequence.
type Phase int

const (
	PhaseFresh Phase = iota
	PhaseCodeSet
	PhaseMessageSet
	PhaseStateSet
	PhaseExecuted
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseFresh:
		return "fresh"
	case PhaseCodeSet:
		return "code-set"
	case PhaseMessageSet:
		return "message-set"
	case PhaseStateSet:
		return "state-set"
	case PhaseExecuted:
		return "executed"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// sequence enforces the executor call order. A failed step is sticky: every
// later call reports ErrOutOfOrder along with the original failure.
type sequence struct {
	phase  Phase
	failed error
}

// step runs fn if the current phase is one of from, advancing to next on
// success and to PhaseFailed otherwise.
func (s *sequence) step(op string, next Phase, fn func() error, from ...Phase) error {
	if s.phase == PhaseFailed {
		return fmt.Errorf("%w: %s after failure: %v", interfaces.ErrOutOfOrder, op, s.failed)
	}

	allowed := false
	for _, p := range from {
		if s.phase == p {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: %s in phase %s", interfaces.ErrOutOfOrder, op, s.phase)
	}

	if err := fn(); err != nil {
		s.phase = PhaseFailed
		s.failed = err
		return err
	}
	s.phase = next
	return nil
}

// read runs fn only after a successful Execute and leaves the phase unchanged.
// Early reads carry kind as well as ErrOutOfOrder.
func (s *sequence) read(op string, kind error, fn func() (string, error)) (string, error) {
	if s.phase == PhaseFailed {
		return "", fmt.Errorf("%w: %w: %s after failure: %v", kind, interfaces.ErrOutOfOrder, op, s.failed)
	}
	if s.phase != PhaseExecuted {
		return "", fmt.Errorf("%w: %w: %s in phase %s", kind, interfaces.ErrOutOfOrder, op, s.phase)
	}
	return fn()
}
