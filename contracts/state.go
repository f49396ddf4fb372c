package contracts

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ruteri/tee-workorder-service/interfaces"
)

// DefaultTerminators ends a numeric field in codes, messages and states.
const DefaultTerminators = ","

// State is the persisted state shared by the built-in executors.
type State struct {
	Terminated bool
	Value      uint32
}

// Encode serializes the state as "<0|1>,<value>". capacity models the
// caller's output buffer and must be at least interfaces.MinStateCapacity.
func (s State) Encode(capacity int) (string, error) {
	if capacity < interfaces.MinStateCapacity {
		return "", fmt.Errorf("%w: state capacity %d below minimum %d", interfaces.ErrState, capacity, interfaces.MinStateCapacity)
	}

	flag := "0"
	if s.Terminated {
		flag = "1"
	}
	return flag + "," + strconv.FormatUint(uint64(s.Value), 10), nil
}

// ParseState decodes a serialized state with the default terminators.
func ParseState(str string) (State, error) {
	return ParseStateWith(str, DefaultTerminators)
}

// ParseStateWith decodes "<0|1><sep><value>". An empty string is the initial
// state. The separator and the end of the value must be one of terminators.
func ParseStateWith(str string, terminators string) (State, error) {
	if str == "" {
		return State{}, nil
	}

	flag, rest, err := scanUint(str, terminators)
	if err != nil {
		return State{}, fmt.Errorf("%w: terminated flag: %v", interfaces.ErrState, err)
	}
	if flag > 1 {
		return State{}, fmt.Errorf("%w: terminated flag must be 0 or 1, got %d", interfaces.ErrState, flag)
	}
	if rest == "" {
		return State{}, fmt.Errorf("%w: missing value", interfaces.ErrState)
	}

	value, _, err := scanUint(rest[1:], terminators)
	if err != nil {
		return State{}, fmt.Errorf("%w: value: %v", interfaces.ErrState, err)
	}

	return State{Terminated: flag == 1, Value: value}, nil
}

// scanUint reads the leading decimal digits of s. The scan must stop at the end
// of s or at a byte in terminators; rest starts at that terminator.
func scanUint(s string, terminators string) (value uint32, rest string, err error) {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, "", fmt.Errorf("expected digits in %q", s)
	}
	if end < len(s) && !strings.ContainsRune(terminators, rune(s[end])) {
		return 0, "", fmt.Errorf("unexpected character %q after number", s[end])
	}

	parsed, err := strconv.ParseUint(s[:end], 10, 32)
	if err != nil || parsed > math.MaxUint32 {
		return 0, "", fmt.Errorf("number %q out of range", s[:end])
	}
	return uint32(parsed), s[end:], nil
}
