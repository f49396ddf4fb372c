package contracts

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ruteri/tee-workorder-service/interfaces"
)

// Action selects what a message does to the contract state.
type Action uint32

const (
	ActionNone Action = iota
	ActionInit
	ActionIncrement
	ActionDecrement
	ActionTerminate
)

var actionNames = map[string]Action{
	"none":      ActionNone,
	"init":      ActionInit,
	"inc":       ActionIncrement,
	"increment": ActionIncrement,
	"dec":       ActionDecrement,
	"decrement": ActionDecrement,
	"term":      ActionTerminate,
	"terminate": ActionTerminate,
}

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionInit:
		return "init"
	case ActionIncrement:
		return "increment"
	case ActionDecrement:
		return "decrement"
	case ActionTerminate:
		return "terminate"
	default:
		return "action(" + strconv.FormatUint(uint64(a), 10) + ")"
	}
}

// Message is a parsed contract message.
type Message struct {
	Action     Action
	Value      uint32
	Originator string
}

// parseMessage decodes "<action>,<value>". The action is a decimal code or a
// case-insensitive name. With bareValue set, a message starting with a digit
// is an Init of its leading number and anything after the first "," is
// ignored; only a message starting with a name is read as "<name>,<value>".
func parseMessage(str string, originator string, bareValue bool) (Message, error) {
	if bareValue && startsWithDigit(str) {
		value, _, err := scanUint(str, DefaultTerminators)
		if err != nil {
			return Message{}, fmt.Errorf("%w: value: %v", interfaces.ErrMessage, err)
		}
		return Message{Action: ActionInit, Value: value, Originator: originator}, nil
	}

	actionTok, valueTok, found := strings.Cut(str, ",")
	if !found {
		return Message{}, fmt.Errorf("%w: expected <action>,<value> in %q", interfaces.ErrMessage, str)
	}

	action, err := parseAction(actionTok)
	if err != nil {
		return Message{}, err
	}

	value, _, err := scanUint(valueTok, DefaultTerminators)
	if err != nil {
		return Message{}, fmt.Errorf("%w: value: %v", interfaces.ErrMessage, err)
	}

	return Message{Action: action, Value: value, Originator: originator}, nil
}

func startsWithDigit(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}

func parseAction(tok string) (Action, error) {
	if startsWithDigit(tok) {
		code, _, err := scanUint(tok, "")
		if err != nil {
			return 0, fmt.Errorf("%w: action: %v", interfaces.ErrMessage, err)
		}
		return Action(code), nil
	}

	action, ok := actionNames[strings.ToLower(strings.TrimSpace(tok))]
	if !ok {
		return 0, fmt.Errorf("%w: unknown action %q", interfaces.ErrMessage, tok)
	}
	return action, nil
}
