// Package dispatch maps contract and work-order identifiers to the factories
// that build their executors and interpreters.
package dispatch

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ruteri/tee-workorder-service/contracts"
	"github.com/ruteri/tee-workorder-service/interfaces"
)

var (
	ErrEmptyIdentifier     = errors.New("dispatch identifier must not be empty")
	ErrNilFactory          = errors.New("dispatch factory must not be nil")
	ErrDuplicateIdentifier = errors.New("dispatch identifier already registered")
	ErrEmptyRegistry       = errors.New("dispatch registry has no entries")
)

// Builder collects registrations before the registry is sealed. It is not
// safe for concurrent use.
type Builder struct {
	contracts  map[string]interfaces.ExecutorFactory
	workOrders map[string]interfaces.InterpreterFactory
	err        error
}

func NewBuilder() *Builder {
	return &Builder{
		contracts:  make(map[string]interfaces.ExecutorFactory),
		workOrders: make(map[string]interfaces.InterpreterFactory),
	}
}

// RegisterContract binds an engine name ("intkey") to an executor factory.
// The first registration error is kept and returned by Build.
func (b *Builder) RegisterContract(engine string, factory interfaces.ExecutorFactory) *Builder {
	if b.err != nil {
		return b
	}
	switch {
	case engine == "":
		b.err = fmt.Errorf("contract: %w", ErrEmptyIdentifier)
	case factory == nil:
		b.err = fmt.Errorf("contract %q: %w", engine, ErrNilFactory)
	case b.contracts[engine] != nil:
		b.err = fmt.Errorf("contract %q: %w", engine, ErrDuplicateIdentifier)
	default:
		b.contracts[engine] = factory
	}
	return b
}

// RegisterWorkOrder binds a work-order prefix, including its trailing ':'
// ("echo-result:"), to an interpreter factory.
func (b *Builder) RegisterWorkOrder(prefix string, factory interfaces.InterpreterFactory) *Builder {
	if b.err != nil {
		return b
	}
	switch {
	case prefix == "":
		b.err = fmt.Errorf("work order: %w", ErrEmptyIdentifier)
	case !strings.HasSuffix(prefix, ":") || strings.Count(prefix, ":") != 1:
		b.err = fmt.Errorf("work order %q: prefix must end with its only ':'", prefix)
	case factory == nil:
		b.err = fmt.Errorf("work order %q: %w", prefix, ErrNilFactory)
	case b.workOrders[prefix] != nil:
		b.err = fmt.Errorf("work order %q: %w", prefix, ErrDuplicateIdentifier)
	default:
		b.workOrders[prefix] = factory
	}
	return b
}

// Build seals the registrations into a Registry.
func (b *Builder) Build() (*Registry, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.contracts) == 0 && len(b.workOrders) == 0 {
		return nil, ErrEmptyRegistry
	}

	r := &Registry{
		contracts:  make(map[string]interfaces.ExecutorFactory, len(b.contracts)),
		workOrders: make(map[string]interfaces.InterpreterFactory, len(b.workOrders)),
	}
	for k, v := range b.contracts {
		r.contracts[k] = v
	}
	for k, v := range b.workOrders {
		r.workOrders[k] = v
	}
	return r, nil
}

// Registry is immutable once built and safe for concurrent lookups.
type Registry struct {
	contracts  map[string]interfaces.ExecutorFactory
	workOrders map[string]interfaces.InterpreterFactory
}

// SplitCode separates a code identifier "<body>:<engine>". Exactly one ':'
// is allowed.
func SplitCode(identifier string) (body string, engine string, err error) {
	if strings.Count(identifier, ":") != 1 {
		return "", "", fmt.Errorf("%w: identifier %q must contain exactly one ':'", interfaces.ErrCode, identifier)
	}
	body, engine, _ = strings.Cut(identifier, ":")
	return body, engine, nil
}

// ResolveContract looks up the executor factory for the engine named after
// the ':' in identifier.
func (r *Registry) ResolveContract(identifier string) (interfaces.ExecutorFactory, error) {
	_, engine, err := SplitCode(identifier)
	if err != nil {
		return nil, err
	}
	factory, ok := r.contracts[engine]
	if !ok {
		return nil, fmt.Errorf("%w: contract engine %q", interfaces.ErrNotFound, engine)
	}
	return factory, nil
}

// ResolveWorkOrder looks up the interpreter factory registered for the
// identifier's prefix up to and including its first ':'.
func (r *Registry) ResolveWorkOrder(identifier string) (interfaces.InterpreterFactory, error) {
	idx := strings.IndexByte(identifier, ':')
	if idx < 0 {
		return nil, fmt.Errorf("%w: work order %q has no ':'", interfaces.ErrNotFound, identifier)
	}
	factory, ok := r.workOrders[identifier[:idx+1]]
	if !ok {
		return nil, fmt.Errorf("%w: work order %q", interfaces.ErrNotFound, identifier[:idx+1])
	}
	return factory, nil
}

// Target is what a code identifier resolved to. Exactly one of Interpreter
// (raw work order) and Executor (contract) is set.
type Target struct {
	Interpreter interfaces.InterpreterFactory
	Executor    interfaces.ExecutorFactory
	Code        string
}

// Resolve tries the work-order table first and falls back to the contract
// table. Code is the text the selected variant receives.
func (r *Registry) Resolve(identifier string) (Target, error) {
	if factory, err := r.ResolveWorkOrder(identifier); err == nil {
		return Target{Interpreter: factory, Code: identifier}, nil
	}

	factory, err := r.ResolveContract(identifier)
	if err != nil {
		return Target{}, err
	}
	body, _, _ := SplitCode(identifier)
	return Target{Executor: factory, Code: body}, nil
}

// Contracts lists the registered engine names in sorted order.
func (r *Registry) Contracts() []string {
	return sortedKeys(r.contracts)
}

// WorkOrders lists the registered work-order prefixes in sorted order.
func (r *Registry) WorkOrders() []string {
	return sortedKeys(r.workOrders)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// NewDefaultRegistry registers the built-in executors and interpreters.
func NewDefaultRegistry() (*Registry, error) {
	return NewBuilder().
		RegisterContract("intkey", contracts.NewBoundedCounter).
		RegisterContract("echo", contracts.NewEcho).
		RegisterWorkOrder("echo-result:", contracts.NewEchoResult).
		Build()
}
