// Package contracts implements the built-in contract executors ("intkey" and
// "echo"), the state and message encodings they share, and the interpreters
// that drive executors for the work-order processor.
//
// An executor is used once. Its methods must be called in the order
// SetCode, SetMessage, optionally SetInState, Execute, then GetResult and
// GetOutState. Any failure is sticky and later calls report ErrOutOfOrder.
package contracts
