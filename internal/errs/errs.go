// Package errs defines the error kinds the command layer renders to users.
//
// Every failure a command handler can see falls into one of five kinds:
// bad user input (Validation), an unknown wallet or network (NotFound), an
// operation attempted in the wrong state (State), a failure surfaced from
// the external shielded-ledger engine (Engine), or unreadable persisted
// state (IO). Handlers branch on the kind, never on message text.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error for user-facing rendering.
type Kind int

const (
	// Validation marks malformed user input: a bad mnemonic, a too-short
	// password, a confirmation mismatch.
	Validation Kind = iota + 1

	// NotFound marks a reference to an unknown wallet id or an unknown or
	// unconnected network.
	NotFound

	// State marks an operation attempted in the wrong state: wallet not
	// loaded, network not connected, engine not initialized.
	State

	// Engine marks any failure surfaced from the external shielded-ledger
	// engine, including explicit not-implemented signals.
	Engine

	// IO marks unreadable or malformed persisted state.
	IO
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case NotFound:
		return "not found"
	case State:
		return "state"
	case Engine:
		return "engine"
	case IO:
		return "io"
	default:
		return "unknown"
	}
}

// Error is a classified error.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error from a format string.
func New(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Wrap classifies an existing error, preserving it for errors.Is/As.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// KindOf returns the kind of err, or 0 if err is unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
