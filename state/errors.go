package state

import (
	"errors"
	"fmt"
)

var (
	// ErrPreconditionViolation is returned when an operator is applied to a
	// state that does not satisfy its precondition.
	ErrPreconditionViolation = errors.New("state: operator precondition not satisfied")

	// ErrRepresentationMismatch signals that explicit and symbolic values
	// were mixed in one call.
	ErrRepresentationMismatch = errors.New("state: explicit and symbolic representations mixed")

	// ErrFreed signals use of a state or condition after Free.
	ErrFreed = errors.New("state: use after free")

	// ErrDuplicateOperator is returned when two operators share a name.
	ErrDuplicateOperator = errors.New("state: duplicate operator name")
)

// PreconditionError reports an Apply call with a disabled operator.
type PreconditionError struct {
	Operator string
	State    string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("state: operator %q is not enabled in %s", e.Operator, e.State)
}

// Unwrap returns ErrPreconditionViolation.
func (e *PreconditionError) Unwrap() error {
	return ErrPreconditionViolation
}

// MismatchError is the panic value used when representations are mixed.
type MismatchError struct {
	Op   string
	Want Representation
	Got  Representation
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("state: %s: want %s value, got %s", e.Op, e.Want, e.Got)
}

// Unwrap returns ErrRepresentationMismatch.
func (e *MismatchError) Unwrap() error {
	return ErrRepresentationMismatch
}

// MustMatch panics with a *MismatchError when got differs from want.
func MustMatch(op string, want, got Representation) {
	if want != got {
		panic(&MismatchError{Op: op, Want: want, Got: got})
	}
}

// FreedError is the panic value used when a freed value is touched.
type FreedError struct {
	What string
}

func (e *FreedError) Error() string {
	return "state: " + e.What + " used after free"
}

// Unwrap returns ErrFreed.
func (e *FreedError) Unwrap() error {
	return ErrFreed
}
