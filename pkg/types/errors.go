package types

import (
	"errors"
	"fmt"
)

// Gateway lifecycle errors.
var (
	ErrAlreadyAttached = errors.New("gateway is already attached")
	ErrNotAttached     = errors.New("gateway is not attached")
)

// Task addressing and routing errors.
var (
	ErrNotFound          = errors.New("task not found")
	ErrInvalidProvenance = errors.New("invalid provenance")
	ErrUnknownRoute      = errors.New("no route for provenance and operation")
)

// Board session errors.
var (
	ErrSessionClosed = errors.New("board session is closed")
	ErrPatchPending  = errors.New("a patch is already pending for this task")
	ErrEditInFlight  = errors.New("an edit is already dispatching")
)

// Error taxonomy sentinels. ValidationError and DispatchError match these
// through errors.Is so callers can branch on the class without knowing the
// concrete type.
var (
	ErrValidation = errors.New("validation failed")
	ErrDispatch   = errors.New("dispatch failed")
)

// ValidationError reports a business-rule violation caught before dispatch.
// It never reaches the network; the UI surfaces it next to the named field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrValidation) match any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// DispatchError reports a failed gateway operation. It triggers rollback in
// the optimistic update controller and is surfaced as a session-scoped
// error.
type DispatchError struct {
	Op   Operation
	Kind ProvenanceKind
	Err  error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes the underlying gateway error.
func (e *DispatchError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrDispatch) match any DispatchError.
func (e *DispatchError) Is(target error) bool {
	return target == ErrDispatch
}
