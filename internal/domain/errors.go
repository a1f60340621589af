package domain

import "fmt"

// ValidationError signals malformed, missing, or out-of-range input.
// The client can fix and resubmit the request.
type ValidationError struct {
	Message string
}

// NewValidationError creates a ValidationError with the given message.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NotFoundError signals that a referenced entity does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

// NewNotFoundError creates a NotFoundError for the given resource and identifier.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ConflictError signals that the request cannot be satisfied because of the
// current state of the data: an overlapping booking, a duplicate review, or a
// lost optimistic-lock race.
type ConflictError struct {
	Message string
}

// NewConflictError creates a ConflictError with the given message.
func NewConflictError(message string) *ConflictError {
	return &ConflictError{Message: message}
}

func (e *ConflictError) Error() string {
	return e.Message
}

// InvalidStateError signals a disallowed lifecycle transition.
type InvalidStateError struct {
	From string
	To   string
}

// NewInvalidStateError creates an InvalidStateError for the attempted transition.
func NewInvalidStateError(from, to string) *InvalidStateError {
	return &InvalidStateError{From: from, To: to}
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state transition from %s to %s", e.From, e.To)
}

// DependencyError signals a downstream failure (store, broker) the client
// cannot fix. Step identifies which operation failed so operators can
// reconcile partial writes.
type DependencyError struct {
	Step string
	Err  error
}

// NewDependencyError wraps a downstream failure with the step that raised it.
func NewDependencyError(step string, err error) *DependencyError {
	return &DependencyError{Step: step, Err: err}
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}
