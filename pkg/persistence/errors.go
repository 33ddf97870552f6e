// Package persistence provides the data storage abstraction for actions,
// workflows and recording sessions.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types all implementations use.
var (
	// ErrActionNotFound indicates an action was not found by the given identifier.
	ErrActionNotFound = errors.New("action not found")

	// ErrWorkflowNotFound indicates a workflow was not found by the given identifier.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrSessionNotFound indicates a recording session was not found.
	ErrSessionNotFound = errors.New("recording session not found")

	// ErrActionTooLarge indicates an action's fingerprint payload exceeds the
	// hard storage limit and must not be persisted.
	ErrActionTooLarge = errors.New("action payload exceeds hard size limit")
)

// StoreError wraps a persistence failure with operation context.
type StoreError struct {
	Op  string // Operation being performed (e.g., "SaveAction", "GetWorkflow")
	ID  string // Entity ID if applicable
	Err error
}

func (e *StoreError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s failed for %s: %v", e.Op, e.ID, e.Err)
	}

	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a store error with context.
func NewStoreError(op, id string, err error) *StoreError {
	return &StoreError{Op: op, ID: id, Err: err}
}

// IsActionNotFound checks if an error indicates a missing action.
func IsActionNotFound(err error) bool {
	return errors.Is(err, ErrActionNotFound)
}

// IsWorkflowNotFound checks if an error indicates a missing workflow.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsSessionNotFound checks if an error indicates a missing session.
func IsSessionNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound)
}

// IsActionTooLarge checks if an error indicates a size budget rejection.
func IsActionTooLarge(err error) bool {
	return errors.Is(err, ErrActionTooLarge)
}
