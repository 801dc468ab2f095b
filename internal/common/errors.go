// Package common defines shared constants and sentinel errors used across
// the FieldSync engine. Callers should use errors.Is / errors.As to match
// these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// ErrAuth means the remote service rejected our identity. Sync is
	// suspended until an external collaborator re-authenticates.
	ErrAuth = errors.New("authentication rejected")

	// ErrQuota means the local persistence layer is full or corrupt.
	// Recovery (ClearAll + full resync) is destructive and therefore
	// always user-triggered, never automatic.
	ErrQuota = errors.New("local storage quota exceeded or corrupt")
)

// StorageError wraps a persistence-layer failure. The store remains in its
// last committed state; the error is fatal to the current operation and is
// never swallowed.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// NewStorageError tags err with the failing store operation.
func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

// NetworkError wraps a failed or timed-out remote call. Network errors are
// retried on a later sync and never advance the sync cursor.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// NewNetworkError tags err with the failing remote operation.
func NewNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err}
}

// ValidationError marks a mutation whose payload the remote service rejected.
// It is terminal for that mutation only; the rest of the queue continues.
type ValidationError struct {
	OfflineID string
	Reason    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: mutation %s rejected: %s", e.OfflineID, e.Reason)
}
