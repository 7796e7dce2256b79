package store

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("legend not found")
	ErrUnknownBackend = errors.New("unknown store backend")
	ErrInvalidName    = errors.New("invalid legend name")
	ErrClosed         = errors.New("store is closed")
)

// StoreError records which backend operation failed
type StoreError struct {
	Op      string // save, load, list, delete
	Backend string
	Name    string
	Cause   error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s %s %q: %v", e.Backend, e.Op, e.Name, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Backend, e.Op, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *StoreError) Unwrap() error {
	return e.Cause
}

func opError(backend, op, name string, cause error) error {
	if cause == nil {
		return nil
	}
	return &StoreError{Op: op, Backend: backend, Name: name, Cause: cause}
}

// IsNotFound reports whether err means the legend does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
