package router

import (
	"errors"
	"strings"

	"github.com/dd0wney/cyberdna/pkg/workflow"
)

var (
	ErrNotFound         = errors.New("address not found")
	ErrCyclicDependency = errors.New("cyclic dependency")
	ErrUnknownStrategy  = errors.New("unknown inference strategy")
)

// CycleError reports the dependency cycle that blocked an ordering.
// Cycle lists the addresses along the cycle, starting and ending with the
// same address.
type CycleError struct {
	Target workflow.Address
	Cycle  []workflow.Address
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	parts := make([]string, len(e.Cycle))
	for i, a := range e.Cycle {
		parts[i] = string(a)
	}
	if e.Target == "" {
		return "cyclic dependency: " + strings.Join(parts, " -> ")
	}
	return "cyclic dependency while ordering " + string(e.Target) + ": " + strings.Join(parts, " -> ")
}

// Unwrap returns ErrCyclicDependency for errors.Is support.
func (e *CycleError) Unwrap() error {
	return ErrCyclicDependency
}
