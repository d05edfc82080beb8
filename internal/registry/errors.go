package registry

import (
	"errors"
	"fmt"
)

// PersistenceError reports that a mutation could not be saved. The
// mutation was not applied.
type PersistenceError struct {
	// Registry names the registry whose backend failed.
	Registry string

	// Err is the backend error.
	Err error
}

// Error implements the error interface.
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("saving %s registry: %v", e.Registry, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsPersistenceError returns true if err is or wraps a *PersistenceError.
func IsPersistenceError(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
