// Package storage provides atomic file persistence primitives shared by
// the project script store.
package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("storage: not found")
	// ErrCorrupt indicates data corruption was detected.
	ErrCorrupt = errors.New("storage: data corruption detected")
	// ErrLockTimeout indicates a timeout acquiring a file lock.
	ErrLockTimeout = errors.New("storage: lock acquisition timeout")
)

// Error wraps a storage operation failure with its context.
type Error struct {
	Op     string // "read", "write", "lock"
	Entity string // "script", "upload record", ...
	Path   string
	Err    error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("storage: %s %s %s: %v", e.Op, e.Entity, e.Path, e.Err)
	}
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Entity, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
