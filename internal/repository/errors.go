// Package repository implements BaseRepository[E], the generic file-backed
// persistence contract shared by tasks, QA records, and sessions: CRUD,
// list/find, and lifecycle transitions onto a state-directory-per-entity
// layout instead of SQL rows.
package repository

import (
	"fmt"

	"github.com/edison-run/edison/internal/entity"
)

// EntityNotFoundError means no file for id exists under any configured
// state directory.
type EntityNotFoundError struct {
	Kind entity.Kind
	ID   string
}

func (e *EntityNotFoundError) Error() string {
	return fmt.Sprintf("repository: %s %q not found", e.Kind, e.ID)
}

// EntityAlreadyExistsError is returned by Create when id is already present
// in some state directory.
type EntityAlreadyExistsError struct {
	Kind entity.Kind
	ID   string
}

func (e *EntityAlreadyExistsError) Error() string {
	return fmt.Sprintf("repository: %s %q already exists", e.Kind, e.ID)
}

// ConcurrentModificationError means the bounded read-modify-write retry
// budget was exhausted while another transition kept moving the entity
// between the locate and lock-acquire steps.
type ConcurrentModificationError struct {
	Kind     entity.Kind
	ID       string
	Attempts int
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("repository: %s %q: concurrent modification exhausted %d retries", e.Kind, e.ID, e.Attempts)
}

// IOFailureError wraps an underlying filesystem error so callers can match
// on the taxonomy kind without inspecting the message.
type IOFailureError struct {
	Op  string
	Err error
}

func (e *IOFailureError) Error() string {
	return fmt.Sprintf("repository: io failure during %s: %v", e.Op, e.Err)
}

func (e *IOFailureError) Unwrap() error { return e.Err }
