// Package storage defines the Storage interface — the contract of the
// external student-record service.
//
// The application never talks to a concrete backend. Two implementations
// satisfy this contract:
//
//   - remote: the HTTP+JSON service (the normal deployment)
//   - sqlite: a local file, for running without the service
//
// Tests pass an in-memory fake.
package storage

import (
	"context"

	"github.com/aanand-mishra/xgrade/internal/types"
)

// Storage is the four-operation CRUD contract.
// Implementations must not assume anything about a failure beyond "the
// operation failed"; the caller surfaces every error as a remote failure.
type Storage interface {
	// ListStudents returns the full, ordered snapshot of records.
	// Returns an empty slice (not nil) if there are none.
	ListStudents(ctx context.Context) ([]types.Student, error)

	// CreateStudent stores a new record and returns the id the service
	// assigned. The id field of student is ignored.
	CreateStudent(ctx context.Context, student types.Student) (string, error)

	// UpdateStudent replaces the record addressed by id.
	UpdateStudent(ctx context.Context, id string, student types.Student) error

	// DeleteStudent removes the record addressed by id.
	DeleteStudent(ctx context.Context, id string) error
}
