package repository

import (
	"context"

	"github.com/recollect-dev/recollect/pkg/model"
)

// Repository is the record of truth for memories. Every id the system
// knows about has a row here; the similarity index is only an accelerant
// on top of it. Each call is atomic with respect to a single row.
type Repository interface {
	// Insert stores a new memory row. Returns model.ErrDuplicateID when a
	// row with the same id already exists.
	Insert(ctx context.Context, mem *model.Memory) error

	// MarkDeleted flips the deleted flag of a row. Idempotent: marking an
	// already-deleted row succeeds silently so the delete path stays simple
	// under retry. Returns model.ErrMemoryNotFound for unknown ids.
	MarkDeleted(ctx context.Context, id model.MemoryID) error

	// ActiveIDs returns the ids of all non-deleted rows for a user, in
	// insertion order (oldest first).
	ActiveIDs(ctx context.Context, userID string) ([]model.MemoryID, error)

	// Get retrieves a single row by id, deleted or not.
	// Returns model.ErrMemoryNotFound for unknown ids.
	Get(ctx context.Context, id model.MemoryID) (*model.Memory, error)

	// Exists reports whether a row with the id is present (deleted or not)
	Exists(ctx context.Context, id model.MemoryID) (bool, error)

	// ListByUser returns a user's rows in insertion order. Deleted rows are
	// excluded unless includeDeleted is set. limit <= 0 means no limit.
	ListByUser(ctx context.Context, userID string, includeDeleted bool, limit int) ([]*model.Memory, error)

	// Stats returns row counts and first/last creation times for a user
	Stats(ctx context.Context, userID string) (*model.MemoryStats, error)

	// Close releases the underlying connection
	Close() error
}
