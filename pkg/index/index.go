package index

import (
	"context"

	"github.com/recollect-dev/recollect/pkg/model"
)

// Hit is a single similarity match returned by a query.
type Hit struct {
	ID      model.MemoryID
	Content string
	Score   float64
}

// Index is a vector similarity index over memory contents. It holds a
// derived copy of the data; the record store stays authoritative.
type Index interface {
	// Upsert inserts or replaces the entry for id.
	Upsert(ctx context.Context, id model.MemoryID, embedding []float32, content string) error

	// Remove deletes the entry for id. Removing an unknown id is a no-op.
	Remove(ctx context.Context, id model.MemoryID) error

	// Query ranks the candidate ids by similarity to embedding and
	// returns the top k hits, best first. Ties are broken by insertion
	// order, oldest first. Indexed entries outside candidates are
	// ignored and never count toward k.
	Query(ctx context.Context, embedding []float32, candidates []model.MemoryID, k int) ([]Hit, error)

	Close() error
}
