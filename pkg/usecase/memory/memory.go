package memory

import (
	"github.com/recollect-dev/recollect/pkg/adapter"
	"github.com/recollect-dev/recollect/pkg/index"
	"github.com/recollect-dev/recollect/pkg/repository"
)

// UseCase coordinates the record store and the similarity index. The
// record store is authoritative; the index is a derived copy that can
// drift on partial failures and be repaired from the records.
type UseCase struct {
	repo     repository.Repository
	index    index.Index
	embedder adapter.Embedder
}

// New creates a new memory UseCase instance
func New(
	repo repository.Repository,
	idx index.Index,
	embedder adapter.Embedder,
) *UseCase {
	return &UseCase{
		repo:     repo,
		index:    idx,
		embedder: embedder,
	}
}
