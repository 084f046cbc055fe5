package memory

import (
	"context"

	"github.com/recollect-dev/recollect/pkg/model"
)

// RepairIndex reconciles the index entry for one memory with its
// authoritative record. Active records are re-embedded and re-indexed;
// deleted records get their index entry removed. Used after a partial
// write left the index behind the record store.
func (u *UseCase) RepairIndex(ctx context.Context, id model.MemoryID) error {
	mem, err := u.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if mem.Deleted {
		return u.index.Remove(ctx, id)
	}

	embedding, err := u.embedder.Embed(ctx, mem.Content)
	if err != nil {
		return err
	}
	return u.index.Upsert(ctx, id, embedding, mem.Content)
}
