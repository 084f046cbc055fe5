package memory

import (
	"context"

	"github.com/recollect-dev/recollect/pkg/model"
)

// List returns the user's memories in insertion order, oldest first.
func (u *UseCase) List(ctx context.Context, userID string, includeDeleted bool, limit int) ([]*model.Memory, error) {
	return u.repo.ListByUser(ctx, userID, includeDeleted, limit)
}

// Stats summarizes the user's stored memories.
func (u *UseCase) Stats(ctx context.Context, userID string) (*model.MemoryStats, error) {
	return u.repo.Stats(ctx, userID)
}
