package session

import (
	"context"

	"github.com/recollect-dev/recollect/pkg/model"
)

// Forget extracts the deletion targets from a message and soft-deletes
// the closest active memory for each. Returns the memories that were
// actually deleted; targets with no match are silently dropped.
func (u *UseCase) Forget(ctx context.Context, userID, message string) ([]*model.Memory, error) {
	targets := u.extractor.DeletionTargets(ctx, message)

	var deleted []*model.Memory
	for _, target := range targets {
		mem, err := u.memories.Delete(ctx, userID, target)
		if err != nil {
			return deleted, err
		}
		if mem != nil {
			deleted = append(deleted, mem)
		}
	}
	return deleted, nil
}
