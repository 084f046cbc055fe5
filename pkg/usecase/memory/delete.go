package memory

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/recollect-dev/recollect/pkg/model"
	"github.com/recollect-dev/recollect/pkg/utils/logging"
)

// Delete soft-deletes the user's memory most similar to fact. Only
// active memories are considered, so a repeated delete of the same
// fact moves on to the next closest match. Returns nil when the user
// has no active memories at all.
func (u *UseCase) Delete(
	ctx context.Context,
	userID, fact string,
) (*model.Memory, error) {
	fact = strings.TrimSpace(fact)
	if fact == "" {
		return nil, goerr.New("deletion fact is empty")
	}

	embedding, err := u.embedder.Embed(ctx, fact)
	if err != nil {
		return nil, err
	}

	activeIDs, err := u.repo.ActiveIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(activeIDs) == 0 {
		return nil, nil
	}

	hits, err := u.index.Query(ctx, embedding, activeIDs, 1)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, nil
	}

	target := hits[0].ID
	if err := u.repo.MarkDeleted(ctx, target); err != nil {
		return nil, err
	}

	// A leftover index entry is harmless: deleted ids never appear in
	// the candidate set. Log and move on.
	if err := u.index.Remove(ctx, target); err != nil {
		logging.From(ctx).Warn("failed to remove index entry of deleted memory",
			"memory_id", target, "error", err)
	}

	mem, err := u.repo.Get(ctx, target)
	if err != nil {
		return nil, err
	}
	return mem, nil
}
