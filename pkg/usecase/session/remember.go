package session

import (
	"context"
	"errors"

	"github.com/recollect-dev/recollect/pkg/model"
	"github.com/recollect-dev/recollect/pkg/utils/logging"
)

// RememberResult reports what a message turned into.
type RememberResult struct {
	// Facts is everything the extractor pulled out of the message.
	Facts []string
	// Stored are the memories actually written.
	Stored []*model.Memory
	// Skipped are facts the store policy refused.
	Skipped []string
	// NeedsRepair lists ids whose index write failed. The records are
	// safe; `repair` brings the index back in line.
	NeedsRepair []model.MemoryID
}

// Remember extracts the facts from a message and stores each one.
// Policy-refused facts are skipped, and a partial index write demotes
// a fact to NeedsRepair instead of failing the whole message.
func (u *UseCase) Remember(ctx context.Context, userID, message string) (*RememberResult, error) {
	facts := u.extractor.Facts(ctx, message)

	result := &RememberResult{Facts: facts}
	for _, fact := range facts {
		allowed, err := u.gate.AllowStore(ctx, userID, fact)
		if err != nil {
			return nil, err
		}
		if !allowed {
			logging.From(ctx).Info("store policy refused fact", "fact", fact)
			result.Skipped = append(result.Skipped, fact)
			continue
		}

		mem, err := u.memories.Add(ctx, userID, fact)
		if err != nil {
			if errors.Is(err, model.ErrPartialWrite) {
				logging.From(ctx).Warn("memory stored but not indexed",
					"memory_id", mem.ID, "error", err)
				result.Stored = append(result.Stored, mem)
				result.NeedsRepair = append(result.NeedsRepair, mem.ID)
				continue
			}
			return nil, err
		}
		result.Stored = append(result.Stored, mem)
	}

	return result, nil
}
