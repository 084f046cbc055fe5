package memory

import (
	"context"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/recollect-dev/recollect/pkg/model"
)

// Add stores a new memory for the user. The embedding is computed
// before anything is written: if it is unavailable the operation fails
// with nothing stored. The record is written first, then the index; if
// only the index write fails the record survives and the error wraps
// model.ErrPartialWrite carrying the memory id for a later repair.
func (u *UseCase) Add(
	ctx context.Context,
	userID, content string,
) (*model.Memory, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, goerr.New("memory content is empty")
	}
	if userID == "" {
		return nil, goerr.New("user ID is empty")
	}

	embedding, err := u.embedder.Embed(ctx, content)
	if err != nil {
		return nil, err
	}

	mem := &model.Memory{
		ID:        model.NewMemoryID(),
		UserID:    userID,
		Content:   content,
		CreatedAt: time.Now(),
	}

	if err := u.repo.Insert(ctx, mem); err != nil {
		return nil, err
	}

	if err := u.index.Upsert(ctx, mem.ID, embedding, content); err != nil {
		return mem, goerr.Wrap(model.ErrPartialWrite, "record stored but index write failed",
			goerr.V("memory_id", mem.ID),
			goerr.V("cause", err),
		)
	}

	return mem, nil
}
