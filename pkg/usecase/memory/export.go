package memory

import (
	"context"
	"encoding/json"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/recollect-dev/recollect/pkg/adapter"
)

type exportRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	Deleted   bool      `json:"deleted"`
	CreatedAt time.Time `json:"created_at"`
}

// Export writes all of the user's memories, deleted ones included, as
// JSON Lines to the given storage key. Returns the number of records
// written.
func (u *UseCase) Export(ctx context.Context, storage adapter.Storage, userID, key string) (int, error) {
	memories, err := u.repo.ListByUser(ctx, userID, true, 0)
	if err != nil {
		return 0, err
	}

	w, err := storage.Put(ctx, key)
	if err != nil {
		return 0, err
	}

	enc := json.NewEncoder(w)
	for _, mem := range memories {
		rec := exportRecord{
			ID:        string(mem.ID),
			UserID:    mem.UserID,
			Content:   mem.Content,
			Deleted:   mem.Deleted,
			CreatedAt: mem.CreatedAt,
		}
		if err := enc.Encode(rec); err != nil {
			_ = w.Close()
			return 0, goerr.Wrap(err, "failed to encode export record", goerr.V("memory_id", mem.ID))
		}
	}

	if err := w.Close(); err != nil {
		return 0, goerr.Wrap(err, "failed to finalize export", goerr.V("key", key))
	}
	return len(memories), nil
}
