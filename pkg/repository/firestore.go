package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/recollect-dev/recollect/pkg/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const memoryCollection = "memories"

// firestoreRepo implements Repository using Firestore. Intended for shared
// deployments where multiple coordinator processes access the same store;
// Firestore provides the per-row isolation the contract requires.
type firestoreRepo struct {
	client *firestore.Client
}

// NewFirestore creates a Firestore-backed repository.
// Requires a composite index on (user_id, deleted, seq).
func NewFirestore(ctx context.Context, projectID, databaseID string) (Repository, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project", projectID), goerr.V("database", databaseID))
	}
	return &firestoreRepo{client: client}, nil
}

func (r *firestoreRepo) doc(id model.MemoryID) *firestore.DocumentRef {
	return r.client.Collection(memoryCollection).Doc(string(id))
}

func (r *firestoreRepo) Insert(ctx context.Context, mem *model.Memory) error {
	if mem.CreatedAt.IsZero() {
		mem.CreatedAt = time.Now().UTC()
	}
	if mem.Seq == 0 {
		// Client-assigned insertion sequence; UnixNano keeps ordering stable
		// across process restarts without a server-side counter.
		mem.Seq = mem.CreatedAt.UnixNano()
	}

	if _, err := r.doc(mem.ID).Create(ctx, mem); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return goerr.Wrap(model.ErrDuplicateID, "insert collided", goerr.V("memory_id", mem.ID))
		}
		return goerr.Wrap(err, "failed to create memory document", goerr.V("memory_id", mem.ID))
	}
	return nil
}

func (r *firestoreRepo) MarkDeleted(ctx context.Context, id model.MemoryID) error {
	// Setting deleted=true on an already-deleted document is a no-op write,
	// which keeps this idempotent.
	_, err := r.doc(id).Update(ctx, []firestore.Update{
		{Path: "deleted", Value: true},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(model.ErrMemoryNotFound, "cannot delete unknown memory", goerr.V("memory_id", id))
		}
		return goerr.Wrap(err, "failed to mark memory deleted", goerr.V("memory_id", id))
	}
	return nil
}

func (r *firestoreRepo) ActiveIDs(ctx context.Context, userID string) ([]model.MemoryID, error) {
	iter := r.client.Collection(memoryCollection).
		Where("user_id", "==", userID).
		Where("deleted", "==", false).
		OrderBy("seq", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var ids []model.MemoryID
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate active memories", goerr.V("user_id", userID))
		}
		ids = append(ids, model.MemoryID(snap.Ref.ID))
	}
	return ids, nil
}

func (r *firestoreRepo) Get(ctx context.Context, id model.MemoryID) (*model.Memory, error) {
	snap, err := r.doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrMemoryNotFound, "no such memory", goerr.V("memory_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get memory document", goerr.V("memory_id", id))
	}

	var mem model.Memory
	if err := snap.DataTo(&mem); err != nil {
		return nil, goerr.Wrap(err, "failed to decode memory document", goerr.V("memory_id", id))
	}
	mem.ID = model.MemoryID(snap.Ref.ID)
	return &mem, nil
}

func (r *firestoreRepo) Exists(ctx context.Context, id model.MemoryID) (bool, error) {
	_, err := r.doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, goerr.Wrap(err, "failed to check memory existence", goerr.V("memory_id", id))
	}
	return true, nil
}

func (r *firestoreRepo) ListByUser(ctx context.Context, userID string, includeDeleted bool, limit int) ([]*model.Memory, error) {
	query := r.client.Collection(memoryCollection).Where("user_id", "==", userID)
	if !includeDeleted {
		query = query.Where("deleted", "==", false)
	}
	q := query.OrderBy("seq", firestore.Asc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var memories []*model.Memory
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate memories", goerr.V("user_id", userID))
		}

		var mem model.Memory
		if err := snap.DataTo(&mem); err != nil {
			return nil, goerr.Wrap(err, "failed to decode memory document", goerr.V("memory_id", snap.Ref.ID))
		}
		mem.ID = model.MemoryID(snap.Ref.ID)
		memories = append(memories, &mem)
	}
	return memories, nil
}

func (r *firestoreRepo) Stats(ctx context.Context, userID string) (*model.MemoryStats, error) {
	memories, err := r.ListByUser(ctx, userID, true, 0)
	if err != nil {
		return nil, err
	}

	var stats model.MemoryStats
	for _, mem := range memories {
		stats.Total++
		if mem.Deleted {
			stats.Deleted++
		} else {
			stats.Active++
		}

		ts := mem.CreatedAt
		if stats.First == nil || ts.Before(*stats.First) {
			t := ts
			stats.First = &t
		}
		if stats.Last == nil || ts.After(*stats.Last) {
			t := ts
			stats.Last = &t
		}
	}
	return &stats, nil
}

func (r *firestoreRepo) Close() error {
	return r.client.Close()
}
