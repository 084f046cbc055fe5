package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/recollect-dev/recollect/pkg/model"
	"github.com/recollect-dev/recollect/pkg/repository"
)

func newTestRepo(t *testing.T) repository.Repository {
	t.Helper()
	repo, err := repository.NewSQLite(filepath.Join(t.TempDir(), "memories.db"))
	gt.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func insertFact(t *testing.T, repo repository.Repository, userID, content string) model.MemoryID {
	t.Helper()
	mem := &model.Memory{
		ID:      model.NewMemoryID(),
		UserID:  userID,
		Content: content,
	}
	gt.NoError(t, repo.Insert(context.Background(), mem))
	return mem.ID
}

func TestInsertAndGet(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	id := insertFact(t, repo, "u1", "User uses Shram as productivity tool")

	mem, err := repo.Get(ctx, id)
	gt.NoError(t, err)
	gt.Equal(t, mem.ID, id)
	gt.Equal(t, mem.UserID, "u1")
	gt.Equal(t, mem.Content, "User uses Shram as productivity tool")
	gt.False(t, mem.Deleted)
	gt.False(t, mem.CreatedAt.IsZero())

	exists, err := repo.Exists(ctx, id)
	gt.NoError(t, err)
	gt.True(t, exists)

	exists, err = repo.Exists(ctx, model.MemoryID("no-such-id"))
	gt.NoError(t, err)
	gt.False(t, exists)
}

func TestInsertDuplicateID(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	mem := &model.Memory{ID: model.NewMemoryID(), UserID: "u1", Content: "first"}
	gt.NoError(t, repo.Insert(ctx, mem))

	dup := &model.Memory{ID: mem.ID, UserID: "u1", Content: "second"}
	err := repo.Insert(ctx, dup)
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrDuplicateID))

	// Original row is untouched
	got, err := repo.Get(ctx, mem.ID)
	gt.NoError(t, err)
	gt.Equal(t, got.Content, "first")
}

func TestMarkDeletedIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	id := insertFact(t, repo, "u1", "User lives in New York")

	gt.NoError(t, repo.MarkDeleted(ctx, id))

	// Second deletion of the same id succeeds silently
	gt.NoError(t, repo.MarkDeleted(ctx, id))

	mem, err := repo.Get(ctx, id)
	gt.NoError(t, err)
	gt.True(t, mem.Deleted)

	// Unknown ids still fail
	err = repo.MarkDeleted(ctx, model.MemoryID("no-such-id"))
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrMemoryNotFound))
}

func TestActiveIDsOrderAndFiltering(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	first := insertFact(t, repo, "u1", "fact one")
	second := insertFact(t, repo, "u1", "fact two")
	third := insertFact(t, repo, "u1", "fact three")
	other := insertFact(t, repo, "u2", "someone else's fact")

	ids, err := repo.ActiveIDs(ctx, "u1")
	gt.NoError(t, err)
	gt.Equal(t, ids, []model.MemoryID{first, second, third})

	gt.NoError(t, repo.MarkDeleted(ctx, second))

	ids, err = repo.ActiveIDs(ctx, "u1")
	gt.NoError(t, err)
	gt.Equal(t, ids, []model.MemoryID{first, third})

	ids, err = repo.ActiveIDs(ctx, "u2")
	gt.NoError(t, err)
	gt.Equal(t, ids, []model.MemoryID{other})

	ids, err = repo.ActiveIDs(ctx, "nobody")
	gt.NoError(t, err)
	gt.Equal(t, len(ids), 0)
}

func TestListByUser(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	first := insertFact(t, repo, "u1", "fact one")
	second := insertFact(t, repo, "u1", "fact two")
	gt.NoError(t, repo.MarkDeleted(ctx, first))

	active, err := repo.ListByUser(ctx, "u1", false, 0)
	gt.NoError(t, err)
	gt.Equal(t, len(active), 1)
	gt.Equal(t, active[0].ID, second)

	all, err := repo.ListByUser(ctx, "u1", true, 0)
	gt.NoError(t, err)
	gt.Equal(t, len(all), 2)
	gt.Equal(t, all[0].ID, first)
	gt.True(t, all[0].Deleted)

	limited, err := repo.ListByUser(ctx, "u1", true, 1)
	gt.NoError(t, err)
	gt.Equal(t, len(limited), 1)
	gt.Equal(t, limited[0].ID, first)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	stats, err := repo.Stats(ctx, "u1")
	gt.NoError(t, err)
	gt.Equal(t, stats.Total, 0)
	gt.Nil(t, stats.First)

	first := insertFact(t, repo, "u1", "fact one")
	insertFact(t, repo, "u1", "fact two")
	insertFact(t, repo, "u2", "other user")
	gt.NoError(t, repo.MarkDeleted(ctx, first))

	stats, err = repo.Stats(ctx, "u1")
	gt.NoError(t, err)
	gt.Equal(t, stats.Total, 2)
	gt.Equal(t, stats.Active, 1)
	gt.Equal(t, stats.Deleted, 1)
	gt.NotNil(t, stats.First)
	gt.NotNil(t, stats.Last)
}
