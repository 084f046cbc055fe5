package memory_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/recollect-dev/recollect/pkg/index"
	"github.com/recollect-dev/recollect/pkg/model"
	"github.com/recollect-dev/recollect/pkg/repository"
	"github.com/recollect-dev/recollect/pkg/usecase/memory"
)

// stubEmbedder returns pre-registered vectors so similarity is fully
// controlled by the test.
type stubEmbedder struct {
	vecs map[string][]float32
	err  error
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	vec, ok := s.vecs[text]
	if !ok {
		return nil, goerr.Wrap(model.ErrEmbeddingUnavailable, "no stub vector", goerr.V("text", text))
	}
	return vec, nil
}

// flakyIndex fails Upsert on demand to simulate a write that reached
// the record store but not the index.
type flakyIndex struct {
	index.Index
	failUpsert bool
}

func (f *flakyIndex) Upsert(ctx context.Context, id model.MemoryID, embedding []float32, content string) error {
	if f.failUpsert {
		return errors.New("index unavailable")
	}
	return f.Index.Upsert(ctx, id, embedding, content)
}

type testEnv struct {
	uc    *memory.UseCase
	repo  repository.Repository
	index *flakyIndex
	embed *stubEmbedder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo, err := repository.NewSQLite(filepath.Join(t.TempDir(), "memories.db"))
	gt.NoError(t, err)
	t.Cleanup(func() { gt.NoError(t, repo.Close()) })

	idx, err := index.NewChromem("")
	gt.NoError(t, err)

	flaky := &flakyIndex{Index: idx}
	embed := &stubEmbedder{vecs: map[string][]float32{
		"User likes coffee":     {1, 0, 0},
		"User likes tea":        {0.9, 0.2, 0},
		"User owns a bike":      {0, 0, 1},
		"what does user drink?": {0.95, 0.1, 0},
	}}

	return &testEnv{
		uc:    memory.New(repo, flaky, embed),
		repo:  repo,
		index: flaky,
		embed: embed,
	}
}

func (e *testEnv) add(t *testing.T, userID, content string) *model.Memory {
	t.Helper()
	mem, err := e.uc.Add(context.Background(), userID, content)
	gt.NoError(t, err)
	gt.NotNil(t, mem)
	return mem
}

func TestAddAndRetrieve(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	coffee := env.add(t, "u1", "User likes coffee")
	tea := env.add(t, "u1", "User likes tea")
	env.add(t, "u1", "User owns a bike")

	results, err := env.uc.Retrieve(ctx, "u1", "what does user drink?", 2)
	gt.NoError(t, err)
	gt.A(t, results).Length(2)
	gt.Equal(t, results[0].ID, coffee.ID)
	gt.Equal(t, results[1].ID, tea.ID)
	gt.True(t, results[0].Score >= results[1].Score)
	gt.Equal(t, results[0].Content, "User likes coffee")
}

func TestAddValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.uc.Add(ctx, "u1", "   ")
	gt.Error(t, err)

	_, err = env.uc.Add(ctx, "", "User likes coffee")
	gt.Error(t, err)
}

func TestAddEmbeddingUnavailable(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.embed.err = goerr.Wrap(model.ErrEmbeddingUnavailable, "backend down")

	_, err := env.uc.Add(ctx, "u1", "User likes coffee")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrEmbeddingUnavailable))

	// Nothing was written.
	env.embed.err = nil
	ids, err := env.repo.ActiveIDs(ctx, "u1")
	gt.NoError(t, err)
	gt.A(t, ids).Length(0)
}

func TestRetrieveScopedToUser(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	env.add(t, "u1", "User likes coffee")
	other := env.add(t, "u2", "User likes tea")

	results, err := env.uc.Retrieve(ctx, "u1", "what does user drink?", 5)
	gt.NoError(t, err)
	gt.A(t, results).Length(1)
	gt.NotEqual(t, results[0].ID, other.ID)
}

func TestRetrieveMoreThanStored(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	env.add(t, "u1", "User likes coffee")

	results, err := env.uc.Retrieve(ctx, "u1", "what does user drink?", 10)
	gt.NoError(t, err)
	gt.A(t, results).Length(1)
}

func TestRetrieveNoMemories(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	results, err := env.uc.Retrieve(ctx, "u1", "what does user drink?", 3)
	gt.NoError(t, err)
	gt.A(t, results).Length(0)
}

func TestDeleteMostSimilar(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	coffee := env.add(t, "u1", "User likes coffee")
	tea := env.add(t, "u1", "User likes tea")

	deleted, err := env.uc.Delete(ctx, "u1", "User likes coffee")
	gt.NoError(t, err)
	gt.NotNil(t, deleted)
	gt.Equal(t, deleted.ID, coffee.ID)
	gt.True(t, deleted.Deleted)

	// The deleted memory no longer surfaces.
	results, err := env.uc.Retrieve(ctx, "u1", "what does user drink?", 5)
	gt.NoError(t, err)
	gt.A(t, results).Length(1)
	gt.Equal(t, results[0].ID, tea.ID)

	// Deleting the same fact again moves to the next closest match.
	deleted, err = env.uc.Delete(ctx, "u1", "User likes coffee")
	gt.NoError(t, err)
	gt.NotNil(t, deleted)
	gt.Equal(t, deleted.ID, tea.ID)

	// Nothing active remains.
	deleted, err = env.uc.Delete(ctx, "u1", "User likes coffee")
	gt.NoError(t, err)
	gt.Nil(t, deleted)
}

func TestDeleteNoActiveMemories(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	deleted, err := env.uc.Delete(ctx, "u1", "User likes coffee")
	gt.NoError(t, err)
	gt.Nil(t, deleted)
}

func TestPartialWriteAndRepair(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	env.index.failUpsert = true
	mem, err := env.uc.Add(ctx, "u1", "User likes coffee")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrPartialWrite))
	gt.NotNil(t, mem)
	gt.Equal(t, model.PartialWriteID(err), mem.ID)

	// The record exists but is not retrievable while unindexed.
	stored, err := env.repo.Get(ctx, mem.ID)
	gt.NoError(t, err)
	gt.Equal(t, stored.Content, "User likes coffee")
	results, err := env.uc.Retrieve(ctx, "u1", "what does user drink?", 5)
	gt.NoError(t, err)
	gt.A(t, results).Length(0)

	// Repair re-embeds from the record and restores retrieval.
	env.index.failUpsert = false
	gt.NoError(t, env.uc.RepairIndex(ctx, mem.ID))

	results, err = env.uc.Retrieve(ctx, "u1", "what does user drink?", 5)
	gt.NoError(t, err)
	gt.A(t, results).Length(1)
	gt.Equal(t, results[0].ID, mem.ID)
}

func TestRepairDeletedMemory(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	mem := env.add(t, "u1", "User likes coffee")
	deleted, err := env.uc.Delete(ctx, "u1", "User likes coffee")
	gt.NoError(t, err)
	gt.Equal(t, deleted.ID, mem.ID)

	// Repairing a deleted record removes any index leftover and stays
	// idempotent.
	gt.NoError(t, env.uc.RepairIndex(ctx, mem.ID))
	gt.NoError(t, env.uc.RepairIndex(ctx, mem.ID))
}

func TestRepairUnknownMemory(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	err := env.uc.RepairIndex(ctx, model.NewMemoryID())
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrMemoryNotFound))
}

func TestListAndStats(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	first := env.add(t, "u1", "User likes coffee")
	second := env.add(t, "u1", "User likes tea")
	_, err := env.uc.Delete(ctx, "u1", "User likes tea")
	gt.NoError(t, err)

	active, err := env.uc.List(ctx, "u1", false, 0)
	gt.NoError(t, err)
	gt.A(t, active).Length(1)
	gt.Equal(t, active[0].ID, first.ID)

	all, err := env.uc.List(ctx, "u1", true, 0)
	gt.NoError(t, err)
	gt.A(t, all).Length(2)
	gt.Equal(t, all[1].ID, second.ID)
	gt.True(t, all[1].Deleted)

	stats, err := env.uc.Stats(ctx, "u1")
	gt.NoError(t, err)
	gt.Equal(t, stats.Total, 2)
	gt.Equal(t, stats.Active, 1)
	gt.Equal(t, stats.Deleted, 1)
}

func TestAddConcurrent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	const n = 8
	for i := 0; i < n; i++ {
		env.embed.vecs[fmt.Sprintf("fact %d", i)] = []float32{float32(i+1) / n, 1, 0}
	}

	var wg sync.WaitGroup
	mems := make([]*model.Memory, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			mems[i], errs[i] = env.uc.Add(ctx, "alice", fmt.Sprintf("fact %d", i))
		}(i)
	}
	wg.Wait()

	seen := map[model.MemoryID]struct{}{}
	for i := 0; i < n; i++ {
		gt.NoError(t, errs[i])
		gt.NotNil(t, mems[i])
		seen[mems[i].ID] = struct{}{}
	}
	gt.Equal(t, len(seen), n)

	active, err := env.repo.ActiveIDs(ctx, "alice")
	gt.NoError(t, err)
	gt.A(t, active).Length(n)
}
