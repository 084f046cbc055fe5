package index

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m-mizutani/goerr/v2"
	chromem "github.com/philippgille/chromem-go"

	"github.com/recollect-dev/recollect/pkg/model"
)

const collectionName = "memories"

// Chromem is an embedded vector index backed by chromem-go. When a
// path is given the index persists to disk; otherwise it lives in
// memory only and can be rebuilt from the record store.
type Chromem struct {
	db  *chromem.DB
	col *chromem.Collection
	seq atomic.Int64

	// chromem's Delete reads collection state before locking it, so
	// writers must be serialized here. Readers also hold the lock so a
	// concurrent Remove cannot shrink the collection between Count and
	// QueryEmbedding.
	mu sync.RWMutex
}

var _ Index = (*Chromem)(nil)

// NewChromem opens or creates an index. An empty path means in-memory.
func NewChromem(path string) (*Chromem, error) {
	var db *chromem.DB
	if path == "" {
		db = chromem.NewDB()
	} else {
		var err error
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to open index", goerr.V("path", path))
		}
	}

	col, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open index collection")
	}

	c := &Chromem{db: db, col: col}
	// Seed the tie-break sequence past any entries written in earlier
	// runs. UnixNano is monotonic enough across process restarts.
	c.seq.Store(time.Now().UnixNano())
	return c, nil
}

func (c *Chromem) Upsert(ctx context.Context, id model.MemoryID, embedding []float32, content string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// chromem rejects duplicate document IDs, so replace means
	// delete-then-add. Delete of an unknown id is a no-op.
	if err := c.col.Delete(ctx, nil, nil, string(id)); err != nil {
		return goerr.Wrap(err, "failed to replace index entry", goerr.V("memory_id", id))
	}

	doc := chromem.Document{
		ID:        string(id),
		Content:   content,
		Embedding: embedding,
		Metadata: map[string]string{
			"seq": strconv.FormatInt(c.seq.Add(1), 10),
		},
	}
	if err := c.col.AddDocument(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to add index entry", goerr.V("memory_id", id))
	}
	return nil
}

func (c *Chromem) Remove(ctx context.Context, id model.MemoryID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.col.Delete(ctx, nil, nil, string(id)); err != nil {
		return goerr.Wrap(err, "failed to remove index entry", goerr.V("memory_id", id))
	}
	return nil
}

func (c *Chromem) Query(ctx context.Context, embedding []float32, candidates []model.MemoryID, k int) ([]Hit, error) {
	if k <= 0 || len(candidates) == 0 {
		return nil, nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	total := c.col.Count()
	if total == 0 {
		return nil, nil
	}

	// chromem has no id-set filter, so rank everything and filter
	// afterwards. The candidate set is the user's active memories, so
	// this is the same work a pre-filtered query would do.
	results, err := c.col.QueryEmbedding(ctx, embedding, total, nil, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query index")
	}

	allowed := make(map[string]struct{}, len(candidates))
	for _, id := range candidates {
		allowed[string(id)] = struct{}{}
	}

	type ranked struct {
		hit Hit
		seq int64
	}
	hits := make([]ranked, 0, len(candidates))
	for _, r := range results {
		if _, ok := allowed[r.ID]; !ok {
			continue
		}
		seq, _ := strconv.ParseInt(r.Metadata["seq"], 10, 64)
		hits = append(hits, ranked{
			hit: Hit{
				ID:      model.MemoryID(r.ID),
				Content: r.Content,
				Score:   float64(r.Similarity),
			},
			seq: seq,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].hit.Score != hits[j].hit.Score {
			return hits[i].hit.Score > hits[j].hit.Score
		}
		return hits[i].seq < hits[j].seq
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	out := make([]Hit, len(hits))
	for i, h := range hits {
		out[i] = h.hit
	}
	return out, nil
}

func (c *Chromem) Close() error {
	return nil
}
