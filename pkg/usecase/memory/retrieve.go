package memory

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/recollect-dev/recollect/pkg/model"
)

// Result is one retrieved memory with its similarity score.
type Result struct {
	ID      model.MemoryID
	Content string
	Score   float64
}

// Retrieve returns up to k of the user's active memories ranked by
// similarity to the query. The candidate set is limited to active
// record ids before ranking, so deleted memories never surface and
// never displace a live one from the top k.
func (u *UseCase) Retrieve(
	ctx context.Context,
	userID, query string,
	k int,
) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, goerr.New("query is empty")
	}
	if k <= 0 {
		return nil, nil
	}

	embedding, err := u.embedder.Embed(ctx, query)
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

	hits, err := u.index.Query(ctx, embedding, activeIDs, k)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(hits))
	for i, h := range hits {
		results[i] = Result{
			ID:      h.ID,
			Content: h.Content,
			Score:   h.Score,
		}
	}
	return results, nil
}
