package adapter

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/recollect-dev/recollect/pkg/model"
)

// Embedder turns text into a vector for the similarity index.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type geminiEmbedder struct {
	gemini Gemini
}

// NewEmbedder wraps a Gemini client as an Embedder. Any failure to
// produce a usable vector surfaces as model.ErrEmbeddingUnavailable so
// callers can refuse the write instead of indexing garbage.
func NewEmbedder(gemini Gemini) Embedder {
	return &geminiEmbedder{gemini: gemini}
}

func (e *geminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.gemini.Embedding(ctx, text)
	if err != nil {
		return nil, goerr.Wrap(model.ErrEmbeddingUnavailable, "embedding request failed", goerr.V("cause", err))
	}
	if resp == nil || len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, goerr.Wrap(model.ErrEmbeddingUnavailable, "embedding response is empty")
	}
	return resp.Embeddings[0].Values, nil
}
