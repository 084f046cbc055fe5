package session

import (
	"context"

	"github.com/recollect-dev/recollect/pkg/adapter"
	"github.com/recollect-dev/recollect/pkg/policy"
	"github.com/recollect-dev/recollect/pkg/usecase/memory"
)

// FactExtractor distills messages into discrete facts. Implemented by
// service/extract; kept as an interface so tests can script it.
type FactExtractor interface {
	Facts(ctx context.Context, message string) []string
	DeletionTargets(ctx context.Context, message string) []string
}

// UseCase drives a user-facing memory session: remembering what a
// message says, forgetting on request, and answering questions from
// what is stored.
type UseCase struct {
	memories  *memory.UseCase
	extractor FactExtractor
	gemini    adapter.Gemini
	gate      *policy.Gate
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithStoreGate installs a policy gate consulted before each fact is
// stored. Without one, every fact is accepted.
func WithStoreGate(gate *policy.Gate) Option {
	return func(uc *UseCase) {
		uc.gate = gate
	}
}

// New creates a new session UseCase instance
func New(
	memories *memory.UseCase,
	extractor FactExtractor,
	gemini adapter.Gemini,
	opts ...Option,
) *UseCase {
	uc := &UseCase{
		memories:  memories,
		extractor: extractor,
		gemini:    gemini,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}
