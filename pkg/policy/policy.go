package policy

import (
	"context"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/open-policy-agent/opa/v1/topdown/print"

	"github.com/recollect-dev/recollect/pkg/utils/logging"
)

// regoPrintHook routes Rego print() statements to the logger
type regoPrintHook struct{}

func (h *regoPrintHook) Print(ctx print.Context, message string) error {
	logging.Default().Debug("rego print", "message", message)
	return nil
}

// Gate decides whether an extracted fact may be stored. Policies are
// Rego modules evaluated against {"user_id": ..., "fact": ...}; the
// decision is data.memory.store. A nil Gate allows everything.
type Gate struct {
	query *rego.PreparedEvalQuery
}

// New loads all .rego files from policyDir. Returns nil (allow all)
// when the directory is empty or contains no policies.
func New(ctx context.Context, policyDir string) (*Gate, error) {
	if policyDir == "" {
		return nil, nil
	}

	files, err := filepath.Glob(filepath.Join(policyDir, "*.rego"))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to glob policy files")
	}
	if len(files) == 0 {
		return nil, nil
	}

	options := make([]func(*rego.Rego), 0, len(files)+1)
	options = append(options, rego.Query("data.memory.store"))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read policy file", goerr.Value("path", file))
		}
		options = append(options, rego.Module(file, string(data)))
	}

	prepared, err := rego.New(options...).PrepareForEval(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to prepare store policy query")
	}

	return &Gate{query: &prepared}, nil
}

// AllowStore evaluates the store policy for one fact. When a policy is
// loaded but the store rule is undefined or false, the fact is refused.
func (g *Gate) AllowStore(ctx context.Context, userID, fact string) (bool, error) {
	if g == nil || g.query == nil {
		return true, nil
	}

	input := map[string]any{
		"user_id": userID,
		"fact":    fact,
	}
	rs, err := g.query.Eval(ctx, rego.EvalInput(input), rego.EvalPrintHook(&regoPrintHook{}))
	if err != nil {
		return false, goerr.Wrap(err, "failed to evaluate store policy", goerr.V("fact", fact))
	}

	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, nil
	}
	allowed, ok := rs[0].Expressions[0].Value.(bool)
	return ok && allowed, nil
}
