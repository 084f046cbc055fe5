package policy_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/recollect-dev/recollect/pkg/policy"
)

const storePolicy = `package memory

import rego.v1

default store := false

store if not contains(lower(input.fact), "password")
`

func writePolicy(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	gt.NoError(t, os.WriteFile(filepath.Join(dir, "store.rego"), []byte(body), 0644))
	return dir
}

func TestGateAllowsWithoutPolicy(t *testing.T) {
	ctx := context.Background()

	gate, err := policy.New(ctx, "")
	gt.NoError(t, err)

	allowed, err := gate.AllowStore(ctx, "u1", "User likes coffee")
	gt.NoError(t, err)
	gt.True(t, allowed)
}

func TestGateAllowsEmptyDir(t *testing.T) {
	ctx := context.Background()

	gate, err := policy.New(ctx, t.TempDir())
	gt.NoError(t, err)

	allowed, err := gate.AllowStore(ctx, "u1", "User likes coffee")
	gt.NoError(t, err)
	gt.True(t, allowed)
}

func TestGateEvaluatesStoreRule(t *testing.T) {
	ctx := context.Background()

	gate, err := policy.New(ctx, writePolicy(t, storePolicy))
	gt.NoError(t, err)

	allowed, err := gate.AllowStore(ctx, "u1", "User likes coffee")
	gt.NoError(t, err)
	gt.True(t, allowed)

	allowed, err = gate.AllowStore(ctx, "u1", "User password is hunter2")
	gt.NoError(t, err)
	gt.False(t, allowed)
}

func TestGateRejectsBrokenPolicy(t *testing.T) {
	ctx := context.Background()

	_, err := policy.New(ctx, writePolicy(t, "package memory\n\nstore :="))
	gt.Error(t, err)
}
