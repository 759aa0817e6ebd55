package operations_test

import (
	"context"
	"testing"

	"github.com/jpetrucciani/harmonia/internal/model"
	"github.com/jpetrucciani/harmonia/internal/operations"
	"github.com/jpetrucciani/harmonia/internal/version"
)

func TestComputePlanOrdersChangedSetAndFlagsExactPinRecommendation(t *testing.T) {
	ws, _ := linearWorkspace(t)
	v := newFakeVCS()
	deps := newDeps(t, ws, v, newFakeForge())

	changed := func(ctx context.Context, repo model.RepoId) (bool, error) {
		return repo == "core", nil
	}

	plan, err := deps.ComputePlan(context.Background(), operations.PlanOptions{
		Changed: changed,
		CurrentVersions: map[model.RepoId]version.Version{
			"core": version.ParseVersion("1.2.0", version.Semver),
			"lib":  version.ParseVersion("1.0.0", version.Semver),
			"api":  version.ParseVersion("1.0.0", version.Semver),
		},
	})
	if err != nil {
		t.Fatalf("ComputePlan: %v", err)
	}
	if len(plan.Changed) != 1 || plan.Changed[0] != "core" {
		t.Fatalf("expected changed set [core], got %v", plan.Changed)
	}
	if len(plan.Order) != 1 || plan.Order[0] != "core" {
		t.Fatalf("expected order restricted to [core], got %v", plan.Order)
	}

	found := false
	for _, r := range plan.Recommendations {
		if r != "" {
			found = true
		}
	}
	if !found || len(plan.Recommendations) == 0 {
		t.Fatalf("expected a recommendation for lib's exact pin on core, got %v", plan.Recommendations)
	}
}

func TestComputePlanWithNoChangedFuncReturnsEmptyChangedSet(t *testing.T) {
	ws, _ := linearWorkspace(t)
	v := newFakeVCS()
	deps := newDeps(t, ws, v, newFakeForge())

	plan, err := deps.ComputePlan(context.Background(), operations.PlanOptions{})
	if err != nil {
		t.Fatalf("ComputePlan: %v", err)
	}
	if len(plan.Changed) != 0 {
		t.Fatalf("expected an empty changed set, got %v", plan.Changed)
	}
}
