package operations_test

import (
	"context"
	"os"
	"testing"

	"github.com/jpetrucciani/harmonia/internal/model"
	"github.com/jpetrucciani/harmonia/internal/operations"
)

func TestDepsUpdateRewritesToOnDiskVersion(t *testing.T) {
	ws, paths := linearWorkspace(t)
	v := newFakeVCS()
	deps := newDeps(t, ws, v, newFakeForge())

	writePyproject(t, paths["core"], "1.5.0", nil)

	report, results := deps.DepsUpdate(context.Background(), []model.RepoId{"lib"}, operations.DepsUpdateOptions{})
	if report.HasFailures() {
		t.Fatalf("unexpected failures: %+v", report.Outcomes)
	}
	if len(results) != 1 || results[0].NewConstraint != "=1.5.0" {
		t.Fatalf("expected lib's constraint rewritten to =1.5.0, got %+v", results)
	}
	content, err := os.ReadFile(paths["lib"] + "/pyproject.toml")
	if err != nil {
		t.Fatalf("read lib pyproject.toml: %v", err)
	}
	if !contains(string(content), "core =1.5.0") {
		t.Fatalf("expected on-disk rewrite, got:\n%s", content)
	}
	if len(v.commits[paths["lib"]]) != 1 {
		t.Fatalf("expected one commit, got %v", v.commits[paths["lib"]])
	}
}

func TestDepsUpdateOverrideVersionWins(t *testing.T) {
	ws, _ := linearWorkspace(t)
	v := newFakeVCS()
	deps := newDeps(t, ws, v, newFakeForge())

	_, results := deps.DepsUpdate(context.Background(), []model.RepoId{"lib"}, operations.DepsUpdateOptions{
		Versions: map[model.RepoId]string{"core": "2.0.0"},
	})
	if len(results) != 1 || results[0].NewConstraint != "=2.0.0" {
		t.Fatalf("expected override to win, got %+v", results)
	}
}

func TestDepsUpdateDryRunWritesNothing(t *testing.T) {
	ws, paths := linearWorkspace(t)
	v := newFakeVCS()
	deps := newDeps(t, ws, v, newFakeForge())

	report, _ := deps.DepsUpdate(context.Background(), []model.RepoId{"lib"}, operations.DepsUpdateOptions{DryRun: true})
	if report.HasFailures() {
		t.Fatalf("unexpected failures: %+v", report.Outcomes)
	}
	content, err := os.ReadFile(paths["lib"] + "/pyproject.toml")
	if err != nil {
		t.Fatalf("read lib pyproject.toml: %v", err)
	}
	if !contains(string(content), "core ==1.2.0") {
		t.Fatalf("dry run must not rewrite the manifest on disk, got:\n%s", content)
	}
	if len(v.commits[paths["lib"]]) != 0 {
		t.Fatalf("dry run must not commit, got %v", v.commits[paths["lib"]])
	}
}

func TestDepsUpdateSkipsRepoWithNoInternalDependencies(t *testing.T) {
	ws, _ := linearWorkspace(t)
	v := newFakeVCS()
	deps := newDeps(t, ws, v, newFakeForge())

	report, results := deps.DepsUpdate(context.Background(), []model.RepoId{"core"}, operations.DepsUpdateOptions{})
	if report.HasFailures() {
		t.Fatalf("unexpected failures: %+v", report.Outcomes)
	}
	if len(results) != 0 {
		t.Fatalf("expected no rewrites for a repo with no internal dependencies, got %+v", results)
	}
	if len(report.Outcomes) != 1 || report.Outcomes[0].State != model.StateSkipped {
		t.Fatalf("expected a skipped outcome, got %+v", report.Outcomes)
	}
}
