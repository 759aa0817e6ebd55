package operations_test

import (
	"context"
	"testing"

	"github.com/jpetrucciani/harmonia/internal/model"
	"github.com/jpetrucciani/harmonia/internal/operations"
)

func TestAddStagesPaths(t *testing.T) {
	ws, _ := linearWorkspace(t)
	v := newFakeVCS()
	deps := newDeps(t, ws, v, newFakeForge())

	report := deps.Add(context.Background(), []model.RepoId{"core"}, operations.AddOptions{Paths: []string{"."}})
	if report.HasFailures() {
		t.Fatalf("unexpected failures: %+v", report.Outcomes)
	}
}

func TestCommitRunsPreCommitHooksAndRecordsMessage(t *testing.T) {
	ws, paths := linearWorkspace(t)
	v := newFakeVCS()
	deps := newDeps(t, ws, v, newFakeForge())

	report := deps.Commit(context.Background(), []model.RepoId{"core"}, operations.CommitOptions{Message: "chore: bump"})
	if report.HasFailures() {
		t.Fatalf("unexpected failures: %+v", report.Outcomes)
	}
	commits := v.commits[paths["core"]]
	if len(commits) != 1 || commits[0] != "chore: bump" {
		t.Fatalf("expected one recorded commit %q, got %v", "chore: bump", commits)
	}
}

func TestPushForwardsSetUpstream(t *testing.T) {
	ws, paths := linearWorkspace(t)
	v := newFakeVCS()
	v.branch[paths["core"]] = "feature/x"
	deps := newDeps(t, ws, v, newFakeForge())

	report := deps.Push(context.Background(), []model.RepoId{"core"}, operations.PushOptions{
		Remote: "origin", SetUpstream: true,
	})
	if report.HasFailures() {
		t.Fatalf("unexpected failures: %+v", report.Outcomes)
	}
	pushes := v.pushes[paths["core"]]
	if len(pushes) != 1 || pushes[0] != "feature/x" {
		t.Fatalf("expected a push of feature/x, got %v", pushes)
	}
}

func TestPushForceFailsWithoutConfirmation(t *testing.T) {
	ws, _ := linearWorkspace(t)
	v := newFakeVCS()
	deps := newDeps(t, ws, v, newFakeForge())

	report := deps.Push(context.Background(), []model.RepoId{"core"}, operations.PushOptions{Force: true})
	if !report.HasFailures() {
		t.Fatalf("expected force-push without a confirmation token to fail")
	}
}

func TestPushForceSucceedsWithConfirmation(t *testing.T) {
	ws, paths := linearWorkspace(t)
	v := newFakeVCS()
	deps := newDeps(t, ws, v, newFakeForge())

	report := deps.Push(context.Background(), []model.RepoId{"core"}, operations.PushOptions{
		Force: true, ConfirmForce: operations.ConfirmForcePush,
	})
	if report.HasFailures() {
		t.Fatalf("unexpected failures: %+v", report.Outcomes)
	}
	if len(v.pushes[paths["core"]]) != 1 {
		t.Fatalf("expected exactly one push, got %v", v.pushes[paths["core"]])
	}
}
