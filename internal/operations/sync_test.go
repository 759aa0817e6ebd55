package operations_test

import (
	"context"
	"testing"

	"github.com/jpetrucciani/harmonia/internal/model"
	"github.com/jpetrucciani/harmonia/internal/operations"
)

func TestSyncFastForwardsCleanRepos(t *testing.T) {
	ws, _ := linearWorkspace(t)
	v := newFakeVCS()
	deps := newDeps(t, ws, v, newFakeForge())

	report := deps.Sync(context.Background(), []model.RepoId{"core"}, operations.SyncOptions{})
	if report.HasFailures() {
		t.Fatalf("unexpected failures: %+v", report.Outcomes)
	}
}

func TestSyncFetchOnlyStopsBeforeUpdate(t *testing.T) {
	ws, paths := linearWorkspace(t)
	v := newFakeVCS()
	v.fastForwardErr[paths["core"]] = context.DeadlineExceeded
	deps := newDeps(t, ws, v, newFakeForge())

	report := deps.Sync(context.Background(), []model.RepoId{"core"}, operations.SyncOptions{FetchOnly: true})
	if report.HasFailures() {
		t.Fatalf("fetch_only should not reach the failing fast-forward step: %+v", report.Outcomes)
	}
}

func TestSyncDirtyWorktreeFailsWithoutAutostash(t *testing.T) {
	ws, paths := linearWorkspace(t)
	v := newFakeVCS()
	v.dirty[paths["core"]] = true
	deps := newDeps(t, ws, v, newFakeForge())

	report := deps.Sync(context.Background(), []model.RepoId{"core"}, operations.SyncOptions{})
	if !report.HasFailures() {
		t.Fatalf("expected sync to fail on a dirty worktree without autostash")
	}
}

func TestSyncAutostashWrapsTheUpdate(t *testing.T) {
	ws, paths := linearWorkspace(t)
	v := newFakeVCS()
	v.dirty[paths["core"]] = true
	deps := newDeps(t, ws, v, newFakeForge())

	report := deps.Sync(context.Background(), []model.RepoId{"core"}, operations.SyncOptions{Autostash: true})
	if report.HasFailures() {
		t.Fatalf("unexpected failures: %+v", report.Outcomes)
	}
	if v.stashed[paths["core"]] {
		t.Fatalf("expected the stash to have been popped back by the end of sync")
	}
}

func TestSyncRebaseModeCallsRebaseOnto(t *testing.T) {
	ws, _ := linearWorkspace(t)
	v := newFakeVCS()
	deps := newDeps(t, ws, v, newFakeForge())

	report := deps.Sync(context.Background(), []model.RepoId{"core"}, operations.SyncOptions{Mode: operations.SyncRebase})
	if report.HasFailures() {
		t.Fatalf("unexpected failures: %+v", report.Outcomes)
	}
}
