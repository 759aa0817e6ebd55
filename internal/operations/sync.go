package operations

import (
	"context"
	"fmt"

	"github.com/jpetrucciani/harmonia/internal/herrors"
	"github.com/jpetrucciani/harmonia/internal/model"
	"github.com/jpetrucciani/harmonia/internal/vcs"
)

// SyncUpdateMode selects how sync reconciles the current branch with its
// upstream once fetch has completed, per §4.F.
type SyncUpdateMode int

const (
	// SyncFastForward fast-forwards or fails — the default.
	SyncFastForward SyncUpdateMode = iota
	SyncRebase
	SyncMerge
)

// SyncOptions controls one sync invocation.
type SyncOptions struct {
	Run              RunOptions
	FetchOnly        bool
	Autostash        bool
	Mode             SyncUpdateMode
	IncludeUntracked bool
}

// Sync fetches, then (unless FetchOnly) reconciles the current branch with
// its upstream for every repo in selection. Parallelizable; no graph order,
// per §4.F.
func (d *Deps) Sync(ctx context.Context, selection []model.RepoId, opts SyncOptions) model.OperationReport {
	task := func(taskCtx context.Context, id model.RepoId) model.RepoOutcome {
		repo := d.Workspace.MustRepo(id)

		fetchRes, err := d.VCS.Fetch(taskCtx, repo.Path)
		if err != nil {
			return vcsOutcome(id, "fetch", fetchRes, err)
		}
		if opts.FetchOnly {
			return model.RepoOutcome{Repo: id, State: model.StateSuccess, Stdout: fetchRes.Stdout, Stderr: fetchRes.Stderr}
		}

		status, err := d.VCS.Status(taskCtx, repo.Path)
		if err != nil {
			return failOutcome(id, &herrors.VcsError{Repo: string(id), Op: "status", Stderr: ""})
		}

		dirty := status.Dirty(opts.IncludeUntracked)
		if dirty && !opts.Autostash {
			return failOutcome(id, &herrors.VcsError{Repo: string(id), Op: "sync", Stderr: "working tree is dirty; pass autostash or commit/stash your changes first"})
		}

		if dirty {
			stashRes, err := d.VCS.Stash(taskCtx, repo.Path)
			if err != nil {
				return vcsOutcome(id, "stash", stashRes, err)
			}
		}

		updateOutcome := d.syncUpdate(taskCtx, id, repo, status, opts.Mode)

		if dirty {
			popRes, err := d.VCS.StashPop(taskCtx, repo.Path)
			if err != nil {
				return vcsOutcome(id, "stash_pop", popRes, err)
			}
		}

		return updateOutcome
	}

	return d.runWaves(ctx, "sync", selection, false, opts.Run, task)
}

func (d *Deps) syncUpdate(ctx context.Context, id model.RepoId, repo model.Repo, status vcs.Status, mode SyncUpdateMode) model.RepoOutcome {
	switch mode {
	case SyncRebase:
		res, err := d.VCS.RebaseOnto(ctx, repo.Path, upstreamRef(status))
		return vcsOutcome(id, "rebase", res, err)
	case SyncMerge:
		res, err := d.VCS.Merge(ctx, repo.Path, upstreamRef(status))
		return vcsOutcome(id, "merge", res, err)
	default:
		res, err := d.VCS.FastForward(ctx, repo.Path)
		return vcsOutcome(id, "fast_forward", res, err)
	}
}

func upstreamRef(status vcs.Status) string {
	return fmt.Sprintf("origin/%s", status.Branch)
}
