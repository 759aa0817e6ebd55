package operations

import (
	"context"

	"github.com/jpetrucciani/harmonia/internal/herrors"
	"github.com/jpetrucciani/harmonia/internal/model"
)

// AddOptions controls a per-repo `git add` across selection.
type AddOptions struct {
	Run   RunOptions
	Paths []string
}

// Add stages Paths (or everything, if empty) in every selected repo.
func (d *Deps) Add(ctx context.Context, selection []model.RepoId, opts AddOptions) model.OperationReport {
	task := func(taskCtx context.Context, id model.RepoId) model.RepoOutcome {
		repo := d.Workspace.MustRepo(id)
		res, err := d.VCS.Add(taskCtx, repo.Path, opts.Paths)
		return vcsOutcome(id, "add", res, err)
	}
	return d.runWaves(ctx, "add", selection, false, opts.Run, task)
}

// CommitOptions controls a per-repo commit across selection.
type CommitOptions struct {
	Run     RunOptions
	Message string
}

// Commit runs pre_commit hooks (unless opts.Run.NoHooks) then commits in
// every selected repo.
func (d *Deps) Commit(ctx context.Context, selection []model.RepoId, opts CommitOptions) model.OperationReport {
	task := func(taskCtx context.Context, id model.RepoId) model.RepoOutcome {
		repo := d.Workspace.MustRepo(id)
		if err := d.runHooksFor(taskCtx, repo, "pre_commit", opts.Run); err != nil {
			return failOutcome(id, err)
		}
		res, err := d.VCS.Commit(taskCtx, repo.Path, opts.Message)
		return vcsOutcome(id, "commit", res, err)
	}
	return d.runWaves(ctx, "commit", selection, false, opts.Run, task)
}

// PushOptions controls a per-repo push across selection.
type PushOptions struct {
	Run          RunOptions
	Remote       string
	Branch       string
	SetUpstream  bool
	Force        bool
	ConfirmForce ConfirmToken
}

// ConfirmForcePush is the fixed token the CLI must echo back before a
// --force push runs, mirroring ConfirmForceCreate.
const ConfirmForcePush ConfirmToken = "force-push"

// Push runs pre_push hooks (unless opts.Run.NoHooks), then pushes every
// selected repo. SetUpstream is forwarded as-is to the VCS adapter, which
// sets the upstream only for a branch that has none yet (ShellGit probes
// "<branch>@{upstream}" first); force-push requires a confirmation token, mirroring branch
// --force-create.
func (d *Deps) Push(ctx context.Context, selection []model.RepoId, opts PushOptions) model.OperationReport {
	if opts.Force && opts.ConfirmForce != ConfirmForcePush {
		outcomes := make([]model.RepoOutcome, 0, len(selection))
		for _, id := range selection {
			outcomes = append(outcomes, failOutcome(id, &herrors.VcsError{
				Repo: string(id), Op: "push",
				Stderr: "force-push requires an explicit confirmation token",
			}))
		}
		return model.OperationReport{Operation: "push", Outcomes: outcomes}
	}

	task := func(taskCtx context.Context, id model.RepoId) model.RepoOutcome {
		repo := d.Workspace.MustRepo(id)
		if err := d.runHooksFor(taskCtx, repo, "pre_push", opts.Run); err != nil {
			return failOutcome(id, err)
		}

		branch := opts.Branch
		if branch == "" {
			status, err := d.VCS.Status(taskCtx, repo.Path)
			if err != nil {
				return failOutcome(id, &herrors.VcsError{Repo: string(id), Op: "status", Stderr: err.Error()})
			}
			branch = status.Branch
		}

		res, err := d.VCS.Push(taskCtx, repo.Path, opts.Remote, branch, opts.SetUpstream)
		return vcsOutcome(id, "push", res, err)
	}
	return d.runWaves(ctx, "push", selection, false, opts.Run, task)
}
