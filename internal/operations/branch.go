package operations

import (
	"context"

	"github.com/jpetrucciani/harmonia/internal/herrors"
	"github.com/jpetrucciani/harmonia/internal/model"
)

// ConfirmToken is the caller-supplied confirmation required for destructive
// branch operations (--force-create), per §4.F. The CLI layer is
// responsible for prompting the user and producing this value; operations
// never prompts directly.
type ConfirmToken string

// ConfirmForceCreate is the fixed token the CLI must echo back to prove the
// user was actually asked before a --force-create runs. A constant keeps
// the contract explicit without inventing a full token-generation scheme
// for a single yes/no gate.
const ConfirmForceCreate ConfirmToken = "force-create"

// BranchOptions controls one branch switch/create invocation.
type BranchOptions struct {
	Run         RunOptions
	Branch      string
	Create      bool
	ForceCreate bool
	Confirm     ConfirmToken
}

// Branch switches to (or creates) Branch across selection. No graph order,
// per §4.F — selection expansion (--with-deps/--with-all-deps) happens
// before this is called, via scheduler.Select.
func (d *Deps) Branch(ctx context.Context, selection []model.RepoId, opts BranchOptions) model.OperationReport {
	if opts.ForceCreate && opts.Confirm != ConfirmForceCreate {
		outcomes := make([]model.RepoOutcome, 0, len(selection))
		for _, id := range selection {
			outcomes = append(outcomes, failOutcome(id, &herrors.VcsError{
				Repo: string(id), Op: "branch",
				Stderr: "force-create requires an explicit confirmation token",
			}))
		}
		return model.OperationReport{Operation: "branch", Outcomes: outcomes}
	}

	task := func(taskCtx context.Context, id model.RepoId) model.RepoOutcome {
		repo := d.Workspace.MustRepo(id)

		if !opts.Create && !opts.ForceCreate {
			res, err := d.VCS.Checkout(taskCtx, repo.Path, opts.Branch)
			return vcsOutcome(id, "checkout", res, err)
		}

		if opts.Create && !opts.ForceCreate {
			if exists, err := branchExists(taskCtx, d, repo, opts.Branch); err != nil {
				return failOutcome(id, err)
			} else if exists {
				return failOutcome(id, &herrors.VcsError{Repo: string(id), Op: "create_branch", Stderr: "branch already exists"})
			}
		}

		res, err := d.VCS.CreateBranch(taskCtx, repo.Path, opts.Branch)
		if err != nil {
			return vcsOutcome(id, "create_branch", res, err)
		}
		checkoutRes, err := d.VCS.Checkout(taskCtx, repo.Path, opts.Branch)
		return vcsOutcome(id, "checkout", checkoutRes, err)
	}

	return d.runWaves(ctx, "branch", selection, false, opts.Run, task)
}

// branchExists probes whether branch already exists by attempting a
// checkout and reverting; the VCS contract exposes no direct "does this ref
// exist" query, so existence is inferred from CurrentBranch around a
// Checkout attempt's failure mode instead of adding a new interface method
// for a single call site.
func branchExists(ctx context.Context, d *Deps, repo model.Repo, branch string) (bool, error) {
	before, err := d.VCS.CurrentBranch(ctx, repo.Path)
	if err != nil {
		return false, &herrors.VcsError{Repo: string(repo.ID), Op: "current_branch", Stderr: err.Error()}
	}
	res, err := d.VCS.Checkout(ctx, repo.Path, branch)
	if err != nil {
		return false, nil
	}
	_ = res
	// Checkout succeeded, meaning branch already existed — switch back so
	// the repo is left exactly as it was before this probe.
	if _, err := d.VCS.Checkout(ctx, repo.Path, before); err != nil {
		return true, &herrors.VcsError{Repo: string(repo.ID), Op: "checkout", Stderr: err.Error()}
	}
	return true, nil
}
