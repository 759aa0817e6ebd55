package operations

import (
	"context"
	"fmt"

	"github.com/jpetrucciani/harmonia/internal/herrors"
	"github.com/jpetrucciani/harmonia/internal/model"
)

// DepsUpdateOptions controls a deps update invocation, per §4.F.
type DepsUpdateOptions struct {
	// Versions overrides the depended-on repo's current version, keyed by
	// that repo's id; entries not present here use the depended-on repo's
	// current on-disk version instead.
	Versions map[model.RepoId]string
	DryRun   bool
	NoCommit bool
}

// DepsUpdateResult reports one repo's dependency rewrite, independent of
// success/failure classification.
type DepsUpdateResult struct {
	Repo          model.RepoId
	Dependency    model.RepoId
	NewConstraint string
}

// DepsUpdate rewrites, for each dependent in selection, its internal
// dependency constraint on every repo it depends on (whether or not that
// repo is itself in selection) to that repo's current version or an
// explicit override. Graph order is required, per §4.F.
func (d *Deps) DepsUpdate(ctx context.Context, selection []model.RepoId, opts DepsUpdateOptions) (model.OperationReport, []DepsUpdateResult) {
	order, err := d.Query.MergeOrder(selection)
	if err != nil {
		outcomes := make([]model.RepoOutcome, 0, len(selection))
		for _, id := range selection {
			outcomes = append(outcomes, failOutcome(id, err))
		}
		return model.OperationReport{Operation: "deps_update", Outcomes: outcomes}, nil
	}

	selected := make(map[model.RepoId]bool, len(selection))
	for _, id := range selection {
		selected[id] = true
	}

	resolvedVersions := make(map[model.RepoId]string)

	var outcomes []model.RepoOutcome
	var results []DepsUpdateResult

	for _, id := range order {
		if !selected[id] {
			continue
		}
		repo := d.Workspace.MustRepo(id)
		deps := d.Query.DirectDependencies(id)
		if len(deps) == 0 {
			outcomes = append(outcomes, model.RepoOutcome{Repo: id, State: model.StateSkipped})
			continue
		}

		adapter := d.Manifests.For(repo.Ecosystem)
		path := manifestPath(repo)
		content, err := readFile(path)
		if err != nil {
			outcomes = append(outcomes, failOutcome(id, err))
			continue
		}

		changed := false
		for _, depID := range deps {
			depRepo := d.Workspace.MustRepo(depID)
			newVersion, err := d.resolveDependencyVersion(depID, depRepo, opts.Versions, resolvedVersions)
			if err != nil {
				outcomes = append(outcomes, failOutcome(id, err))
				continue
			}
			rewritten, werr := adapter.WriteDependency(repo.Manifest, content, depRepo.EffectivePackageName(), "="+newVersion)
			if werr != nil {
				continue
			}
			content = rewritten
			changed = true
			results = append(results, DepsUpdateResult{Repo: id, Dependency: depID, NewConstraint: "=" + newVersion})
		}

		if !changed {
			outcomes = append(outcomes, model.RepoOutcome{Repo: id, State: model.StateSkipped})
			continue
		}

		if opts.DryRun {
			outcomes = append(outcomes, model.RepoOutcome{Repo: id, State: model.StateSuccess, Stdout: fmt.Sprintf("%s: dry run, not written", path)})
			continue
		}

		if err := writeFile(path, content); err != nil {
			outcomes = append(outcomes, failOutcome(id, err))
			continue
		}
		if !opts.NoCommit {
			message := fmt.Sprintf("chore(%s): update internal dependency constraints", repo.EffectivePackageName())
			if _, err := d.VCS.Commit(ctx, repo.Path, message); err != nil {
				outcomes = append(outcomes, failOutcome(id, &herrors.VcsError{Repo: string(id), Op: "commit", Stderr: err.Error()}))
				continue
			}
		}
		outcomes = append(outcomes, model.RepoOutcome{Repo: id, State: model.StateSuccess})
	}

	return model.OperationReport{Operation: "deps_update", Outcomes: outcomes}, results
}

// resolveDependencyVersion returns the version to pin depID's constraint to:
// an explicit override from opts.Versions, a version already resolved
// earlier in this run (the depended-on repo was itself just updated), or
// the depended-on repo's current on-disk version.
func (d *Deps) resolveDependencyVersion(depID model.RepoId, depRepo model.Repo, overrides map[model.RepoId]string, resolved map[model.RepoId]string) (string, error) {
	if v, ok := overrides[depID]; ok {
		return v, nil
	}
	if v, ok := resolved[depID]; ok {
		return v, nil
	}
	adapter := d.Manifests.For(depRepo.Ecosystem)
	content, err := readFile(manifestPath(depRepo))
	if err != nil {
		return "", err
	}
	v, ok, err := adapter.ReadVersion(depRepo.Manifest, content)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", &herrors.UnbumpableVersion{Repo: string(depID), Reason: "no version found in manifest"}
	}
	resolved[depID] = v.Raw
	return v.Raw, nil
}
