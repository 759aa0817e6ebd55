package operations

import (
	"context"
	"fmt"
	"time"

	"github.com/jpetrucciani/harmonia/internal/ecosystem"
	"github.com/jpetrucciani/harmonia/internal/herrors"
	"github.com/jpetrucciani/harmonia/internal/model"
	"github.com/jpetrucciani/harmonia/internal/version"
)

// VersionBumpOptions controls a version bump invocation, per §4.A/§4.F.
type VersionBumpOptions struct {
	Mode         version.Mode
	Level        version.Level
	PreTag       string
	CalverFormat string
	Cascade      bool
	DryRun       bool
	NoCommit     bool
	Today        time.Time
}

// VersionBumpResult reports one repo's before/after version, independent of
// the RepoOutcome's success/failure classification — callers (plan/CLI
// rendering) want this even on a dry run, when no file was actually
// written.
type VersionBumpResult struct {
	Repo       model.RepoId
	OldVersion string
	NewVersion string
	Cascaded   bool
}

// VersionBump computes and (unless DryRun) applies a new version for every
// repo in selection. When Cascade is set, every transitive dependent (per
// Query.CascadeImpact) is also bumped, and its internal dependency
// constraint on each already-bumped package is rewritten to an exact pin on
// the new version — matching spec.md's worked example ("version bump minor
// --cascade rewrites service's constraint to =1.3.0 and bumps service").
// Repos are processed in merge order so a cascaded dependent's own bump
// happens after the dependency it rewrites a constraint for. DryRun applies
// no writes and skips the commit step; otherwise, unless NoCommit, each
// repo gets one generated commit.
func (d *Deps) VersionBump(ctx context.Context, selection []model.RepoId, opts VersionBumpOptions) (model.OperationReport, []VersionBumpResult) {
	targets := append([]model.RepoId(nil), selection...)
	cascaded := make(map[model.RepoId]bool)
	if opts.Cascade {
		for _, id := range d.Query.CascadeImpact(selection) {
			if !containsRepoID(targets, id) {
				targets = append(targets, id)
				cascaded[id] = true
			}
		}
	}

	order, err := d.Query.MergeOrder(targets)
	if err != nil {
		outcomes := make([]model.RepoOutcome, 0, len(targets))
		for _, id := range targets {
			outcomes = append(outcomes, failOutcome(id, err))
		}
		return model.OperationReport{Operation: "version_bump", Outcomes: outcomes}, nil
	}
	targetSet := make(map[model.RepoId]bool, len(targets))
	for _, id := range targets {
		targetSet[id] = true
	}

	newVersions := make(map[model.RepoId]version.Version)
	var outcomes []model.RepoOutcome
	var results []VersionBumpResult

	for _, id := range order {
		if !targetSet[id] {
			continue
		}
		repo := d.Workspace.MustRepo(id)
		outcome, result, newVersion, ok := d.bumpOne(ctx, repo, opts, cascaded[id], newVersions)
		outcomes = append(outcomes, outcome)
		if !ok {
			if !opts.DryRun {
				break
			}
			continue
		}
		newVersions[id] = newVersion
		results = append(results, result)
	}

	return model.OperationReport{Operation: "version_bump", Outcomes: outcomes}, results
}

func (d *Deps) bumpOne(ctx context.Context, repo model.Repo, opts VersionBumpOptions, isCascaded bool, newVersions map[model.RepoId]version.Version) (model.RepoOutcome, VersionBumpResult, version.Version, bool) {
	adapter := d.Manifests.For(repo.Ecosystem)
	path := manifestPath(repo)
	content, err := readFile(path)
	if err != nil {
		return failOutcome(repo.ID, err), VersionBumpResult{}, version.Version{}, false
	}

	current, ok, err := adapter.ReadVersion(repo.Manifest, content)
	if err != nil {
		return failOutcome(repo.ID, err), VersionBumpResult{}, version.Version{}, false
	}
	if !ok {
		current = version.RawVersion()
	}

	newVersion, err := version.Bump(current, opts.Mode, opts.Level, opts.PreTag, opts.CalverFormat, opts.Today)
	if err != nil {
		return failOutcome(repo.ID, &herrors.UnbumpableVersion{Repo: string(repo.ID), Reason: err.Error()}), VersionBumpResult{}, version.Version{}, false
	}

	newContent, err := adapter.WriteVersion(repo.Manifest, content, newVersion)
	if err != nil {
		return failOutcome(repo.ID, err), VersionBumpResult{}, version.Version{}, false
	}

	if isCascaded {
		newContent = d.rewriteCascadedConstraints(repo, adapter, newContent, newVersions)
	}

	if opts.DryRun {
		result := VersionBumpResult{Repo: repo.ID, OldVersion: current.Raw, NewVersion: newVersion.Raw, Cascaded: isCascaded}
		return model.RepoOutcome{Repo: repo.ID, State: model.StateSuccess, Stdout: diffSummary(path, content, newContent)}, result, newVersion, true
	}

	if err := writeFile(path, newContent); err != nil {
		return failOutcome(repo.ID, err), VersionBumpResult{}, version.Version{}, false
	}

	if !opts.NoCommit {
		message := fmt.Sprintf("chore(%s): bump version to %s", repo.EffectivePackageName(), newVersion.Raw)
		if _, err := d.VCS.Commit(ctx, repo.Path, message); err != nil {
			return failOutcome(repo.ID, &herrors.VcsError{Repo: string(repo.ID), Op: "commit", Stderr: err.Error()}), VersionBumpResult{}, version.Version{}, false
		}
	}

	result := VersionBumpResult{Repo: repo.ID, OldVersion: current.Raw, NewVersion: newVersion.Raw, Cascaded: isCascaded}
	return model.RepoOutcome{Repo: repo.ID, State: model.StateSuccess}, result, newVersion, true
}

// rewriteCascadedConstraints rewrites repo's internal dependency constraint
// for every package whose new version is now known, to an exact pin on that
// new version — the only concrete rewrite rule the spec's worked example
// shows. A repo that doesn't declare a dependency on a given package is a
// silent no-op for that package, per ecosystem.Adapter.WriteDependency's
// ErrDependencyNotFound contract, which this deliberately swallows.
func (d *Deps) rewriteCascadedConstraints(repo model.Repo, adapter ecosystem.Adapter, content string, newVersions map[model.RepoId]version.Version) string {
	for depID, newVersion := range newVersions {
		depRepo := d.Workspace.MustRepo(depID)
		rewritten, err := adapter.WriteDependency(repo.Manifest, content, depRepo.EffectivePackageName(), "="+newVersion.Raw)
		if err == nil {
			content = rewritten
		}
	}
	return content
}

func diffSummary(path, before, after string) string {
	if before == after {
		return fmt.Sprintf("%s: no change", path)
	}
	return fmt.Sprintf("--- %s\n+++ %s (dry run, not written)", path, path)
}
