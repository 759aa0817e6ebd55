// Package operations implements Harmonia's Coordinated Operation Handlers
// (component F): sync, branch, add/commit/push, version bump, deps update,
// plan, and the mr create/status/update/merge/close family. Each handler
// wires together internal/graph (ordering, constraints), internal/scheduler
// (selection, waves, hooks), internal/vcs, internal/forge, and
// internal/ecosystem per §4.F.
//
// Grounded on original_source/src/cli/mod.rs's per-command handler
// functions (cmd_sync, cmd_branch, cmd_version_bump, cmd_deps_update,
// cmd_plan, cmd_mr_*) and GitGrove's own "one handler per verb, thin
// command wrapper" shape.
package operations

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jpetrucciani/harmonia/internal/ecosystem"
	"github.com/jpetrucciani/harmonia/internal/forge"
	"github.com/jpetrucciani/harmonia/internal/graph"
	"github.com/jpetrucciani/harmonia/internal/herrors"
	"github.com/jpetrucciani/harmonia/internal/model"
	"github.com/jpetrucciani/harmonia/internal/scheduler"
	"github.com/jpetrucciani/harmonia/internal/vcs"
	"github.com/jpetrucciani/harmonia/internal/version"
)

// Deps bundles everything a handler needs: the resolved workspace, the
// dependency graph and its query view, and the three pluggable adapters.
// Built once per command invocation and treated as read-only, per §5's
// "Workspace and Graph are immutable during a command" guarantee.
type Deps struct {
	Workspace *model.Workspace
	Graph     *graph.Graph
	Query     *graph.Query
	VCS       vcs.VCS
	Forge     forge.Forge
	Manifests *ecosystem.Registry
}

// NewDeps builds a Deps, constructing the graph and its query view from the
// workspace's resolved repos.
func NewDeps(ws *model.Workspace, vcsAdapter vcs.VCS, forgeAdapter forge.Forge, registry *ecosystem.Registry) (*Deps, error) {
	g, err := graph.Build(ws.Repos, registry)
	if err != nil {
		return nil, err
	}
	return &Deps{
		Workspace: ws,
		Graph:     g,
		Query:     graph.NewQuery(g, ws.Repos),
		VCS:       vcsAdapter,
		Forge:     forgeAdapter,
		Manifests: registry,
	}, nil
}

// RunOptions carries the execution-model flags shared by every mutating
// handler (§4.E/§5): parallelism, fail-fast/ignore-errors, hook skipping.
type RunOptions struct {
	Parallel     int
	FailFast     bool
	IgnoreErrors bool
	NoHooks      bool
}

// resolveParallel applies §5's parallelism defaulting: an explicit
// RunOptions.Parallel wins, then the workspace's configured default, then 1
// for graph-ordered operations (serial unless the caller opts in), then 0
// (scheduler.Options.parallelism falls back to runtime.NumCPU()).
func (d *Deps) resolveParallel(opts RunOptions, graphOrder bool) int {
	if opts.Parallel != 0 {
		return opts.Parallel
	}
	if d.Workspace.Defaults.Parallel != 0 {
		return d.Workspace.Defaults.Parallel
	}
	if graphOrder {
		return 1
	}
	return 0
}

func (d *Deps) schedulerOptions(opts RunOptions, graphOrder bool) scheduler.Options {
	return scheduler.Options{
		Parallel:     d.resolveParallel(opts, graphOrder),
		FailFast:     opts.FailFast,
		IgnoreErrors: opts.IgnoreErrors,
	}
}

// runWaves partitions selection per graphOrder and executes task across the
// waves, collapsing a cycle error into a report full of Failed outcomes
// rather than propagating it, so every handler always returns a structured
// OperationReport.
func (d *Deps) runWaves(ctx context.Context, operation string, selection []model.RepoId, graphOrder bool, opts RunOptions, task scheduler.Task) model.OperationReport {
	waves, err := scheduler.Waves(d.Query, selection, graphOrder)
	if err != nil {
		outcomes := make([]model.RepoOutcome, 0, len(selection))
		for _, id := range selection {
			outcomes = append(outcomes, model.RepoOutcome{Repo: id, State: model.StateFailed, Err: err})
		}
		return model.OperationReport{Operation: operation, Outcomes: outcomes}
	}
	return scheduler.Run(ctx, operation, waves, task, d.schedulerOptions(opts, graphOrder))
}

// runHooksFor composes and runs hookName for repo unless opts.NoHooks is set
// or the repo declares no hook at either layer.
func (d *Deps) runHooksFor(ctx context.Context, repo model.Repo, hookName string, opts RunOptions) error {
	if opts.NoHooks {
		return nil
	}
	workspaceHook := hookCommand(repo.Policy.WorkspaceHooks, hookName)
	repoHook := hookCommand(repo.Policy.RepoHooks, hookName)
	skipWorkspace := containsString(repo.Policy.DisableWorkspaceHooks, hookName)
	return scheduler.RunHooks(ctx, string(repo.ID), hookName, d.Workspace.Root, repo.Path, workspaceHook, repoHook, skipWorkspace)
}

func hookCommand(set model.HookSet, name string) []string {
	switch name {
	case "pre_commit":
		return set.PreCommit
	case "pre_push":
		return set.PrePush
	default:
		if set.Custom == nil {
			return nil
		}
		return set.Custom[name]
	}
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// vcsOutcome turns a VCS call's (Result, error) pair into a RepoOutcome,
// the shared translation every sync/branch/git handler task ends with.
func vcsOutcome(repo model.RepoId, op string, res vcs.Result, err error) model.RepoOutcome {
	if err != nil {
		return model.RepoOutcome{
			Repo:   repo,
			State:  model.StateFailed,
			Err:    &herrors.VcsError{Repo: string(repo), Op: op, Stderr: res.Stderr},
			Stdout: res.Stdout,
			Stderr: res.Stderr,
		}
	}
	return model.RepoOutcome{Repo: repo, State: model.StateSuccess, Stdout: res.Stdout, Stderr: res.Stderr}
}

func failOutcome(repo model.RepoId, err error) model.RepoOutcome {
	return model.RepoOutcome{Repo: repo, State: model.StateFailed, Err: err}
}

// manifestPath resolves a repo's version manifest file, preferring an
// explicit manifest.version_file over the ecosystem's standard filename.
func manifestPath(repo model.Repo) string {
	if repo.Manifest.VersionFile != "" {
		return filepath.Join(repo.Path, repo.Manifest.VersionFile)
	}
	return filepath.Join(repo.Path, standardVersionFile(repo.Ecosystem))
}

func standardVersionFile(eco model.Ecosystem) string {
	switch eco {
	case model.EcosystemPython:
		return "pyproject.toml"
	case model.EcosystemRust:
		return "Cargo.toml"
	case model.EcosystemNode:
		return "package.json"
	case model.EcosystemGo:
		return "go.mod"
	default:
		return "VERSION"
	}
}

// CurrentVersions reads every repo's on-disk version via its ecosystem
// adapter, for callers (plan's constraint analysis) that need the whole
// workspace's resolved version set rather than one repo's. A repo whose
// manifest can't be read or carries no parseable version is simply absent
// from the result — graph.CheckConstraints already treats a missing entry
// as "nothing to check" for that repo's edges.
func (d *Deps) CurrentVersions() map[model.RepoId]version.Version {
	versions := make(map[model.RepoId]version.Version, len(d.Workspace.Repos))
	for id, repo := range d.Workspace.Repos {
		adapter := d.Manifests.For(repo.Ecosystem)
		content, err := readFile(manifestPath(repo))
		if err != nil {
			continue
		}
		v, ok, err := adapter.ReadVersion(repo.Manifest, content)
		if err != nil || !ok {
			continue
		}
		versions[id] = v
	}
	return versions
}

func readFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(content), nil
}

func writeFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func containsRepoID(path []model.RepoId, id model.RepoId) bool {
	for _, p := range path {
		if p == id {
			return true
		}
	}
	return false
}
