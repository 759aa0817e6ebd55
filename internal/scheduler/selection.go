// Package scheduler implements Harmonia's Selection & Scheduler (component
// E): turning a selection request (explicit repos, groups, --all,
// --changed, --with-deps, --include/--exclude) into a concrete repo set,
// partitioning that set into topological waves, and running each wave with
// bounded parallelism, fail-fast/ignore-errors semantics, and hook
// composition.
//
// Grounded on spec.md §4.E/§5 (no GitGrove or original_source equivalent
// exists for this exact algebra — original_source/src/util/parallel.rs only
// covers the bounded-parallelism half via rayon, ported here to
// golang.org/x/sync/errgroup+semaphore) and exercised end-to-end by
// original_source/tests/command_selection_rules_integration.rs's selection
// rules (all excludes external/ignored, --changed targets only dirty
// repos, branch falls back to the default group).
package scheduler

import (
	"context"
	"sort"

	"github.com/jpetrucciani/harmonia/internal/graph"
	"github.com/jpetrucciani/harmonia/internal/model"
)

// Criteria is the raw, unresolved selection request collected from CLI
// flags.
type Criteria struct {
	Explicit    []string
	Groups      []string
	All         bool
	Changed     bool
	WithDeps    bool
	WithAllDeps bool
	Include     []string
	Exclude     []string
}

// ChangedFunc reports whether repo has working-tree or index changes,
// per the VCS adapter's Status and the workspace's include_untracked
// policy. Scheduler callers supply this so the package stays VCS-agnostic.
type ChangedFunc func(ctx context.Context, repo model.RepoId) (bool, error)

// Select evaluates Criteria against ws (using q only for --with-deps/
// --with-all-deps expansion), producing a deterministic, sorted repo set
// per §4.E's evaluation order: union of (explicit ∪ groups ∪ all ∪ changed
// ∪ default-group-fallback), expand with deps/all-deps, subtract exclude
// and ignored, and — for mutating operations — subtract external unless
// named explicitly. Criteria.Include is not applied: it has no effect on
// the result.
func Select(ctx context.Context, ws *model.Workspace, q *graph.Query, criteria Criteria, changed ChangedFunc, mutating bool) ([]model.RepoId, error) {
	start := make(map[model.RepoId]bool)
	explicitSet := make(map[model.RepoId]bool, len(criteria.Explicit))

	for _, name := range criteria.Explicit {
		id := model.RepoId(name)
		if _, ok := ws.Repos[id]; !ok {
			return nil, unknownRepo(name)
		}
		start[id] = true
		explicitSet[id] = true
	}

	for _, groupName := range criteria.Groups {
		members, ok := ws.Groups[groupName]
		if !ok {
			return nil, unknownGroup(groupName)
		}
		for _, id := range members {
			start[id] = true
		}
	}

	if criteria.All {
		for id := range ws.Repos {
			start[id] = true
		}
	}

	if criteria.Changed {
		if changed == nil {
			return nil, errNoChangedFunc
		}
		for id := range ws.Repos {
			dirty, err := changed(ctx, id)
			if err != nil {
				return nil, err
			}
			if dirty {
				start[id] = true
			}
		}
	}

	noExplicitCriteria := len(criteria.Explicit) == 0 && len(criteria.Groups) == 0 && !criteria.All && !criteria.Changed
	if noExplicitCriteria {
		if ws.DefaultGroup == "" {
			return nil, errNoSelection
		}
		members, ok := ws.Groups[ws.DefaultGroup]
		if !ok {
			return nil, unknownGroup(ws.DefaultGroup)
		}
		for _, id := range members {
			start[id] = true
		}
	}

	if criteria.WithDeps || criteria.WithAllDeps {
		for id := range copySet(start) {
			for _, dep := range q.DirectDependencies(id) {
				start[dep] = true
			}
		}
	}
	if criteria.WithAllDeps {
		for id := range copySet(start) {
			for _, dep := range q.TransitiveDependencies(id) {
				start[dep] = true
			}
		}
	}

	exclude := make(map[string]bool, len(criteria.Exclude))
	for _, name := range criteria.Exclude {
		exclude[name] = true
	}

	out := make([]model.RepoId, 0, len(start))
	for id := range start {
		if exclude[string(id)] {
			continue
		}
		repo, ok := ws.Repos[id]
		if !ok {
			continue
		}
		if repo.Ignored {
			continue
		}
		if mutating && repo.External && !explicitSet[id] {
			continue
		}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func copySet(m map[model.RepoId]bool) map[model.RepoId]bool {
	out := make(map[model.RepoId]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
