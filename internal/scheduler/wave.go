package scheduler

import (
	"sort"

	"github.com/jpetrucciani/harmonia/internal/graph"
	"github.com/jpetrucciani/harmonia/internal/herrors"
	"github.com/jpetrucciani/harmonia/internal/model"
)

// Waves partitions selection into topological levels restricted to the
// selected repos: level 0 has no internal dependency (within the
// selection) on any other selected repo, level 1 depends only on level 0,
// and so on. When graphOrder is false the whole selection is a single wave
// (§4.E: "one wave of the whole selection (no ordering)"). Each wave's
// repos are sorted lexicographically for deterministic fan-out order.
func Waves(q *graph.Query, selection []model.RepoId, graphOrder bool) ([][]model.RepoId, error) {
	if !graphOrder {
		single := append([]model.RepoId(nil), selection...)
		sort.Slice(single, func(i, j int) bool { return single[i] < single[j] })
		return [][]model.RepoId{single}, nil
	}

	selected := make(map[model.RepoId]bool, len(selection))
	for _, id := range selection {
		selected[id] = true
	}

	remaining := make(map[model.RepoId]bool, len(selection))
	for id := range selected {
		remaining[id] = true
	}

	deps := make(map[model.RepoId][]model.RepoId, len(selection))
	for _, id := range selection {
		var restricted []model.RepoId
		for _, dep := range q.DirectDependencies(id) {
			if selected[dep] {
				restricted = append(restricted, dep)
			}
		}
		deps[id] = restricted
	}

	var waves [][]model.RepoId
	for len(remaining) > 0 {
		var wave []model.RepoId
		for id := range remaining {
			ready := true
			for _, dep := range deps[id] {
				if remaining[dep] {
					ready = false
					break
				}
			}
			if ready {
				wave = append(wave, id)
			}
		}
		if len(wave) == 0 {
			return nil, &herrors.CyclicDependencies{Cycles: graph.FindCycles(deps, selection)}
		}
		sort.Slice(wave, func(i, j int) bool { return wave[i] < wave[j] })
		for _, id := range wave {
			delete(remaining, id)
		}
		waves = append(waves, wave)
	}
	return waves, nil
}
