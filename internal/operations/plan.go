package operations

import (
	"context"
	"fmt"
	"sort"

	"github.com/jpetrucciani/harmonia/internal/graph"
	"github.com/jpetrucciani/harmonia/internal/herrors"
	"github.com/jpetrucciani/harmonia/internal/model"
	"github.com/jpetrucciani/harmonia/internal/scheduler"
	"github.com/jpetrucciani/harmonia/internal/version"
)

// Plan is the output of the plan operation: the changed set, the
// topological order restricted to it, constraint analysis, and a
// recommendation list. Supplemented from original_source's Plan struct
// (merge_order / constraint violations / recommendations), per
// SPEC_FULL.md §4.I.
type Plan struct {
	Changed         []model.RepoId
	Order           []model.RepoId
	Violations      []graph.MissingDependency
	Constraints     graph.ConstraintReport
	Recommendations []string
}

// PlanOptions controls plan computation.
type PlanOptions struct {
	Changed         scheduler.ChangedFunc
	CurrentVersions map[model.RepoId]version.Version
}

// ComputePlan computes the changed set (via opts.Changed), restricts the
// graph's topological order to it, runs constraint analysis over the whole
// workspace, and derives a recommendation list: "bump will require update"
// for every inbound ExactPin/UpperBound violation flagged for a changed
// repo's package, per §4.F.
func (d *Deps) ComputePlan(ctx context.Context, opts PlanOptions) (*Plan, error) {
	var changed []model.RepoId
	if opts.Changed != nil {
		for id := range d.Workspace.Repos {
			dirty, err := opts.Changed(ctx, id)
			if err != nil {
				return nil, err
			}
			if dirty {
				changed = append(changed, id)
			}
		}
		sort.Slice(changed, func(i, j int) bool { return changed[i] < changed[j] })
	}

	order, err := d.Query.MergeOrder(changed)
	if err != nil {
		return nil, err
	}

	report := graph.CheckConstraints(d.Graph, d.Workspace.Repos, opts.CurrentVersions)

	var recommendations []string
	for _, v := range report.Violations {
		if v.Kind != herrors.ExactPin && v.Kind != herrors.UpperBound {
			continue
		}
		if !isChanged(changed, model.RepoId(v.To)) {
			continue
		}
		recommendations = append(recommendations, fmt.Sprintf("bump will require update: %s depends on %s via a %s constraint", v.From, v.To, v.Kind))
	}

	return &Plan{
		Changed:         changed,
		Order:           order,
		Violations:      report.Missing,
		Constraints:     report,
		Recommendations: recommendations,
	}, nil
}

func isChanged(changed []model.RepoId, id model.RepoId) bool {
	for _, c := range changed {
		if c == id {
			return true
		}
	}
	return false
}

