package graph

import (
	"github.com/jpetrucciani/harmonia/internal/herrors"
	"github.com/jpetrucciani/harmonia/internal/model"
	"github.com/jpetrucciani/harmonia/internal/version"
)

// ConstraintReport aggregates everything CheckConstraints finds wrong (or
// merely notable) about a workspace's internal dependency edges.
type ConstraintReport struct {
	Violations []herrors.ConstraintViolation
	Missing    []MissingDependency
	Cycles     [][]string
	// Conflicts surfaces g.Conflicts (coalesced depends_on duplicates) so
	// callers that already consult ConstraintReport for diagnostics don't
	// need to reach into Graph separately.
	Conflicts []DependencyConflict
}

// CheckConstraints walks every internal edge and compares its declared
// constraint against the dependency's actual resolved version, classifying
// each hit as Unsatisfied (the actual version doesn't match), ExactPin (a
// single "=X.Y.Z" constraint, a maintenance hazard worth flagging even when
// satisfied), or UpperBound (a "<"/"<=" comparator, same rationale). A
// single edge can produce more than one violation entry.
func CheckConstraints(g *Graph, repos map[model.RepoId]model.Repo, versions map[model.RepoId]version.Version) ConstraintReport {
	resolved := ResolveInternal(g, repos)
	pkgMap := PackageMap(repos)
	cycles := FindGraphCycles(g, repos)

	var violations []herrors.ConstraintViolation
	for fromRepo, edges := range g.Edges {
		for _, edge := range edges {
			if !edge.Internal {
				continue
			}
			target, ok := pkgMap[edge.Name]
			if !ok {
				continue
			}
			actual, ok := versions[target]
			if !ok || !edge.Constraint.IsSemver() || !actual.IsSemver() {
				continue
			}
			violations = append(violations, classify(fromRepo, target, edge.Constraint, actual)...)
		}
	}

	return ConstraintReport{Violations: violations, Missing: resolved.Missing, Cycles: cycles, Conflicts: g.Conflicts}
}

// ValidateBump reports the violations that would result from bumping repo
// to newVersion: every internal edge elsewhere in the workspace that names
// repo's package and would become Unsatisfied, plus ExactPin/UpperBound
// flags on edges that are already satisfied but brittle.
func ValidateBump(g *Graph, repos map[model.RepoId]model.Repo, repo model.RepoId, newVersion version.Version) []herrors.ConstraintViolation {
	pkgMap := PackageMap(repos)
	var packageName string
	for name, id := range pkgMap {
		if id == repo {
			packageName = name
			break
		}
	}
	if packageName == "" {
		return nil
	}

	var violations []herrors.ConstraintViolation
	for fromRepo, edges := range g.Edges {
		for _, edge := range edges {
			if !edge.Internal || edge.Name != packageName {
				continue
			}
			if !edge.Constraint.IsSemver() || !newVersion.IsSemver() {
				continue
			}
			violations = append(violations, classify(fromRepo, repo, edge.Constraint, newVersion)...)
		}
	}
	return violations
}

func classify(from, to model.RepoId, constraint version.Constraint, actual version.Version) []herrors.ConstraintViolation {
	var out []herrors.ConstraintViolation
	if version.Satisfies(actual, constraint) == version.NotSatisfied {
		out = append(out, herrors.ConstraintViolation{From: string(from), To: string(to), Kind: herrors.Unsatisfied})
		return out
	}
	if constraint.IsExactPin() {
		out = append(out, herrors.ConstraintViolation{From: string(from), To: string(to), Kind: herrors.ExactPin})
	}
	if constraint.HasUpperBound() {
		out = append(out, herrors.ConstraintViolation{From: string(from), To: string(to), Kind: herrors.UpperBound})
	}
	return out
}
