package graph_test

import (
	"testing"

	"github.com/jpetrucciani/harmonia/internal/graph"
	"github.com/jpetrucciani/harmonia/internal/herrors"
	"github.com/jpetrucciani/harmonia/internal/model"
	"github.com/jpetrucciani/harmonia/internal/version"
)

func edgeWithConstraint(name, constraint string) graph.Edge {
	return graph.Edge{Name: name, Constraint: version.ParseConstraint(constraint), Internal: true}
}

func TestCheckConstraintsFlagsUnsatisfied(t *testing.T) {
	repos := repoSet("core", "api")
	g := &graph.Graph{Edges: map[model.RepoId][]graph.Edge{
		"core": {},
		"api":  {edgeWithConstraint("core", "^2.0.0")},
	}}
	versions := map[model.RepoId]version.Version{
		"core": version.ParseVersion("1.0.0", version.Semver),
	}

	report := graph.CheckConstraints(g, repos, versions)
	if len(report.Violations) != 1 || report.Violations[0].Kind != herrors.Unsatisfied {
		t.Fatalf("expected one Unsatisfied violation, got %+v", report.Violations)
	}
}

func TestCheckConstraintsFlagsExactPinAndUpperBound(t *testing.T) {
	repos := repoSet("core", "api", "web")
	g := &graph.Graph{Edges: map[model.RepoId][]graph.Edge{
		"core": {},
		"api":  {edgeWithConstraint("core", "=1.0.0")},
		"web":  {edgeWithConstraint("core", "<2.0.0")},
	}}
	versions := map[model.RepoId]version.Version{
		"core": version.ParseVersion("1.0.0", version.Semver),
	}

	report := graph.CheckConstraints(g, repos, versions)

	var sawExactPin, sawUpperBound bool
	for _, v := range report.Violations {
		switch v.Kind {
		case herrors.ExactPin:
			sawExactPin = true
		case herrors.UpperBound:
			sawUpperBound = true
		}
	}
	if !sawExactPin {
		t.Fatalf("expected an ExactPin violation, got %+v", report.Violations)
	}
	if !sawUpperBound {
		t.Fatalf("expected an UpperBound violation, got %+v", report.Violations)
	}
}

func TestValidateBumpCatchesBreakingBump(t *testing.T) {
	repos := repoSet("core", "api")
	g := &graph.Graph{Edges: map[model.RepoId][]graph.Edge{
		"core": {},
		"api":  {edgeWithConstraint("core", "^1.0.0")},
	}}

	violations := graph.ValidateBump(g, repos, "core", version.ParseVersion("2.0.0", version.Semver))
	if len(violations) != 1 || violations[0].Kind != herrors.Unsatisfied {
		t.Fatalf("expected bump to 2.0.0 to violate api's ^1.0.0 constraint, got %+v", violations)
	}
}

func TestValidateBumpAllowsCompatibleBump(t *testing.T) {
	repos := repoSet("core", "api")
	g := &graph.Graph{Edges: map[model.RepoId][]graph.Edge{
		"core": {},
		"api":  {edgeWithConstraint("core", "^1.0.0")},
	}}

	violations := graph.ValidateBump(g, repos, "core", version.ParseVersion("1.2.0", version.Semver))
	if len(violations) != 0 {
		t.Fatalf("expected no violations for a compatible bump, got %+v", violations)
	}
}
