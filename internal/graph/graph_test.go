package graph_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jpetrucciani/harmonia/internal/ecosystem"
	"github.com/jpetrucciani/harmonia/internal/graph"
	"github.com/jpetrucciani/harmonia/internal/model"
	"github.com/jpetrucciani/harmonia/internal/version"
)

func writeManifest(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestBuildMarksInternalDependenciesFromPackageMap(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, filepath.Join(root, "core", "Cargo.toml"),
		"[package]\nname = \"core\"\nversion = \"0.1.0\"\n\n[dependencies]\n")
	writeManifest(t, filepath.Join(root, "app", "Cargo.toml"),
		"[package]\nname = \"app\"\nversion = \"0.1.0\"\n\n[dependencies]\ncore = \"^0.1\"\nserde = \"1\"\n")

	repos := map[model.RepoId]model.Repo{
		"core": {ID: "core", Path: filepath.Join(root, "core"), PackageName: "core", Ecosystem: model.EcosystemRust},
		"app":  {ID: "app", Path: filepath.Join(root, "app"), PackageName: "app", Ecosystem: model.EcosystemRust},
	}

	g, err := graph.Build(repos, ecosystem.NewRegistry())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	appEdges := g.Edges["app"]
	var coreEdge, serdeEdge *graph.Edge
	for i := range appEdges {
		switch appEdges[i].Name {
		case "core":
			coreEdge = &appEdges[i]
		case "serde":
			serdeEdge = &appEdges[i]
		}
	}
	if coreEdge == nil || !coreEdge.Internal {
		t.Fatalf("expected core to be an internal dependency, got %+v", coreEdge)
	}
	if serdeEdge == nil || serdeEdge.Internal {
		t.Fatalf("expected serde to be external, got %+v", serdeEdge)
	}
}

func TestBuildIncludesWorkspaceDeclaredDependencies(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "core"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(root, "api"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	repos := map[model.RepoId]model.Repo{
		"core": {ID: "core", Path: filepath.Join(root, "core"), PackageName: "core-package", Ecosystem: model.EcosystemRust},
		"api":  {ID: "api", Path: filepath.Join(root, "api"), PackageName: "service-api", Ecosystem: model.EcosystemRust, DependsOn: []string{"core"}},
	}

	g, err := graph.Build(repos, ecosystem.NewRegistry())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	found := false
	for _, e := range g.Edges["api"] {
		if e.Name == "core-package" && e.Internal {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected workspace-declared depends_on to create an internal edge, got %+v", g.Edges["api"])
	}
}

func TestBuildRecordsConflictWhenDependsOnDuplicatesManifestEdge(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, filepath.Join(root, "core", "Cargo.toml"),
		"[package]\nname = \"core\"\nversion = \"0.1.0\"\n\n[dependencies]\n")
	writeManifest(t, filepath.Join(root, "api", "Cargo.toml"),
		"[package]\nname = \"api\"\nversion = \"0.1.0\"\n\n[dependencies]\ncore = \"^1.0\"\n")

	repos := map[model.RepoId]model.Repo{
		"core": {ID: "core", Path: filepath.Join(root, "core"), PackageName: "core", Ecosystem: model.EcosystemRust},
		"api":  {ID: "api", Path: filepath.Join(root, "api"), PackageName: "api", Ecosystem: model.EcosystemRust, DependsOn: []string{"core"}},
	}

	g, err := graph.Build(repos, ecosystem.NewRegistry())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	var coreEdges int
	for _, e := range g.Edges["api"] {
		if e.Name == "core" {
			coreEdges++
			if e.Constraint.Raw != "^1.0" {
				t.Fatalf("expected the manifest constraint to win, got %q", e.Constraint.Raw)
			}
		}
	}
	if coreEdges != 1 {
		t.Fatalf("expected exactly one coalesced core edge, got %d", coreEdges)
	}

	if len(g.Conflicts) != 1 {
		t.Fatalf("expected one recorded conflict, got %+v", g.Conflicts)
	}
	conflict := g.Conflicts[0]
	if conflict.Repo != "api" || conflict.Name != "core" || conflict.ManifestConstraint.Raw != "^1.0" {
		t.Fatalf("unexpected conflict: %+v", conflict)
	}
}

func repoSet(ids ...model.RepoId) map[model.RepoId]model.Repo {
	repos := make(map[model.RepoId]model.Repo, len(ids))
	for _, id := range ids {
		repos[id] = model.Repo{ID: id, PackageName: string(id)}
	}
	return repos
}

func internalEdge(name string) graph.Edge {
	return graph.Edge{Name: name, Constraint: version.ParseConstraint("*"), Internal: true}
}

func TestTopologicalOrderPutsDependenciesBeforeDependents(t *testing.T) {
	repos := repoSet("core", "api", "web")
	g := &graph.Graph{Edges: map[model.RepoId][]graph.Edge{
		"core": {},
		"api":  {internalEdge("core")},
		"web":  {internalEdge("api"), internalEdge("core")},
	}}

	q := graph.NewQuery(g, repos)
	order, err := q.TopologicalOrder()
	if err != nil {
		t.Fatalf("TopologicalOrder failed: %v", err)
	}

	pos := make(map[model.RepoId]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	if pos["core"] >= pos["api"] {
		t.Fatalf("expected core before api, got order %v", order)
	}
	if pos["api"] >= pos["web"] {
		t.Fatalf("expected api before web, got order %v", order)
	}
}

func TestTopologicalOrderIsDeterministicOnTies(t *testing.T) {
	repos := repoSet("zeta", "alpha", "beta")
	g := &graph.Graph{Edges: map[model.RepoId][]graph.Edge{
		"zeta":  {},
		"alpha": {},
		"beta":  {},
	}}
	q := graph.NewQuery(g, repos)
	order, err := q.TopologicalOrder()
	if err != nil {
		t.Fatalf("TopologicalOrder failed: %v", err)
	}
	want := []model.RepoId{"alpha", "beta", "zeta"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected lexicographic tie-break order %v, got %v", want, order)
		}
	}
}

func TestTopologicalOrderDetectsCycle(t *testing.T) {
	repos := repoSet("a", "b")
	g := &graph.Graph{Edges: map[model.RepoId][]graph.Edge{
		"a": {internalEdge("b")},
		"b": {internalEdge("a")},
	}}
	q := graph.NewQuery(g, repos)
	if _, err := q.TopologicalOrder(); err == nil {
		t.Fatalf("expected a cycle error")
	}
}

func TestTransitiveDependenciesAndDependents(t *testing.T) {
	repos := repoSet("core", "api", "web")
	g := &graph.Graph{Edges: map[model.RepoId][]graph.Edge{
		"core": {},
		"api":  {internalEdge("core")},
		"web":  {internalEdge("api")},
	}}
	q := graph.NewQuery(g, repos)

	deps := q.TransitiveDependencies("web")
	if len(deps) != 2 || deps[0] != "api" || deps[1] != "core" {
		t.Fatalf("expected [api core], got %v", deps)
	}

	dependents := q.TransitiveDependents("core")
	if len(dependents) != 2 || dependents[0] != "api" || dependents[1] != "web" {
		t.Fatalf("expected [api web], got %v", dependents)
	}
}

func TestCascadeImpact(t *testing.T) {
	repos := repoSet("core", "api", "web", "unrelated")
	g := &graph.Graph{Edges: map[model.RepoId][]graph.Edge{
		"core":      {},
		"api":       {internalEdge("core")},
		"web":       {internalEdge("api")},
		"unrelated": {},
	}}
	q := graph.NewQuery(g, repos)

	impact := q.CascadeImpact([]model.RepoId{"core"})
	if len(impact) != 2 || impact[0] != "api" || impact[1] != "web" {
		t.Fatalf("expected cascade impact [api web], got %v", impact)
	}
}

func TestRenderDOTEscapesLabelsAndSortsDeterministically(t *testing.T) {
	edges := map[model.RepoId][]model.RepoId{"a": {"b"}}
	labels := map[model.RepoId]string{"a": `service "a"`, "b": "b"}
	out := graph.RenderDOT(edges, labels)
	if !contains(out, `label=\"service \\\"a\\\"\"`) && !contains(out, `service \"a\"`) {
		t.Fatalf("expected escaped label in DOT output, got %q", out)
	}
	if !contains(out, `"a" -> "b"`) {
		t.Fatalf("expected edge a -> b in DOT output, got %q", out)
	}
}

func contains(haystack, needle string) bool {
	return len(haystack) >= len(needle) && (func() bool {
		for i := 0; i+len(needle) <= len(haystack); i++ {
			if haystack[i:i+len(needle)] == needle {
				return true
			}
		}
		return false
	})()
}
