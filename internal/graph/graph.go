// Package graph implements Harmonia's Dependency Graph Engine (component
// D): building an internal-dependency graph from resolved manifests plus
// workspace-declared depends_on, querying it (direct/transitive
// dependents/dependencies), producing a deterministic topological order,
// finding cycles, checking version constraints against candidate or
// proposed versions, and rendering it for display.
//
// Grounded on original_source/src/graph/{mod,builder,ops,constraint,viz}.rs.
package graph

import (
	"os"
	"path/filepath"
	"regexp"

	"github.com/jpetrucciani/harmonia/internal/ecosystem"
	"github.com/jpetrucciani/harmonia/internal/model"
	"github.com/jpetrucciani/harmonia/internal/version"
)

// compileInternalPattern compiles a repo's internal_pattern regex. An
// invalid pattern is a soft failure here (the dependency is simply not
// matched by it) — the config resolver is responsible for surfacing the
// BadInternalPattern warning at load time.
func compileInternalPattern(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile(pattern)
}

// Edge is one parsed manifest dependency, classified internal/external.
// Mirrors original_source's core::repo::Dependency.
type Edge struct {
	Name       string
	Constraint version.Constraint
	Internal   bool
}

// Graph is the raw per-repo edge list, keyed by RepoId, before internal
// dependency names are resolved to RepoIds (that's ResolveInternal).
type Graph struct {
	Edges map[model.RepoId][]Edge
	// Conflicts records every workspace-declared depends_on entry that
	// duplicated a manifest-derived edge for the same (repo, name) pair and
	// was coalesced away in favor of the manifest constraint, per §3/§4.D's
	// "manifest-derived constraint wins... workspace-declared one retained
	// in a secondary list for diagnostics" rule.
	Conflicts []DependencyConflict
}

// DependencyConflict is one coalesced (repo, name) pair: the manifest
// constraint that won, and the workspace-declared depends_on entry that was
// dropped in its favor.
type DependencyConflict struct {
	Repo                model.RepoId
	Name                string
	ManifestConstraint  version.Constraint
	WorkspaceConstraint version.Constraint
}

// PackageMap returns repo.EffectivePackageName() -> RepoId for every repo
// in the workspace, the identity Harmonia dependency names are matched
// against.
func PackageMap(repos map[model.RepoId]model.Repo) map[string]model.RepoId {
	m := make(map[string]model.RepoId, len(repos))
	for id, repo := range repos {
		m[repo.EffectivePackageName()] = id
	}
	return m
}

// manifestDependencyFile returns the on-disk path of repo's dependency
// manifest, preferring an explicitly configured file over the standard
// filename for its ecosystem.
func manifestDependencyFile(repo model.Repo) string {
	if repo.Manifest.DependencyFile != "" {
		return filepath.Join(repo.Path, repo.Manifest.DependencyFile)
	}
	for _, candidate := range standardManifestNames(repo.Ecosystem) {
		path := filepath.Join(repo.Path, candidate)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

func standardManifestNames(eco model.Ecosystem) []string {
	switch eco {
	case model.EcosystemPython:
		return []string{"pyproject.toml"}
	case model.EcosystemRust:
		return []string{"Cargo.toml"}
	case model.EcosystemNode:
		return []string{"package.json"}
	case model.EcosystemGo:
		return []string{"go.mod"}
	default:
		return nil
	}
}

// Build parses every non-ignored repo's manifest dependencies, classifies
// each as internal (matches internal_packages, internal_pattern, or the
// workspace's package map) or external, and appends any workspace-declared
// depends_on entries not already present in the manifest.
func Build(repos map[model.RepoId]model.Repo, registry *ecosystem.Registry) (*Graph, error) {
	pkgMap := PackageMap(repos)
	g := &Graph{Edges: make(map[model.RepoId][]Edge, len(repos))}

	for id, repo := range repos {
		if repo.Ignored {
			continue
		}
		edges, conflicts, err := parseRepoDependencies(repo, pkgMap, registry)
		if err != nil {
			return nil, err
		}
		g.Edges[id] = edges
		g.Conflicts = append(g.Conflicts, conflicts...)
	}
	return g, nil
}

func parseRepoDependencies(repo model.Repo, pkgMap map[string]model.RepoId, registry *ecosystem.Registry) ([]Edge, []DependencyConflict, error) {
	var edges []Edge

	if path := manifestDependencyFile(repo); path != "" {
		content, err := os.ReadFile(path)
		if err == nil {
			adapter := registry.For(repo.Ecosystem)
			deps, err := adapter.ReadDependencies(repo.Manifest, string(content))
			if err != nil {
				return nil, nil, err
			}
			var internalPattern func(string) bool
			if repo.Manifest.InternalPattern != "" {
				re, cerr := compileInternalPattern(repo.Manifest.InternalPattern)
				if cerr == nil {
					internalPattern = re.MatchString
				}
			}
			for _, dep := range deps {
				internal := containsString(repo.Manifest.InternalPackages, dep.Name) ||
					(internalPattern != nil && internalPattern(dep.Name))
				if _, ok := pkgMap[dep.Name]; ok {
					internal = true
				}
				edges = append(edges, Edge{Name: dep.Name, Constraint: dep.Constraint, Internal: internal})
			}
		}
	}

	edges, conflicts := appendWorkspaceDeclaredDependencies(repo, edges, pkgMap)
	return edges, conflicts, nil
}

// appendWorkspaceDeclaredDependencies appends every workspace-declared
// depends_on entry not already covered by a manifest-derived edge of the
// same name. A depends_on entry that duplicates an existing manifest edge
// is dropped (the manifest's constraint wins) but recorded as a
// DependencyConflict rather than silently discarded, since depends_on
// carries no constraint of its own and therefore always "loses" to a
// manifest edge it duplicates.
func appendWorkspaceDeclaredDependencies(repo model.Repo, edges []Edge, pkgMap map[string]model.RepoId) ([]Edge, []DependencyConflict) {
	existing := make(map[string]version.Constraint, len(edges))
	for _, e := range edges {
		existing[e.Name] = e.Constraint
	}
	workspaceConstraint := version.ParseConstraint("*")

	var conflicts []DependencyConflict
	for _, declared := range repo.DependsOn {
		name := normalizeDeclaredDependency(declared, pkgMap)
		if manifestConstraint, ok := existing[name]; ok {
			conflicts = append(conflicts, DependencyConflict{
				Repo:                repo.ID,
				Name:                name,
				ManifestConstraint:  manifestConstraint,
				WorkspaceConstraint: workspaceConstraint,
			})
			continue
		}
		edges = append(edges, Edge{Name: name, Constraint: workspaceConstraint, Internal: true})
		existing[name] = workspaceConstraint
	}
	return edges, conflicts
}

// normalizeDeclaredDependency accepts either a package name or a RepoId in
// depends_on and returns the package name, so it lines up with pkgMap keys.
func normalizeDeclaredDependency(declared string, pkgMap map[string]model.RepoId) string {
	if _, ok := pkgMap[declared]; ok {
		return declared
	}
	for name, id := range pkgMap {
		if string(id) == declared {
			return name
		}
	}
	return declared
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
