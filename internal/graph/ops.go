package graph

import (
	"sort"
	"sync"

	"github.com/jpetrucciani/harmonia/internal/herrors"
	"github.com/jpetrucciani/harmonia/internal/model"
)

// MissingDependency reports an internal dependency edge whose target repo
// isn't present in the workspace's package map (a typo, or a repo removed
// from the workspace config without updating a sibling's manifest).
type MissingDependency struct {
	From model.RepoId
	Edge Edge
}

// Resolved is the internal-only edge list with dependency names resolved to
// RepoIds, the form every query and ordering operation actually walks.
type Resolved struct {
	Edges   map[model.RepoId][]model.RepoId
	Missing []MissingDependency
}

// ResolveInternal keeps only internal edges and maps each dependency name
// to its owning RepoId via pkgMap, collecting anything unresolvable into
// Missing rather than failing outright.
func ResolveInternal(g *Graph, repos map[model.RepoId]model.Repo) Resolved {
	pkgMap := PackageMap(repos)
	edges := make(map[model.RepoId][]model.RepoId, len(g.Edges))
	var missing []MissingDependency

	for repoID, deps := range g.Edges {
		var internal []model.RepoId
		for _, dep := range deps {
			if !dep.Internal {
				continue
			}
			target, ok := pkgMap[dep.Name]
			if !ok {
				missing = append(missing, MissingDependency{From: repoID, Edge: dep})
				continue
			}
			internal = append(internal, target)
		}
		edges[repoID] = internal
	}
	return Resolved{Edges: edges, Missing: missing}
}

// Query wraps a Graph with a workspace's repo map and memoizes the
// (expensive to recompute) resolved-edge view and its derived reverse
// index, per §4.D's "queries are memoized" requirement. A Query is
// read-only and safe for concurrent use.
type Query struct {
	graph *Graph
	repos map[model.RepoId]model.Repo

	once     sync.Once
	resolved Resolved
	reverse  map[model.RepoId][]model.RepoId
}

// NewQuery builds a Query over g and repos. Resolution is deferred until
// first use.
func NewQuery(g *Graph, repos map[model.RepoId]model.Repo) *Query {
	return &Query{graph: g, repos: repos}
}

func (q *Query) resolve() Resolved {
	q.once.Do(func() {
		q.resolved = ResolveInternal(q.graph, q.repos)
		q.reverse = make(map[model.RepoId][]model.RepoId, len(q.resolved.Edges))
		for from, deps := range q.resolved.Edges {
			for _, dep := range deps {
				q.reverse[dep] = append(q.reverse[dep], from)
			}
		}
	})
	return q.resolved
}

// DependenciesFor returns repo's raw (internal + external) edges.
func (q *Query) DependenciesFor(repo model.RepoId) []Edge {
	return append([]Edge(nil), q.graph.Edges[repo]...)
}

// InternalDependenciesFor returns only repo's internal edges.
func (q *Query) InternalDependenciesFor(repo model.RepoId) []Edge {
	var out []Edge
	for _, e := range q.graph.Edges[repo] {
		if e.Internal {
			out = append(out, e)
		}
	}
	return out
}

// DirectDependencies returns the RepoIds repo directly depends on internally.
func (q *Query) DirectDependencies(repo model.RepoId) []model.RepoId {
	resolved := q.resolve()
	return append([]model.RepoId(nil), resolved.Edges[repo]...)
}

// DirectDependents returns the RepoIds that directly depend on repo internally.
func (q *Query) DirectDependents(repo model.RepoId) []model.RepoId {
	q.resolve()
	return append([]model.RepoId(nil), q.reverse[repo]...)
}

// TransitiveDependencies returns every RepoId reachable from repo by
// following internal dependency edges, sorted lexicographically.
func (q *Query) TransitiveDependencies(repo model.RepoId) []model.RepoId {
	resolved := q.resolve()
	return walk(resolved.Edges, repo)
}

// TransitiveDependents returns every RepoId that transitively depends on
// repo, sorted lexicographically.
func (q *Query) TransitiveDependents(repo model.RepoId) []model.RepoId {
	q.resolve()
	return walk(q.reverse, repo)
}

func walk(edges map[model.RepoId][]model.RepoId, start model.RepoId) []model.RepoId {
	seen := make(map[model.RepoId]bool)
	stack := append([]model.RepoId(nil), edges[start]...)
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[current] {
			continue
		}
		seen[current] = true
		stack = append(stack, edges[current]...)
	}
	out := make([]model.RepoId, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sortRepoIDs(out)
	return out
}

func sortRepoIDs(ids []model.RepoId) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

// TopologicalOrder returns every repo in the resolved graph ordered so that
// a repo always appears after everything it internally depends on
// (dependencies before dependents — the order a sync/mr-create wave needs),
// breaking ties lexicographically by RepoId for determinism. Returns
// *herrors.CyclicDependencies if the graph has a cycle.
//
// original_source's topological_order_with_nodes computes indegree from the
// dependent's perspective and would emit dependents before their
// dependencies; the integration-test semantics in this spec need the
// opposite (a repo's deps must sync/version-bump before it does), so this
// implementation runs Kahn's algorithm over the transposed relation instead.
func (q *Query) TopologicalOrder() ([]model.RepoId, error) {
	resolved := q.resolve()
	nodes := make([]model.RepoId, 0, len(resolved.Edges))
	for id := range resolved.Edges {
		nodes = append(nodes, id)
	}
	return topologicalOrderOverNodes(resolved.Edges, nodes)
}

// MergeOrder returns a topological order restricted to targets and their
// transitive internal dependencies.
func (q *Query) MergeOrder(targets []model.RepoId) ([]model.RepoId, error) {
	resolved := q.resolve()
	nodeSet := make(map[model.RepoId]bool)
	for _, t := range targets {
		nodeSet[t] = true
		for _, dep := range q.TransitiveDependencies(t) {
			nodeSet[dep] = true
		}
	}
	nodes := make([]model.RepoId, 0, len(nodeSet))
	for id := range nodeSet {
		nodes = append(nodes, id)
	}
	return topologicalOrderOverNodes(resolved.Edges, nodes)
}

// topologicalOrderOverNodes runs Kahn's algorithm treating edges[from] as
// "from depends on these" — dependencies are emitted first. Ties are broken
// lexicographically by always pulling the smallest-ID ready node next, so
// the result is fully deterministic.
func topologicalOrderOverNodes(edges map[model.RepoId][]model.RepoId, nodes []model.RepoId) ([]model.RepoId, error) {
	nodeSet := make(map[model.RepoId]bool, len(nodes))
	for _, n := range nodes {
		nodeSet[n] = true
	}

	// dependents[x] = nodes that depend on x, i.e. must come after x.
	dependents := make(map[model.RepoId][]model.RepoId, len(nodes))
	indegree := make(map[model.RepoId]int, len(nodes))
	for _, n := range nodes {
		indegree[n] = 0
	}
	for _, from := range nodes {
		for _, dep := range edges[from] {
			if !nodeSet[dep] {
				continue
			}
			dependents[dep] = append(dependents[dep], from)
			indegree[from]++
		}
	}

	var ready []model.RepoId
	for _, n := range nodes {
		if indegree[n] == 0 {
			ready = append(ready, n)
		}
	}

	order := make([]model.RepoId, 0, len(nodes))
	for len(ready) > 0 {
		sortRepoIDs(ready)
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)
		for _, dependent := range dependents[next] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	if len(order) != len(nodes) {
		return nil, &herrors.CyclicDependencies{Cycles: FindCycles(edges, nodes)}
	}
	return order, nil
}

type visitState int

const (
	unvisited visitState = iota
	visiting
	visited
)

// FindCycles enumerates elementary cycles reachable from any node in nodes,
// via DFS with a recursion-stack check, mirroring original_source's
// visit_node/VisitState walk.
func FindCycles(edges map[model.RepoId][]model.RepoId, nodes []model.RepoId) [][]string {
	state := make(map[model.RepoId]visitState, len(nodes))
	var stack []model.RepoId
	var cycles [][]string

	sorted := append([]model.RepoId(nil), nodes...)
	sortRepoIDs(sorted)

	var visit func(node model.RepoId)
	visit = func(node model.RepoId) {
		if state[node] != unvisited {
			if state[node] == visiting {
				for i, id := range stack {
					if id == node {
						cycle := make([]string, 0, len(stack)-i)
						for _, s := range stack[i:] {
							cycle = append(cycle, string(s))
						}
						cycles = append(cycles, cycle)
						break
					}
				}
			}
			return
		}
		state[node] = visiting
		stack = append(stack, node)
		for _, dep := range edges[node] {
			visit(dep)
		}
		stack = stack[:len(stack)-1]
		state[node] = visited
	}

	for _, n := range sorted {
		if state[n] == unvisited {
			visit(n)
		}
	}
	return cycles
}

// FindGraphCycles finds cycles in the full workspace's resolved graph.
func FindGraphCycles(g *Graph, repos map[model.RepoId]model.Repo) [][]string {
	resolved := ResolveInternal(g, repos)
	nodes := make([]model.RepoId, 0, len(resolved.Edges))
	for id := range resolved.Edges {
		nodes = append(nodes, id)
	}
	return FindCycles(resolved.Edges, nodes)
}

// CascadeImpact returns, for a set of repos about to change, every repo
// that would need re-validation/re-bumping as a consequence — i.e. the
// union of each repo's transitive dependents, sorted lexicographically.
func (q *Query) CascadeImpact(changed []model.RepoId) []model.RepoId {
	seen := make(map[model.RepoId]bool)
	for _, repo := range changed {
		for _, dependent := range q.TransitiveDependents(repo) {
			seen[dependent] = true
		}
	}
	out := make([]model.RepoId, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sortRepoIDs(out)
	return out
}
