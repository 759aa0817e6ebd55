package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jpetrucciani/harmonia/internal/model"
)

// RenderTree renders roots and their (resolved, internal-only) dependencies
// as a box-drawing tree, one root per top-level entry, annotating repeated
// nodes as "(cycle)" instead of recursing forever.
func RenderTree(roots []model.RepoId, edges map[model.RepoId][]model.RepoId, labels map[model.RepoId]string) string {
	var out strings.Builder
	for idx, root := range roots {
		if idx > 0 {
			out.WriteByte('\n')
		}
		out.WriteString(labelFor(root, labels))
		out.WriteByte('\n')
		renderTreeChildren(root, edges, labels, "", nil, &out)
	}
	return out.String()
}

// RenderFlat renders roots and their descendants as an indented flat list.
func RenderFlat(roots []model.RepoId, edges map[model.RepoId][]model.RepoId, labels map[model.RepoId]string) string {
	var out strings.Builder
	for idx, root := range roots {
		if idx > 0 {
			out.WriteByte('\n')
		}
		out.WriteString(labelFor(root, labels))
		out.WriteByte('\n')
		renderFlatChildren(root, edges, labels, 1, nil, &out)
	}
	return out.String()
}

// JSONNode is one node entry in RenderJSON's output.
type JSONNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// JSONEdge is one internal dependency edge in RenderJSON's output.
type JSONEdge struct {
	From       string `json:"from"`
	To         string `json:"to"`
	Constraint string `json:"constraint,omitempty"`
}

// JSONGraph is the `graph viz --format json` document shape named in §4.D:
// {nodes, edges[{from,to,constraint?}], cycles}.
type JSONGraph struct {
	Nodes  []JSONNode `json:"nodes"`
	Edges  []JSONEdge `json:"edges"`
	Cycles [][]string `json:"cycles"`
}

// BuildJSONGraph assembles a JSONGraph from g's raw internal edges (so a
// constraint string survives, unlike the RepoId-resolved view ops.go's
// Resolved type uses for ordering) plus repos' labels and any discovered
// cycles.
func BuildJSONGraph(g *Graph, repos map[model.RepoId]model.Repo, labels map[model.RepoId]string) JSONGraph {
	pkgMap := PackageMap(repos)

	nodes := make([]JSONNode, 0, len(repos))
	ids := make([]model.RepoId, 0, len(repos))
	for id := range repos {
		ids = append(ids, id)
	}
	sortRepoIDs(ids)
	for _, id := range ids {
		nodes = append(nodes, JSONNode{ID: string(id), Label: labelFor(id, labels)})
	}

	var edges []JSONEdge
	froms := make([]model.RepoId, 0, len(g.Edges))
	for id := range g.Edges {
		froms = append(froms, id)
	}
	sortRepoIDs(froms)
	for _, from := range froms {
		for _, edge := range g.Edges[from] {
			if !edge.Internal {
				continue
			}
			target, ok := pkgMap[edge.Name]
			if !ok {
				continue
			}
			edges = append(edges, JSONEdge{From: string(from), To: string(target), Constraint: edge.Constraint.Raw})
		}
	}

	return JSONGraph{Nodes: nodes, Edges: edges, Cycles: FindGraphCycles(g, repos)}
}

// RenderDOT renders the whole edge set as a Graphviz "digraph harmonia"
// document.
func RenderDOT(edges map[model.RepoId][]model.RepoId, labels map[model.RepoId]string) string {
	var out strings.Builder
	out.WriteString("digraph harmonia {\n")

	nodes := make([]model.RepoId, 0, len(labels))
	for id := range labels {
		nodes = append(nodes, id)
	}
	sortRepoIDs(nodes)
	for _, id := range nodes {
		fmt.Fprintf(&out, "  %q [label=\"%s\"];\n", string(id), escapeDotLabel(labels[id]))
	}

	froms := make([]model.RepoId, 0, len(edges))
	for id := range edges {
		froms = append(froms, id)
	}
	sortRepoIDs(froms)
	for _, from := range froms {
		deps := append([]model.RepoId(nil), edges[from]...)
		sortRepoIDs(deps)
		for _, dep := range deps {
			fmt.Fprintf(&out, "  %q -> %q;\n", string(from), string(dep))
		}
	}
	out.WriteString("}\n")
	return out.String()
}

func labelFor(id model.RepoId, labels map[model.RepoId]string) string {
	if label, ok := labels[id]; ok {
		return label
	}
	return string(id)
}

func renderTreeChildren(node model.RepoId, edges map[model.RepoId][]model.RepoId, labels map[model.RepoId]string, prefix string, path []model.RepoId, out *strings.Builder) {
	children := append([]model.RepoId(nil), edges[node]...)
	sort.Slice(children, func(i, j int) bool { return children[i] < children[j] })

	for idx, child := range children {
		isLast := idx+1 == len(children)
		out.WriteString(prefix)
		if isLast {
			out.WriteString("`-- ")
		} else {
			out.WriteString("|-- ")
		}
		out.WriteString(labelFor(child, labels))

		if containsRepoID(path, child) {
			out.WriteString(" (cycle)\n")
			continue
		}
		out.WriteByte('\n')

		nextPrefix := prefix
		if isLast {
			nextPrefix += "    "
		} else {
			nextPrefix += "|   "
		}
		renderTreeChildren(child, edges, labels, nextPrefix, append(path, child), out)
	}
}

func renderFlatChildren(node model.RepoId, edges map[model.RepoId][]model.RepoId, labels map[model.RepoId]string, depth int, path []model.RepoId, out *strings.Builder) {
	children := append([]model.RepoId(nil), edges[node]...)
	sort.Slice(children, func(i, j int) bool { return children[i] < children[j] })

	for _, child := range children {
		for i := 0; i < depth; i++ {
			out.WriteString("  ")
		}
		out.WriteString(labelFor(child, labels))

		if containsRepoID(path, child) {
			out.WriteString(" (cycle)\n")
			continue
		}
		out.WriteByte('\n')
		renderFlatChildren(child, edges, labels, depth+1, append(path, child), out)
	}
}

func containsRepoID(path []model.RepoId, id model.RepoId) bool {
	for _, p := range path {
		if p == id {
			return true
		}
	}
	return false
}

func escapeDotLabel(label string) string {
	return strings.ReplaceAll(label, `"`, `\"`)
}
