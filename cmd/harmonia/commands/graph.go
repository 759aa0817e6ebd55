package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/jpetrucciani/harmonia/internal/clisupport/arg"
	"github.com/jpetrucciani/harmonia/internal/graph"
	"github.com/jpetrucciani/harmonia/internal/model"
)

// GraphVizCommand implements graph viz: renders the internal dependency
// graph as a tree, a flat indented list, Graphviz DOT, or the JSON document
// shape named in §4.D, selected by --format.
type GraphVizCommand struct{}

func init() {
	Register(&GraphVizCommand{})
}

func (c *GraphVizCommand) Name() string { return "graph-viz" }

func (c *GraphVizCommand) Description() string {
	return "Render the workspace's internal dependency graph (tree, flat, dot, or json)"
}

func (c *GraphVizCommand) ValidateArgs(p arg.Parsed) error {
	switch p.String("format", "tree") {
	case "tree", "flat", "dot", "json":
		return nil
	default:
		return fmt.Errorf("--format must be one of tree, flat, dot, json")
	}
}

func (c *GraphVizCommand) Execute(ctx context.Context, rt *Runtime, p arg.Parsed) error {
	deps, err := newOperationDeps(rt)
	if err != nil {
		return err
	}

	labels := make(map[model.RepoId]string, len(rt.Workspace.Repos))
	for id, repo := range rt.Workspace.Repos {
		labels[id] = repo.EffectivePackageName()
	}

	resolved := graph.ResolveInternal(deps.Graph, rt.Workspace.Repos)

	var roots []model.RepoId
	for id := range rt.Workspace.Repos {
		if len(deps.Query.DirectDependents(id)) == 0 {
			roots = append(roots, id)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })

	switch p.String("format", "tree") {
	case "tree":
		fmt.Print(graph.RenderTree(roots, resolved.Edges, labels))
	case "flat":
		fmt.Print(graph.RenderFlat(roots, resolved.Edges, labels))
	case "dot":
		fmt.Print(graph.RenderDOT(resolved.Edges, labels))
	case "json":
		doc := graph.BuildJSONGraph(deps.Graph, rt.Workspace.Repos, labels)
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return err
		}
	}

	for _, c := range deps.Graph.Conflicts {
		fmt.Fprintf(os.Stderr, "note: %s -> %s: manifest constraint %q kept over workspace-declared depends_on\n", c.Repo, c.Name, c.ManifestConstraint.Raw)
	}
	return nil
}
