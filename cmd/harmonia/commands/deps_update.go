package commands

import (
	"context"
	"fmt"

	"github.com/jpetrucciani/harmonia/internal/clisupport/arg"
	"github.com/jpetrucciani/harmonia/internal/model"
	"github.com/jpetrucciani/harmonia/internal/operations"
)

type DepsUpdateCommand struct{}

func init() {
	Register(&DepsUpdateCommand{})
}

func (c *DepsUpdateCommand) Name() string { return "deps-update" }

func (c *DepsUpdateCommand) Description() string {
	return "Rewrite internal dependency constraints to each dependency's current version"
}

func (c *DepsUpdateCommand) ValidateArgs(p arg.Parsed) error {
	return nil
}

func (c *DepsUpdateCommand) Execute(ctx context.Context, rt *Runtime, p arg.Parsed) error {
	deps, err := newOperationDeps(rt)
	if err != nil {
		return err
	}
	selection, err := selectRepos(ctx, rt, deps, p, true)
	if err != nil {
		return err
	}

	versions := map[model.RepoId]string{}
	for _, kv := range p.StringSlice("version") {
		repo, v, ok := splitKeyValue(kv)
		if !ok {
			return fmt.Errorf("--version expects repo=version, got %q", kv)
		}
		versions[model.RepoId(repo)] = v
	}

	report, results := deps.DepsUpdate(ctx, selection, operations.DepsUpdateOptions{
		Versions: versions,
		DryRun:   p.Bool("dry-run"),
		NoCommit: p.Bool("no-commit"),
	})

	for _, r := range results {
		fmt.Printf("%s: %s -> %s\n", r.Repo, r.Dependency, r.NewConstraint)
	}
	return reportResult(report)
}
