package commands

import (
	"context"

	"github.com/jpetrucciani/harmonia/internal/clisupport/arg"
	"github.com/jpetrucciani/harmonia/internal/operations"
)

type AddCommand struct{}

func init() {
	Register(&AddCommand{})
}

func (c *AddCommand) Name() string { return "add" }

func (c *AddCommand) Description() string {
	return "Stage paths across selected repos"
}

func (c *AddCommand) ValidateArgs(p arg.Parsed) error {
	return nil
}

func (c *AddCommand) Execute(ctx context.Context, rt *Runtime, p arg.Parsed) error {
	deps, err := newOperationDeps(rt)
	if err != nil {
		return err
	}
	selection, err := selectRepos(ctx, rt, deps, p, true)
	if err != nil {
		return err
	}

	paths := p.Positional
	if len(paths) == 0 {
		paths = []string{"."}
	}

	report := deps.Add(ctx, selection, operations.AddOptions{
		Run:   runOptionsFromArgs(p, rt.Workspace.Defaults.Parallel),
		Paths: paths,
	})
	return reportResult(report)
}
