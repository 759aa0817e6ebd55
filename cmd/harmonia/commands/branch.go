package commands

import (
	"context"
	"fmt"

	"github.com/jpetrucciani/harmonia/internal/clisupport/arg"
	"github.com/jpetrucciani/harmonia/internal/operations"
)

type BranchCommand struct{}

func init() {
	Register(&BranchCommand{})
}

func (c *BranchCommand) Name() string { return "branch" }

func (c *BranchCommand) Description() string {
	return "Switch to (or create) a branch across selected repos"
}

func (c *BranchCommand) ValidateArgs(p arg.Parsed) error {
	if len(p.Positional) < 1 {
		return fmt.Errorf("usage: harmonia branch <branch-name> [selection flags]")
	}
	if p.Bool("force-create") && p.String("confirm", "") != string(operations.ConfirmForceCreate) {
		return fmt.Errorf("--force-create requires --confirm %s", operations.ConfirmForceCreate)
	}
	return nil
}

func (c *BranchCommand) Execute(ctx context.Context, rt *Runtime, p arg.Parsed) error {
	deps, err := newOperationDeps(rt)
	if err != nil {
		return err
	}
	selection, err := selectRepos(ctx, rt, deps, p, true)
	if err != nil {
		return err
	}

	report := deps.Branch(ctx, selection, operations.BranchOptions{
		Run:         runOptionsFromArgs(p, rt.Workspace.Defaults.Parallel),
		Branch:      p.Positional[0],
		Create:      p.Bool("create"),
		ForceCreate: p.Bool("force-create"),
		Confirm:     operations.ConfirmToken(p.String("confirm", "")),
	})
	return reportResult(report)
}
