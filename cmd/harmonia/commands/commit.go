package commands

import (
	"context"
	"fmt"

	"github.com/jpetrucciani/harmonia/internal/clisupport/arg"
	"github.com/jpetrucciani/harmonia/internal/operations"
)

type CommitCommand struct{}

func init() {
	Register(&CommitCommand{})
}

func (c *CommitCommand) Name() string { return "commit" }

func (c *CommitCommand) Description() string {
	return "Commit staged changes across selected repos (composes pre_commit hooks)"
}

func (c *CommitCommand) ValidateArgs(p arg.Parsed) error {
	if p.String("message", "") == "" {
		return fmt.Errorf("usage: harmonia commit --message <text> [selection flags]")
	}
	return nil
}

func (c *CommitCommand) Execute(ctx context.Context, rt *Runtime, p arg.Parsed) error {
	deps, err := newOperationDeps(rt)
	if err != nil {
		return err
	}
	selection, err := selectRepos(ctx, rt, deps, p, true)
	if err != nil {
		return err
	}

	report := deps.Commit(ctx, selection, operations.CommitOptions{
		Run:     runOptionsFromArgs(p, rt.Workspace.Defaults.Parallel),
		Message: p.String("message", ""),
	})
	return reportResult(report)
}
