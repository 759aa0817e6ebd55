package commands

import (
	"context"
	"fmt"

	"github.com/jpetrucciani/harmonia/internal/clisupport/arg"
	"github.com/jpetrucciani/harmonia/internal/operations"
)

type PushCommand struct{}

func init() {
	Register(&PushCommand{})
}

func (c *PushCommand) Name() string { return "push" }

func (c *PushCommand) Description() string {
	return "Push the current branch across selected repos (composes pre_push hooks)"
}

func (c *PushCommand) ValidateArgs(p arg.Parsed) error {
	if p.Bool("force") && p.String("confirm", "") != string(operations.ConfirmForcePush) {
		return fmt.Errorf("--force requires --confirm %s", operations.ConfirmForcePush)
	}
	return nil
}

func (c *PushCommand) Execute(ctx context.Context, rt *Runtime, p arg.Parsed) error {
	deps, err := newOperationDeps(rt)
	if err != nil {
		return err
	}
	selection, err := selectRepos(ctx, rt, deps, p, true)
	if err != nil {
		return err
	}

	report := deps.Push(ctx, selection, operations.PushOptions{
		Run:          runOptionsFromArgs(p, rt.Workspace.Defaults.Parallel),
		Remote:       p.String("remote", "origin"),
		Branch:       p.String("branch", ""),
		SetUpstream:  p.Bool("set-upstream"),
		Force:        p.Bool("force"),
		ConfirmForce: operations.ConfirmToken(p.String("confirm", "")),
	})
	return reportResult(report)
}
