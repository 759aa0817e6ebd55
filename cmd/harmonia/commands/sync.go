package commands

import (
	"context"

	"github.com/jpetrucciani/harmonia/internal/clisupport/arg"
	"github.com/jpetrucciani/harmonia/internal/operations"
)

type SyncCommand struct{}

func init() {
	Register(&SyncCommand{})
}

func (c *SyncCommand) Name() string { return "sync" }

func (c *SyncCommand) Description() string {
	return "Fetch and update the current branch across selected repos"
}

func (c *SyncCommand) ValidateArgs(p arg.Parsed) error {
	return nil
}

func (c *SyncCommand) Execute(ctx context.Context, rt *Runtime, p arg.Parsed) error {
	deps, err := newOperationDeps(rt)
	if err != nil {
		return err
	}
	selection, err := selectRepos(ctx, rt, deps, p, false)
	if err != nil {
		return err
	}

	mode := operations.SyncFastForward
	switch p.String("mode", "ff-only") {
	case "rebase":
		mode = operations.SyncRebase
	case "merge":
		mode = operations.SyncMerge
	}

	report := deps.Sync(ctx, selection, operations.SyncOptions{
		Run:              runOptionsFromArgs(p, rt.Workspace.Defaults.Parallel),
		FetchOnly:        p.Bool("fetch-only"),
		Autostash:        p.Bool("autostash"),
		Mode:             mode,
		IncludeUntracked: rt.Workspace.Defaults.IncludeUntracked,
	})
	return reportResult(report)
}
