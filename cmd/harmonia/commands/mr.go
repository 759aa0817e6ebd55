package commands

import (
	"context"
	"fmt"

	"github.com/jpetrucciani/harmonia/internal/clisupport/arg"
	"github.com/jpetrucciani/harmonia/internal/forge"
	"github.com/jpetrucciani/harmonia/internal/operations"
)

// MRCreateCommand implements mr create: one MR per selected repo, linked
// together, with an optional tracking issue, per §4.F's MRCreate.
type MRCreateCommand struct{}

func init() {
	Register(&MRCreateCommand{})
	Register(&MRStatusCommand{})
	Register(&MRUpdateCommand{})
	Register(&MRMergeCommand{})
	Register(&MRCloseCommand{})
}

func (c *MRCreateCommand) Name() string { return "mr-create" }

func (c *MRCreateCommand) Description() string {
	return "Create a merge request per selected repo and link them together"
}

func (c *MRCreateCommand) ValidateArgs(p arg.Parsed) error {
	if p.String("branch", "") == "" {
		return fmt.Errorf("usage: harmonia mr-create --branch <name> [selection flags]")
	}
	return nil
}

func (c *MRCreateCommand) Execute(ctx context.Context, rt *Runtime, p arg.Parsed) error {
	deps, err := newOperationDeps(rt)
	if err != nil {
		return err
	}
	selection, err := selectRepos(ctx, rt, deps, p, true)
	if err != nil {
		return err
	}

	report, created := deps.MRCreate(ctx, selection, operations.MRCreateOptions{
		Branch:              p.String("branch", ""),
		BaseBranch:          p.String("base", ""),
		Draft:               p.Bool("draft"),
		CreateTrackingIssue: p.Bool("tracking-issue"),
		IssueProject:        p.String("issue-project", ""),
	})

	for _, rm := range created {
		fmt.Printf("%s: %s -> %s\n", rm.Repo, rm.MR.ID, rm.MR.URL)
	}
	return reportResult(report)
}

// MRStatusCommand implements mr status.
type MRStatusCommand struct{}

func (c *MRStatusCommand) Name() string { return "mr-status" }

func (c *MRStatusCommand) Description() string {
	return "Show the current state of a set of merge requests"
}

func (c *MRStatusCommand) ValidateArgs(p arg.Parsed) error {
	if len(p.StringSlice("mr")) == 0 {
		return fmt.Errorf("usage: harmonia mr-status --mr repo=mr-id [--mr repo=mr-id ...]")
	}
	return nil
}

func (c *MRStatusCommand) Execute(ctx context.Context, rt *Runtime, p arg.Parsed) error {
	deps, err := newOperationDeps(rt)
	if err != nil {
		return err
	}
	mrs, err := mrsFromArgs(p)
	if err != nil {
		return err
	}
	return reportResult(deps.MRStatus(ctx, mrs))
}

// MRUpdateCommand implements mr update.
type MRUpdateCommand struct{}

func (c *MRUpdateCommand) Name() string { return "mr-update" }

func (c *MRUpdateCommand) Description() string {
	return "Update the title or description of a set of merge requests"
}

func (c *MRUpdateCommand) ValidateArgs(p arg.Parsed) error {
	if len(p.StringSlice("mr")) == 0 {
		return fmt.Errorf("usage: harmonia mr-update --mr repo=mr-id [--title ...] [--description ...]")
	}
	return nil
}

func (c *MRUpdateCommand) Execute(ctx context.Context, rt *Runtime, p arg.Parsed) error {
	deps, err := newOperationDeps(rt)
	if err != nil {
		return err
	}
	mrs, err := mrsFromArgs(p)
	if err != nil {
		return err
	}

	params := forge.UpdateMRParams{}
	if v := p.String("title", ""); v != "" {
		params.Title = &v
	}
	if v := p.String("description", ""); v != "" {
		params.Description = &v
	}

	return reportResult(deps.MRUpdate(ctx, mrs, params))
}

// MRMergeCommand implements mr merge.
type MRMergeCommand struct{}

func (c *MRMergeCommand) Name() string { return "mr-merge" }

func (c *MRMergeCommand) Description() string {
	return "Wait for CI and merge a set of merge requests in dependency order"
}

func (c *MRMergeCommand) ValidateArgs(p arg.Parsed) error {
	if len(p.StringSlice("mr")) == 0 {
		return fmt.Errorf("usage: harmonia mr-merge --mr repo=mr-id [selection flags]")
	}
	return nil
}

func (c *MRMergeCommand) Execute(ctx context.Context, rt *Runtime, p arg.Parsed) error {
	deps, err := newOperationDeps(rt)
	if err != nil {
		return err
	}
	mrs, err := mrsFromArgs(p)
	if err != nil {
		return err
	}
	selection, err := selectRepos(ctx, rt, deps, p, true)
	if err != nil {
		return err
	}

	report := deps.MRMerge(ctx, selection, mrs, operations.MRMergeOptions{
		Squash:             p.Bool("squash"),
		DeleteSourceBranch: p.Bool("delete-source-branch"),
		NoWait:             p.Bool("no-wait"),
	})
	return reportResult(report)
}

// MRCloseCommand implements mr close.
type MRCloseCommand struct{}

func (c *MRCloseCommand) Name() string { return "mr-close" }

func (c *MRCloseCommand) Description() string {
	return "Close a set of merge requests without merging them"
}

func (c *MRCloseCommand) ValidateArgs(p arg.Parsed) error {
	if len(p.StringSlice("mr")) == 0 {
		return fmt.Errorf("usage: harmonia mr-close --mr repo=mr-id [--mr repo=mr-id ...]")
	}
	return nil
}

func (c *MRCloseCommand) Execute(ctx context.Context, rt *Runtime, p arg.Parsed) error {
	deps, err := newOperationDeps(rt)
	if err != nil {
		return err
	}
	mrs, err := mrsFromArgs(p)
	if err != nil {
		return err
	}
	return reportResult(deps.MRClose(ctx, mrs))
}
