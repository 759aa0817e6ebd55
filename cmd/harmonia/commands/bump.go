package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/jpetrucciani/harmonia/internal/clisupport/arg"
	"github.com/jpetrucciani/harmonia/internal/operations"
	"github.com/jpetrucciani/harmonia/internal/version"
)

type BumpCommand struct{}

func init() {
	Register(&BumpCommand{})
}

func (c *BumpCommand) Name() string { return "bump" }

func (c *BumpCommand) Description() string {
	return "Bump the version of selected repos, optionally cascading to dependents"
}

func (c *BumpCommand) ValidateArgs(p arg.Parsed) error {
	if len(p.Positional) < 1 {
		return fmt.Errorf("usage: harmonia bump <major|minor|patch> [selection flags]")
	}
	return nil
}

func (c *BumpCommand) Execute(ctx context.Context, rt *Runtime, p arg.Parsed) error {
	deps, err := newOperationDeps(rt)
	if err != nil {
		return err
	}
	selection, err := selectRepos(ctx, rt, deps, p, true)
	if err != nil {
		return err
	}

	mode := version.ParseMode(rt.Workspace.Versioning.DefaultBumpMode)
	if v := p.String("mode", ""); v != "" {
		mode = version.ParseMode(v)
	}

	report, results := deps.VersionBump(ctx, selection, operations.VersionBumpOptions{
		Mode:         mode,
		Level:        version.ParseLevel(p.Positional[0]),
		PreTag:       p.String("pre-tag", ""),
		CalverFormat: firstNonEmptyArg(p.String("calver-format", ""), rt.Workspace.Versioning.DefaultCalverFmt),
		Cascade:      p.Bool("cascade"),
		DryRun:       p.Bool("dry-run"),
		NoCommit:     p.Bool("no-commit"),
		Today:        time.Now(),
	})

	for _, r := range results {
		cascaded := ""
		if r.Cascaded {
			cascaded = " (cascaded)"
		}
		fmt.Printf("%s: %s -> %s%s\n", r.Repo, r.OldVersion, r.NewVersion, cascaded)
	}
	return reportResult(report)
}

func firstNonEmptyArg(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
