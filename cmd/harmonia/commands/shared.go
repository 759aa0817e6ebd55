package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/jpetrucciani/harmonia/internal/clisupport/arg"
	"github.com/jpetrucciani/harmonia/internal/model"
	"github.com/jpetrucciani/harmonia/internal/operations"
	"github.com/jpetrucciani/harmonia/internal/scheduler"
)

// criteriaFromArgs translates the selection flags every mutating command
// shares (--repo, --group, --all, --changed, --with-deps, --with-all-deps,
// --include, --exclude) into a scheduler.Criteria, per §4.E.
func criteriaFromArgs(p arg.Parsed) scheduler.Criteria {
	return scheduler.Criteria{
		Explicit:    p.StringSlice("repo"),
		Groups:      p.StringSlice("group"),
		All:         p.Bool("all"),
		Changed:     p.Bool("changed"),
		WithDeps:    p.Bool("with-deps"),
		WithAllDeps: p.Bool("with-all-deps"),
		Include:     p.StringSlice("include"),
		Exclude:     p.StringSlice("exclude"),
	}
}

// runOptionsFromArgs translates the execution-model flags shared by every
// mutating handler (--parallel, --fail-fast, --ignore-errors, --no-hooks).
func runOptionsFromArgs(p arg.Parsed, defaultParallel int) operations.RunOptions {
	parallel := defaultParallel
	if v := p.String("parallel", ""); v != "" {
		fmt.Sscanf(v, "%d", &parallel)
	}
	return operations.RunOptions{
		Parallel:     parallel,
		FailFast:     p.Bool("fail-fast"),
		IgnoreErrors: p.Bool("ignore-errors"),
		NoHooks:      p.Bool("no-hooks"),
	}
}

// changedFunc builds a scheduler.ChangedFunc backed by rt.VCS.Status,
// honoring the workspace's include_untracked policy, per §4.E's "--changed
// targets only dirty repos" rule.
func changedFunc(rt *Runtime) scheduler.ChangedFunc {
	return func(ctx context.Context, id model.RepoId) (bool, error) {
		repo := rt.Workspace.MustRepo(id)
		status, err := rt.VCS.Status(ctx, repo.Path)
		if err != nil {
			return false, err
		}
		return status.Dirty(rt.Workspace.Defaults.IncludeUntracked), nil
	}
}

// selectRepos resolves a command's target repo set: Criteria from the
// shared selection flags, evaluated against deps' graph/query view.
func selectRepos(ctx context.Context, rt *Runtime, deps *operations.Deps, p arg.Parsed, mutating bool) ([]model.RepoId, error) {
	criteria := criteriaFromArgs(p)
	return scheduler.Select(ctx, rt.Workspace, deps.Query, criteria, changedFunc(rt), mutating)
}

// newOperationDeps builds an operations.Deps from rt, the composition every
// command needs before dispatching to internal/operations.
func newOperationDeps(rt *Runtime) (*operations.Deps, error) {
	return operations.NewDeps(rt.Workspace, rt.VCS, rt.Forge, rt.Manifests)
}

// splitKeyValue splits a "key=value" flag argument, the shape --version and
// --mr repeated flags share.
func splitKeyValue(s string) (key, value string, ok bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == '=' {
			return s[:i], s[i+1:], true
		}
	}
	return "", "", false
}

// mrsFromArgs parses repeated --mr repo=mr-id flags into the
// map[model.RepoId]string every mr status/update/merge/close handler takes.
// Explicit only — no implicit changeset lookup, so a command's behavior
// never depends on which branch happens to be checked out.
func mrsFromArgs(p arg.Parsed) (map[model.RepoId]string, error) {
	mrs := map[model.RepoId]string{}
	for _, kv := range p.StringSlice("mr") {
		repo, id, ok := splitKeyValue(kv)
		if !ok {
			return nil, fmt.Errorf("--mr expects repo=mr-id, got %q", kv)
		}
		mrs[model.RepoId(repo)] = id
	}
	if len(mrs) == 0 {
		return nil, fmt.Errorf("at least one --mr repo=mr-id is required")
	}
	return mrs, nil
}

// printReport renders an OperationReport as an aligned per-repo table,
// mirroring GitGrove's command output style (a short status line per repo)
// generalized to cover every RepoState.
func printReport(report model.OperationReport) {
	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintf(w, "%s:\n", report.Operation)
	for _, o := range report.Outcomes {
		line := string(o.State)
		if o.Err != nil {
			line = fmt.Sprintf("%s: %s", line, o.Err)
		} else if o.Stdout != "" {
			line = fmt.Sprintf("%s: %s", line, firstLine(o.Stdout))
		}
		fmt.Fprintf(w, "  %s\t%s\n", o.Repo, line)
	}
	w.Flush()
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}

// reportError wraps a failed OperationReport into an error carrying its
// exit code, so main can propagate it without re-deriving the code.
type reportError struct {
	report model.OperationReport
}

func (e *reportError) Error() string {
	return fmt.Sprintf("%s: %d repo(s) failed", e.report.Operation, failedCount(e.report))
}

func (e *reportError) ExitCode() int { return e.report.ExitCode() }

func failedCount(r model.OperationReport) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.State == model.StateFailed {
			n++
		}
	}
	return n
}

// reportResult prints report and, if it carries any failures, returns a
// *reportError so the caller's exit code reflects it.
func reportResult(report model.OperationReport) error {
	printReport(report)
	if report.HasFailures() {
		return &reportError{report: report}
	}
	return nil
}
