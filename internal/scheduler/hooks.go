package scheduler

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/jpetrucciani/harmonia/internal/herrors"
)

// hookGraceDelay mirrors ShellGit's subprocessGraceDelay: the §5 SIGTERM-
// then-SIGKILL window applies to hook subprocesses too.
const hookGraceDelay = 5 * time.Second

// RunHooks executes workspaceHook (at workspaceRoot) then repoHook (at
// repoPath) for one repo. The workspace hook is skipped only when
// skipWorkspaceHook is set (this repo disables it); repo hook always runs
// when declared. Calls are not deduplicated: an operation over several
// repos runs the workspace hook once for each repo that does not disable it.
// Each command string is split on whitespace and exec'd directly — not
// through a shell — per the spec's explicit "not via a shell parser" rule,
// so hook authors can't rely on pipes/redirection/globbing.
func RunHooks(ctx context.Context, repo, hookName, workspaceRoot, repoPath string, workspaceHook, repoHook []string, skipWorkspaceHook bool) error {
	if !skipWorkspaceHook && len(workspaceHook) > 0 {
		if err := runHookCommand(ctx, repo, hookName, workspaceRoot, workspaceHook); err != nil {
			return err
		}
	}
	if len(repoHook) > 0 {
		if err := runHookCommand(ctx, repo, hookName, repoPath, repoHook); err != nil {
			return err
		}
	}
	return nil
}

func runHookCommand(ctx context.Context, repo, hookName, dir string, parts []string) error {
	if len(parts) == 0 {
		return nil
	}
	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	cmd.Dir = dir
	cmd.Cancel = func() error {
		return cmd.Process.Signal(unix.SIGTERM)
	}
	cmd.WaitDelay = hookGraceDelay
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return &herrors.HookFailed{Repo: repo, Hook: hookName, Stderr: strings.TrimSpace(stderr.String())}
	}
	return nil
}
