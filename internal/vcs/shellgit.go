package vcs

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// ShellGit implements VCS by shelling out to a git binary found on PATH.
// Adapted from GitGrove's core/internal/util/git/git.go runGit helper:
// the same "run, capture, trim" shape, but stdout and stderr are captured
// separately (the contract needs stderr alone for error reporting) and
// every call takes a context.Context for cancellation (§5).
type ShellGit struct{}

// subprocessGraceDelay is the §5-mandated window between SIGTERM and
// SIGKILL once ctx is cancelled.
const subprocessGraceDelay = 5 * time.Second

func (ShellGit) runGit(ctx context.Context, dir string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Cancel = func() error {
		return cmd.Process.Signal(unix.SIGTERM)
	}
	cmd.WaitDelay = subprocessGraceDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return Result{Stdout: strings.TrimSpace(stdout.String()), Stderr: strings.TrimSpace(stderr.String())}, err
}

func (g ShellGit) Clone(ctx context.Context, remoteURL, destPath string, depth int) (Result, error) {
	args := []string{"clone"}
	if depth > 0 {
		args = append(args, "--depth", strconv.Itoa(depth))
	}
	args = append(args, remoteURL, destPath)
	res, err := g.runGit(ctx, "", args...)
	return res, wrapErr(destPath, "clone", res, err)
}

func (g ShellGit) Fetch(ctx context.Context, repoPath string) (Result, error) {
	res, err := g.runGit(ctx, repoPath, "fetch", "--prune")
	return res, wrapErr(repoPath, "fetch", res, err)
}

func (g ShellGit) CurrentBranch(ctx context.Context, repoPath string) (string, error) {
	res, err := g.runGit(ctx, repoPath, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", wrapErr(repoPath, "current-branch", res, err)
	}
	return res.Stdout, nil
}

func (g ShellGit) Checkout(ctx context.Context, repoPath, branch string) (Result, error) {
	res, err := g.runGit(ctx, repoPath, "checkout", branch)
	return res, wrapErr(repoPath, "checkout", res, err)
}

func (g ShellGit) CreateBranch(ctx context.Context, repoPath, branch string) (Result, error) {
	res, err := g.runGit(ctx, repoPath, "checkout", "-b", branch)
	return res, wrapErr(repoPath, "create-branch", res, err)
}

// Status composes several plumbing calls into one Status value, the same
// decomposition GitGrove's status package uses (IsDetachedHEAD,
// HasStagedChanges, HasUnstagedChanges, HasUntrackedFiles), plus ahead/
// behind counts the teacher didn't need (GitGrove has no upstream-tracking
// concept; Harmonia's sync/plan operations do).
func (g ShellGit) Status(ctx context.Context, repoPath string) (Status, error) {
	var s Status

	branch, err := g.CurrentBranch(ctx, repoPath)
	if err != nil {
		return s, err
	}
	s.Branch = branch

	if symRes, symErr := g.runGit(ctx, repoPath, "rev-parse", "--symbolic-full-name", "HEAD"); symErr == nil {
		s.Detached = symRes.Stdout == "HEAD"
	}

	if _, err := g.runGit(ctx, repoPath, "diff", "--cached", "--quiet"); err != nil {
		s.Staged = true
	}
	if _, err := g.runGit(ctx, repoPath, "diff", "--quiet"); err != nil {
		s.Modified = true
	}
	if out, err := g.runGit(ctx, repoPath, "ls-files", "--others", "--exclude-standard"); err == nil {
		s.Untracked = out.Stdout != ""
	}
	if out, err := g.runGit(ctx, repoPath, "diff", "--name-only", "--diff-filter=U"); err == nil {
		s.Conflicts = out.Stdout != ""
	}

	if out, err := g.runGit(ctx, repoPath, "rev-list", "--left-right", "--count", "HEAD...@{upstream}"); err == nil {
		fields := strings.Fields(out.Stdout)
		if len(fields) == 2 {
			s.Ahead, _ = strconv.Atoi(fields[0])
			s.Behind, _ = strconv.Atoi(fields[1])
		}
	}

	return s, nil
}

func (g ShellGit) Add(ctx context.Context, repoPath string, paths []string) (Result, error) {
	args := append([]string{"add"}, paths...)
	res, err := g.runGit(ctx, repoPath, args...)
	return res, wrapErr(repoPath, "add", res, err)
}

func (g ShellGit) Commit(ctx context.Context, repoPath, message string) (Result, error) {
	res, err := g.runGit(ctx, repoPath, "commit", "-m", message)
	return res, wrapErr(repoPath, "commit", res, err)
}

func (g ShellGit) Push(ctx context.Context, repoPath, remote, branch string, setUpstream bool) (Result, error) {
	args := []string{"push"}
	if setUpstream {
		if _, err := g.runGit(ctx, repoPath, "rev-parse", "--abbrev-ref", branch+"@{upstream}"); err != nil {
			args = append(args, "-u")
		}
	}
	args = append(args, remote, branch)
	res, err := g.runGit(ctx, repoPath, args...)
	return res, wrapErr(repoPath, "push", res, err)
}

func (g ShellGit) Diff(ctx context.Context, repoPath string) (string, error) {
	res, err := g.runGit(ctx, repoPath, "diff")
	if err != nil {
		return "", wrapErr(repoPath, "diff", res, err)
	}
	return res.Stdout, nil
}

func (g ShellGit) Stash(ctx context.Context, repoPath string) (Result, error) {
	res, err := g.runGit(ctx, repoPath, "stash", "push", "--include-untracked")
	return res, wrapErr(repoPath, "stash", res, err)
}

func (g ShellGit) StashPop(ctx context.Context, repoPath string) (Result, error) {
	res, err := g.runGit(ctx, repoPath, "stash", "pop")
	return res, wrapErr(repoPath, "stash-pop", res, err)
}

func (g ShellGit) RebaseOnto(ctx context.Context, repoPath, upstream string) (Result, error) {
	res, err := g.runGit(ctx, repoPath, "rebase", upstream)
	return res, wrapErr(repoPath, "rebase", res, err)
}

func (g ShellGit) Merge(ctx context.Context, repoPath, branch string) (Result, error) {
	res, err := g.runGit(ctx, repoPath, "merge", "--no-edit", branch)
	return res, wrapErr(repoPath, "merge", res, err)
}

func (g ShellGit) FastForward(ctx context.Context, repoPath string) (Result, error) {
	res, err := g.runGit(ctx, repoPath, "merge", "--ff-only", "@{upstream}")
	return res, wrapErr(repoPath, "fast-forward", res, err)
}

var _ VCS = ShellGit{}

// IsClean mirrors GitGrove's IsClean/VerifyCleanState convenience helpers,
// reconstructed on top of Status rather than separate plumbing calls.
func IsClean(s Status, includeUntracked bool) bool {
	return !s.Dirty(includeUntracked)
}

// VerifyCleanState returns a descriptive error if the repo is not fully
// clean, the Go equivalent of GitGrove's VerifyCleanState.
func VerifyCleanState(repoPath string, s Status, includeUntracked bool) error {
	var issues []string
	if s.Detached {
		issues = append(issues, "HEAD is detached")
	}
	if s.Staged {
		issues = append(issues, "staged changes exist")
	}
	if s.Modified {
		issues = append(issues, "unstaged changes exist")
	}
	if includeUntracked && s.Untracked {
		issues = append(issues, "untracked files exist")
	}
	if len(issues) == 0 {
		return nil
	}
	return fmt.Errorf("repository %s is not clean: %s", repoPath, strings.Join(issues, "; "))
}
