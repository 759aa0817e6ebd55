// Package vcs implements Harmonia's VCS Adapter Contract (component H): a
// narrow interface over the git operations the core needs, plus a
// shell-out implementation. Grounded on GitGrove's
// core/internal/util/git/git.go runGit helper, generalized to take a
// context.Context per call (for cancellation, per §5) and to return
// captured stdout/stderr for error reporting rather than a single string.
package vcs

import (
	"context"

	"github.com/jpetrucciani/harmonia/internal/herrors"
)

// Status reports a repo's working-tree state, per §4.H.
type Status struct {
	Branch    string
	Staged    bool
	Modified  bool
	Untracked bool
	Conflicts bool
	Ahead     int
	Behind    int
	Detached  bool
}

// Dirty reports whether the working tree has any uncommitted changes,
// optionally counting untracked files depending on workspace policy.
func (s Status) Dirty(includeUntracked bool) bool {
	if s.Staged || s.Modified || s.Conflicts {
		return true
	}
	return includeUntracked && s.Untracked
}

// Result carries a command's captured output, for handlers that need to
// surface stderr in a herrors.VcsError.
type Result struct {
	Stdout string
	Stderr string
}

// VCS is the narrow contract the core depends on. Implementations may shell
// out to a git binary or use a library; the contract makes no claim about
// which.
type VCS interface {
	Clone(ctx context.Context, remoteURL, destPath string, depth int) (Result, error)
	Fetch(ctx context.Context, repoPath string) (Result, error)
	CurrentBranch(ctx context.Context, repoPath string) (string, error)
	Checkout(ctx context.Context, repoPath, branch string) (Result, error)
	CreateBranch(ctx context.Context, repoPath, branch string) (Result, error)
	Status(ctx context.Context, repoPath string) (Status, error)
	Add(ctx context.Context, repoPath string, paths []string) (Result, error)
	Commit(ctx context.Context, repoPath, message string) (Result, error)
	Push(ctx context.Context, repoPath, remote, branch string, setUpstream bool) (Result, error)
	Diff(ctx context.Context, repoPath string) (string, error)
	Stash(ctx context.Context, repoPath string) (Result, error)
	StashPop(ctx context.Context, repoPath string) (Result, error)
	RebaseOnto(ctx context.Context, repoPath, upstream string) (Result, error)
	Merge(ctx context.Context, repoPath, branch string) (Result, error)
	FastForward(ctx context.Context, repoPath string) (Result, error)
}

// wrapErr builds a herrors.VcsError from a failed command's captured
// output, the shared failure shape every method below returns through.
func wrapErr(repo, op string, res Result, err error) error {
	if err == nil {
		return nil
	}
	return &herrors.VcsError{Repo: repo, Op: op, Stderr: res.Stderr}
}
