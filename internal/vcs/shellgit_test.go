package vcs_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/jpetrucciani/harmonia/internal/vcs"
)

func execGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
}

func TestShellGitStatusReportsCleanRepo(t *testing.T) {
	dir := t.TempDir()
	execGit(t, dir, "init", "-b", "main")
	if err := os.WriteFile(filepath.Join(dir, "f.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	execGit(t, dir, "add", ".")
	execGit(t, dir, "commit", "-m", "initial")

	g := vcs.ShellGit{}
	status, err := g.Status(context.Background(), dir)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Branch != "main" {
		t.Fatalf("got branch %q, want main", status.Branch)
	}
	if !vcs.IsClean(status, true) {
		t.Fatalf("expected clean repo, got %+v", status)
	}
}

func TestShellGitStatusDetectsUntrackedAndModified(t *testing.T) {
	dir := t.TempDir()
	execGit(t, dir, "init", "-b", "main")
	if err := os.WriteFile(filepath.Join(dir, "f.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	execGit(t, dir, "add", ".")
	execGit(t, dir, "commit", "-m", "initial")

	if err := os.WriteFile(filepath.Join(dir, "f.txt"), []byte("changed"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "new.txt"), []byte("new"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	g := vcs.ShellGit{}
	status, err := g.Status(context.Background(), dir)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.Modified {
		t.Fatalf("expected modified=true")
	}
	if !status.Untracked {
		t.Fatalf("expected untracked=true")
	}
	if vcs.IsClean(status, true) {
		t.Fatalf("expected dirty repo")
	}
	if vcs.VerifyCleanState(dir, status, true) == nil {
		t.Fatalf("expected VerifyCleanState to report issues")
	}
}

func TestShellGitCreateBranchAndCommit(t *testing.T) {
	dir := t.TempDir()
	execGit(t, dir, "init", "-b", "main")
	if err := os.WriteFile(filepath.Join(dir, "f.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	execGit(t, dir, "add", ".")
	execGit(t, dir, "commit", "-m", "initial")

	ctx := context.Background()
	g := vcs.ShellGit{}

	if _, err := g.CreateBranch(ctx, dir, "feature/x"); err != nil {
		t.Fatalf("create branch: %v", err)
	}
	branch, err := g.CurrentBranch(ctx, dir)
	if err != nil {
		t.Fatalf("current branch: %v", err)
	}
	if branch != "feature/x" {
		t.Fatalf("got %q, want feature/x", branch)
	}

	if err := os.WriteFile(filepath.Join(dir, "g.txt"), []byte("more"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := g.Add(ctx, dir, []string{"g.txt"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := g.Commit(ctx, dir, "add g.txt"); err != nil {
		t.Fatalf("commit: %v", err)
	}
	status, err := g.Status(ctx, dir)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !vcs.IsClean(status, true) {
		t.Fatalf("expected clean after commit, got %+v", status)
	}
}
