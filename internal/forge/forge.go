// Package forge implements Harmonia's Forge Capability Contract (component
// G): a narrow interface over MR/PR lifecycle, CI status, and issue
// creation, with pluggable GitHub/GitLab clients. Grounded on
// original_source/src/forge/{mod,traits,github,gitlab}.rs.
//
// No HTTP client library appears anywhere in the retrieved example corpus
// (no go-github, go-gitlab, resty, or sling import was found), so these
// clients use net/http + encoding/json directly rather than adopting an
// out-of-pack dependency for a single narrow concern — see DESIGN.md.
package forge

import (
	"context"

	"github.com/jpetrucciani/harmonia/internal/model"
)

// User identifies a forge account.
type User struct {
	ID       string
	Username string
}

// Issue is a created tracking issue.
type Issue struct {
	ID    string
	IID   string
	Title string
	URL   string
}

// CreateMRParams describes a new merge/pull request.
type CreateMRParams struct {
	Title         string
	Description   string
	SourceBranch  string
	TargetBranch  string
	Draft         bool
	Labels        []string
	Reviewers     []string
}

// UpdateMRParams describes a partial MR update; nil fields are left
// unchanged.
type UpdateMRParams struct {
	Title       *string
	Description *string
	Labels      *[]string
	Reviewers   *[]string
}

// MergeMRParams controls how an MR is merged.
type MergeMRParams struct {
	Squash              bool
	DeleteSourceBranch  bool
}

// CreateIssueParams describes a new tracking issue.
type CreateIssueParams struct {
	Project     string
	Title       string
	Description string
	Labels      []string
}

// RepoMR pairs a repo with an MR, the unit linkMRs operates over.
type RepoMR struct {
	Repo model.RepoId
	MR   model.MR
}

// Forge is the narrow interface the core depends on. Implementations that
// can't support an operation (e.g. a forge with no issue tracker) return
// *herrors.ForgeError{Kind: herrors.ForgeUnsupported}.
type Forge interface {
	CreateMR(ctx context.Context, repo model.RepoId, params CreateMRParams) (model.MR, error)
	GetMR(ctx context.Context, repo model.RepoId, id string) (model.MR, error)
	UpdateMR(ctx context.Context, repo model.RepoId, id string, params UpdateMRParams) (model.MR, error)
	LinkMRs(ctx context.Context, mrs []RepoMR) error
	MergeMR(ctx context.Context, repo model.RepoId, id string, params MergeMRParams) error
	CloseMR(ctx context.Context, repo model.RepoId, id string) error
	GetCIStatus(ctx context.Context, repo model.RepoId, ref string) (model.CIState, error)
	CreateIssue(ctx context.Context, params CreateIssueParams) (Issue, error)
	GetUser(ctx context.Context, username string) (User, error)
}

// ForKind resolves the Forge implementation for a workspace's configured
// kind, falling back to Unsupported for anything else.
func ForKind(cfg model.ForgeConfig) Forge {
	switch cfg.Kind {
	case "github":
		return NewGitHubClient(cfg.BaseURL, cfg.Token)
	case "gitlab":
		return NewGitLabClient(cfg.BaseURL, cfg.Token)
	default:
		return Unsupported{Kind: string(cfg.Kind)}
	}
}
