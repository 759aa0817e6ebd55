package forge

import (
	"context"

	"github.com/jpetrucciani/harmonia/internal/herrors"
	"github.com/jpetrucciani/harmonia/internal/model"
)

// Unsupported is returned by ForKind for any forge kind Harmonia doesn't
// implement a client for. Every method returns ForgeUnsupported, per §4.G
// ("others return CapabilityUnsupported").
type Unsupported struct {
	Kind string
}

func (u Unsupported) err() error {
	return &herrors.ForgeError{Kind: herrors.ForgeUnsupported, Reason: "forge kind " + u.Kind + " is not supported"}
}

func (u Unsupported) CreateMR(context.Context, model.RepoId, CreateMRParams) (model.MR, error) {
	return model.MR{}, u.err()
}
func (u Unsupported) GetMR(context.Context, model.RepoId, string) (model.MR, error) {
	return model.MR{}, u.err()
}
func (u Unsupported) UpdateMR(context.Context, model.RepoId, string, UpdateMRParams) (model.MR, error) {
	return model.MR{}, u.err()
}
func (u Unsupported) LinkMRs(context.Context, []RepoMR) error { return u.err() }
func (u Unsupported) MergeMR(context.Context, model.RepoId, string, MergeMRParams) error {
	return u.err()
}
func (u Unsupported) CloseMR(context.Context, model.RepoId, string) error { return u.err() }
func (u Unsupported) GetCIStatus(context.Context, model.RepoId, string) (model.CIState, error) {
	return model.CIPending, u.err()
}
func (u Unsupported) CreateIssue(context.Context, CreateIssueParams) (Issue, error) {
	return Issue{}, u.err()
}
func (u Unsupported) GetUser(context.Context, string) (User, error) {
	return User{}, u.err()
}

var _ Forge = Unsupported{}
