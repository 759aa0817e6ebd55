package operations

import (
	"context"
	"fmt"
	"time"

	"github.com/jpetrucciani/harmonia/internal/forge"
	"github.com/jpetrucciani/harmonia/internal/herrors"
	"github.com/jpetrucciani/harmonia/internal/model"
)

// MRCreateOptions controls mr create, per §4.F. Changeset, when non-nil,
// supplies per-repo summaries (used as each MR's description) and the
// tracking issue title (the issue body always lists the created MRs); its
// absence falls back to the branch name alone.
type MRCreateOptions struct {
	Changeset           *model.Changeset
	Branch              string
	BaseBranch          string
	Draft               bool
	CreateTrackingIssue bool
	IssueProject        string
}

// MRCreate creates one MR per repo in selection, in graph order, then —
// when more than one MR was created — links them with a single
// Forge.LinkMRs call (the workspace link_strategy is not passed to the
// adapter) and, when requested, opens a tracking issue. Returns the created MRs alongside the aggregate
// report.
func (d *Deps) MRCreate(ctx context.Context, selection []model.RepoId, opts MRCreateOptions) (model.OperationReport, []forge.RepoMR) {
	order, err := d.Query.MergeOrder(selection)
	if err != nil {
		outcomes := make([]model.RepoOutcome, 0, len(selection))
		for _, id := range selection {
			outcomes = append(outcomes, failOutcome(id, err))
		}
		return model.OperationReport{Operation: "mr_create", Outcomes: outcomes}, nil
	}
	selected := make(map[model.RepoId]bool, len(selection))
	for _, id := range selection {
		selected[id] = true
	}

	var outcomes []model.RepoOutcome
	var created []forge.RepoMR

	for _, id := range order {
		if !selected[id] {
			continue
		}
		repo := d.Workspace.MustRepo(id)
		params := forge.CreateMRParams{
			Title:        mrTitle(opts.Changeset, repo, opts.Branch),
			Description:  mrDescription(opts.Changeset, id),
			SourceBranch: opts.Branch,
			TargetBranch: firstNonEmpty(opts.BaseBranch, repo.DefaultBranch),
			Draft:        opts.Draft,
		}
		mr, err := d.Forge.CreateMR(ctx, id, params)
		if err != nil {
			outcomes = append(outcomes, failOutcome(id, err))
			continue
		}
		created = append(created, forge.RepoMR{Repo: id, MR: mr})
		outcomes = append(outcomes, model.RepoOutcome{Repo: id, State: model.StateSuccess, Stdout: mr.URL})
	}

	if len(created) > 1 {
		if err := d.Forge.LinkMRs(ctx, created); err != nil {
			outcomes = append(outcomes, failOutcome("", err))
		}
	}

	if opts.CreateTrackingIssue && len(created) > 0 {
		issueParams := forge.CreateIssueParams{
			Project:     opts.IssueProject,
			Title:       trackingIssueTitle(opts.Changeset, opts.Branch),
			Description: trackingIssueBody(created),
		}
		if _, err := d.Forge.CreateIssue(ctx, issueParams); err != nil {
			outcomes = append(outcomes, failOutcome("", err))
		}
	}

	return model.OperationReport{Operation: "mr_create", Outcomes: outcomes}, created
}

func mrTitle(cs *model.Changeset, repo model.Repo, branch string) string {
	if cs != nil && cs.Title != "" {
		return cs.Title
	}
	return fmt.Sprintf("%s: %s", repo.EffectivePackageName(), branch)
}

func mrDescription(cs *model.Changeset, id model.RepoId) string {
	if cs == nil {
		return ""
	}
	for _, r := range cs.Repos {
		if r.Repo == id {
			return r.Summary
		}
	}
	return cs.Description
}

func trackingIssueTitle(cs *model.Changeset, branch string) string {
	if cs != nil && cs.Title != "" {
		return cs.Title
	}
	return fmt.Sprintf("Coordinated change: %s", branch)
}

func trackingIssueBody(created []forge.RepoMR) string {
	body := "Linked merge requests:\n"
	for _, rm := range created {
		body += fmt.Sprintf("- %s: %s\n", rm.Repo, rm.MR.URL)
	}
	return body
}

// MRStatus fetches the current state of each repo's MR, keyed by the caller
// (typically the active changeset's LinkedMRs).
func (d *Deps) MRStatus(ctx context.Context, mrs map[model.RepoId]string) model.OperationReport {
	var outcomes []model.RepoOutcome
	for id, mrID := range mrs {
		mr, err := d.Forge.GetMR(ctx, id, mrID)
		if err != nil {
			outcomes = append(outcomes, failOutcome(id, err))
			continue
		}
		outcomes = append(outcomes, model.RepoOutcome{Repo: id, State: model.StateSuccess, Stdout: fmt.Sprintf("%s: %s (%s)", mr.URL, mr.State, mr.Branch)})
	}
	return model.OperationReport{Operation: "mr_status", Outcomes: outcomes}
}

// MRUpdate applies params to each repo's MR.
func (d *Deps) MRUpdate(ctx context.Context, mrs map[model.RepoId]string, params forge.UpdateMRParams) model.OperationReport {
	var outcomes []model.RepoOutcome
	for id, mrID := range mrs {
		mr, err := d.Forge.UpdateMR(ctx, id, mrID, params)
		if err != nil {
			outcomes = append(outcomes, failOutcome(id, err))
			continue
		}
		outcomes = append(outcomes, model.RepoOutcome{Repo: id, State: model.StateSuccess, Stdout: mr.URL})
	}
	return model.OperationReport{Operation: "mr_update", Outcomes: outcomes}
}

// MRClose closes each repo's MR.
func (d *Deps) MRClose(ctx context.Context, mrs map[model.RepoId]string) model.OperationReport {
	var outcomes []model.RepoOutcome
	for id, mrID := range mrs {
		if err := d.Forge.CloseMR(ctx, id, mrID); err != nil {
			outcomes = append(outcomes, failOutcome(id, err))
			continue
		}
		outcomes = append(outcomes, model.RepoOutcome{Repo: id, State: model.StateSuccess})
	}
	return model.OperationReport{Operation: "mr_close", Outcomes: outcomes}
}

// MRMergeOptions controls mr merge, per §4.F.
type MRMergeOptions struct {
	Squash             bool
	DeleteSourceBranch bool
	NoWait             bool
	PollInterval       time.Duration // defaults to 5s, per wait_for_ci_success
}

// MRMerge walks selection in graph order and, for each repo, waits for CI
// success (bounded by repo.Policy.CI.TimeoutMinutes) before merging,
// unless NoWait. Grounded on original_source/src/cli/mod.rs's
// wait_for_ci_success: poll GetCIStatus every PollInterval; only a Success
// state is a green light; Skipped/Failed/Canceled is an immediate error;
// repo.Policy.CI.RequiredChecks is not consulted, since GetCIStatus reports
// one combined state per MR; Pending/Running keeps polling
// until repo.Policy.CI.TimeoutMinutes elapses (default 30), at which point
// it's a CITimeout.
func (d *Deps) MRMerge(ctx context.Context, selection []model.RepoId, mrs map[model.RepoId]string, opts MRMergeOptions) model.OperationReport {
	order, err := d.Query.MergeOrder(selection)
	if err != nil {
		outcomes := make([]model.RepoOutcome, 0, len(selection))
		for _, id := range selection {
			outcomes = append(outcomes, failOutcome(id, err))
		}
		return model.OperationReport{Operation: "mr_merge", Outcomes: outcomes}
	}
	selected := make(map[model.RepoId]bool, len(selection))
	for _, id := range selection {
		selected[id] = true
	}

	var outcomes []model.RepoOutcome
	for _, id := range order {
		if !selected[id] {
			continue
		}
		mrID, ok := mrs[id]
		if !ok {
			outcomes = append(outcomes, failOutcome(id, fmt.Errorf("no MR recorded for repo %s", id)))
			break
		}
		repo := d.Workspace.MustRepo(id)

		if !opts.NoWait {
			if err := d.waitForCI(ctx, id, mrID, repo.Policy.CI, opts.PollInterval); err != nil {
				outcomes = append(outcomes, failOutcome(id, err))
				break
			}
		}

		if err := d.Forge.MergeMR(ctx, id, mrID, forge.MergeMRParams{Squash: opts.Squash, DeleteSourceBranch: opts.DeleteSourceBranch}); err != nil {
			outcomes = append(outcomes, failOutcome(id, err))
			break
		}
		outcomes = append(outcomes, model.RepoOutcome{Repo: id, State: model.StateSuccess})
	}

	return model.OperationReport{Operation: "mr_merge", Outcomes: outcomes}
}

func (d *Deps) waitForCI(ctx context.Context, id model.RepoId, mrID string, ci model.CIConfig, pollInterval time.Duration) error {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	timeoutMinutes := ci.TimeoutMinutes
	if timeoutMinutes <= 0 {
		timeoutMinutes = 30
	}
	deadline := time.Now().Add(time.Duration(timeoutMinutes) * time.Minute)

	for {
		state, err := d.Forge.GetCIStatus(ctx, id, mrID)
		if err != nil {
			return err
		}

		switch state {
		case model.CISuccess:
			return nil
		case model.CISkipped, model.CIFailed, model.CICanceled:
			return fmt.Errorf("mr merge: CI %s for repo %s (MR %s)", state, id, mrID)
		}

		if time.Now().After(deadline) {
			return &herrors.CITimeout{Repo: string(id), MR: mrID}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}
