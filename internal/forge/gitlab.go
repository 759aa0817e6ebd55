package forge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jpetrucciani/harmonia/internal/herrors"
	"github.com/jpetrucciani/harmonia/internal/model"
)

// GitLabClient implements Forge against the GitLab REST v4 API. Grounded
// on original_source's GitLabClient, same translation rationale as
// GitHubClient (no HTTP/forge SDK in the corpus — see DESIGN.md).
type GitLabClient struct {
	host  string
	token string
	http  *http.Client
}

func NewGitLabClient(host, token string) *GitLabClient {
	if host == "" {
		host = "https://gitlab.com"
	}
	return &GitLabClient{host: strings.TrimRight(host, "/"), token: token, http: &http.Client{Timeout: 30 * time.Second}}
}

func (c *GitLabClient) request(ctx context.Context, method, path string, body any) (map[string]any, error) {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, &herrors.ForgeError{Kind: herrors.ForgeTransient, Reason: err.Error()}
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.host+"/api/v4"+path, reqBody)
	if err != nil {
		return nil, &herrors.ForgeError{Kind: herrors.ForgeTransient, Reason: err.Error()}
	}
	req.Header.Set("PRIVATE-TOKEN", c.token)
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &herrors.ForgeError{Kind: herrors.ForgeTransient, Reason: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &herrors.ForgeError{Kind: herrors.ForgeTransient, Reason: err.Error()}
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, &herrors.ForgeError{Kind: herrors.ForgeAuth, Reason: string(raw)}
	case http.StatusNotFound:
		return nil, &herrors.ForgeError{Kind: herrors.ForgeNotFound, Reason: string(raw)}
	case http.StatusTooManyRequests:
		return nil, &herrors.ForgeError{Kind: herrors.ForgeRateLimited, Reason: string(raw)}
	}
	if resp.StatusCode >= 400 {
		return nil, &herrors.ForgeError{Kind: herrors.ForgeTransient, Reason: fmt.Sprintf("status %d: %s", resp.StatusCode, raw)}
	}
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &herrors.ForgeError{Kind: herrors.ForgeTransient, Reason: err.Error()}
	}
	return out, nil
}

func (c *GitLabClient) projectPath(repo model.RepoId) string {
	return url.PathEscape(strings.TrimSpace(repo.String()))
}

func mrFromGitLabMR(repo model.RepoId, mr map[string]any) model.MR {
	out := model.MR{Repo: repo}
	if v, ok := mr["iid"].(float64); ok {
		out.ID = fmt.Sprintf("%d", int(v))
	}
	if v, ok := mr["title"].(string); ok {
		out.Title = v
	}
	if v, ok := mr["web_url"].(string); ok {
		out.URL = v
	}
	if v, ok := mr["source_branch"].(string); ok {
		out.Branch = v
	}
	if v, ok := mr["target_branch"].(string); ok {
		out.BaseBranch = v
	}
	out.State = model.MRDraft
	if state, ok := mr["state"].(string); ok {
		switch state {
		case "merged":
			out.State = model.MRMerged
		case "closed":
			out.State = model.MRClosed
		case "opened":
			if draft, ok := mr["draft"].(bool); ok && draft {
				out.State = model.MRDraft
			} else {
				out.State = model.MROpen
			}
		}
	}
	return out
}

func (c *GitLabClient) CreateMR(ctx context.Context, repo model.RepoId, params CreateMRParams) (model.MR, error) {
	body := map[string]any{
		"title":         params.Title,
		"description":   params.Description,
		"source_branch": params.SourceBranch,
		"target_branch": params.TargetBranch,
	}
	if params.Draft {
		body["title"] = "Draft: " + params.Title
	}
	resp, err := c.request(ctx, http.MethodPost, "/projects/"+c.projectPath(repo)+"/merge_requests", body)
	if err != nil {
		return model.MR{}, err
	}
	return mrFromGitLabMR(repo, resp), nil
}

func (c *GitLabClient) GetMR(ctx context.Context, repo model.RepoId, id string) (model.MR, error) {
	resp, err := c.request(ctx, http.MethodGet, "/projects/"+c.projectPath(repo)+"/merge_requests/"+id, nil)
	if err != nil {
		return model.MR{}, err
	}
	return mrFromGitLabMR(repo, resp), nil
}

func (c *GitLabClient) UpdateMR(ctx context.Context, repo model.RepoId, id string, params UpdateMRParams) (model.MR, error) {
	body := map[string]any{}
	if params.Title != nil {
		body["title"] = *params.Title
	}
	if params.Description != nil {
		body["description"] = *params.Description
	}
	resp, err := c.request(ctx, http.MethodPut, "/projects/"+c.projectPath(repo)+"/merge_requests/"+id, body)
	if err != nil {
		return model.MR{}, err
	}
	return mrFromGitLabMR(repo, resp), nil
}

// LinkMRs uses GitLab's native "related merge requests" relation, the
// related-MRs linking strategy named in §4.G — one call per pair.
func (c *GitLabClient) LinkMRs(ctx context.Context, mrs []RepoMR) error {
	for _, m := range mrs {
		for _, other := range mrs {
			if other.Repo == m.Repo {
				continue
			}
			path := fmt.Sprintf("/projects/%s/merge_requests/%s/related_merge_requests", c.projectPath(m.Repo), m.MR.ID)
			if _, err := c.request(ctx, http.MethodPost, path, map[string]any{"target_project_id": other.Repo.String(), "target_merge_request_iid": other.MR.ID}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *GitLabClient) MergeMR(ctx context.Context, repo model.RepoId, id string, params MergeMRParams) error {
	body := map[string]any{
		"squash":                   params.Squash,
		"should_remove_source_branch": params.DeleteSourceBranch,
	}
	_, err := c.request(ctx, http.MethodPut, "/projects/"+c.projectPath(repo)+"/merge_requests/"+id+"/merge", body)
	return err
}

func (c *GitLabClient) CloseMR(ctx context.Context, repo model.RepoId, id string) error {
	_, err := c.request(ctx, http.MethodPut, "/projects/"+c.projectPath(repo)+"/merge_requests/"+id, map[string]any{"state_event": "close"})
	return err
}

func (c *GitLabClient) GetCIStatus(ctx context.Context, repo model.RepoId, ref string) (model.CIState, error) {
	resp, err := c.request(ctx, http.MethodGet, "/projects/"+c.projectPath(repo)+"/repository/commits/"+ref+"/statuses", nil)
	if err != nil {
		return model.CIPending, err
	}
	status, _ := resp["status"].(string)
	switch status {
	case "success":
		return model.CISuccess, nil
	case "failed":
		return model.CIFailed, nil
	case "running", "pending":
		return model.CIRunning, nil
	case "canceled":
		return model.CICanceled, nil
	case "skipped":
		return model.CISkipped, nil
	default:
		return model.CIPending, nil
	}
}

func (c *GitLabClient) CreateIssue(ctx context.Context, params CreateIssueParams) (Issue, error) {
	resp, err := c.request(ctx, http.MethodPost, "/projects/"+url.PathEscape(params.Project)+"/issues", map[string]any{
		"title":       params.Title,
		"description": params.Description,
		"labels":      strings.Join(params.Labels, ","),
	})
	if err != nil {
		return Issue{}, err
	}
	issue := Issue{}
	if v, ok := resp["iid"].(float64); ok {
		issue.IID = fmt.Sprintf("%d", int(v))
		issue.ID = issue.IID
	}
	if v, ok := resp["title"].(string); ok {
		issue.Title = v
	}
	if v, ok := resp["web_url"].(string); ok {
		issue.URL = v
	}
	return issue, nil
}

// GetUser hits GitLab's user-search endpoint, which returns a JSON array
// rather than a single object, so it bypasses request() and decodes the
// array itself.
func (c *GitLabClient) GetUser(ctx context.Context, username string) (User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+"/api/v4/users?username="+url.QueryEscape(username), nil)
	if err != nil {
		return User{}, &herrors.ForgeError{Kind: herrors.ForgeTransient, Reason: err.Error()}
	}
	req.Header.Set("PRIVATE-TOKEN", c.token)
	resp, err := c.http.Do(req)
	if err != nil {
		return User{}, &herrors.ForgeError{Kind: herrors.ForgeTransient, Reason: err.Error()}
	}
	defer resp.Body.Close()

	var results []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return User{}, &herrors.ForgeError{Kind: herrors.ForgeTransient, Reason: err.Error()}
	}
	if len(results) == 0 {
		return User{}, &herrors.ForgeError{Kind: herrors.ForgeNotFound, Reason: "no user named " + username}
	}
	u := User{Username: username}
	if v, ok := results[0]["id"].(float64); ok {
		u.ID = fmt.Sprintf("%d", int(v))
	}
	return u, nil
}

var _ Forge = (*GitLabClient)(nil)
