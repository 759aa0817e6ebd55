package forge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jpetrucciani/harmonia/internal/herrors"
	"github.com/jpetrucciani/harmonia/internal/model"
)

// GitHubClient implements Forge against the GitHub REST API. Grounded on
// original_source's GitHubClient (send_json/get_json/post_json pattern),
// translated from reqwest::blocking to net/http/encoding/json since no
// HTTP client or GitHub SDK appears anywhere in the retrieved corpus.
type GitHubClient struct {
	host  string
	token string
	http  *http.Client
}

// NewGitHubClient builds a client against host (defaulting to the public
// API) using token for bearer authentication.
func NewGitHubClient(host, token string) *GitHubClient {
	if host == "" {
		host = "https://api.github.com"
	}
	return &GitHubClient{host: strings.TrimRight(host, "/"), token: token, http: &http.Client{Timeout: 30 * time.Second}}
}

func (c *GitHubClient) request(ctx context.Context, method, path string, body any) (map[string]any, error) {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, &herrors.ForgeError{Kind: herrors.ForgeTransient, Reason: err.Error()}
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.host+path, reqBody)
	if err != nil {
		return nil, &herrors.ForgeError{Kind: herrors.ForgeTransient, Reason: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", "harmonia")
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

func (c *GitHubClient) repoPath(repo model.RepoId) string {
	return strings.TrimSpace(repo.String())
}

func mrFromGitHubPR(repo model.RepoId, pr map[string]any) model.MR {
	mr := model.MR{Repo: repo}
	if v, ok := pr["number"].(float64); ok {
		mr.ID = fmt.Sprintf("%d", int(v))
	}
	if v, ok := pr["title"].(string); ok {
		mr.Title = v
	}
	if v, ok := pr["html_url"].(string); ok {
		mr.URL = v
	}
	if head, ok := pr["head"].(map[string]any); ok {
		if ref, ok := head["ref"].(string); ok {
			mr.Branch = ref
		}
	}
	if base, ok := pr["base"].(map[string]any); ok {
		if ref, ok := base["ref"].(string); ok {
			mr.BaseBranch = ref
		}
	}
	mr.State = model.MRDraft
	if merged, ok := pr["merged"].(bool); ok && merged {
		mr.State = model.MRMerged
	} else if state, ok := pr["state"].(string); ok {
		switch state {
		case "closed":
			mr.State = model.MRClosed
		case "open":
			if draft, ok := pr["draft"].(bool); ok && draft {
				mr.State = model.MRDraft
			} else {
				mr.State = model.MROpen
			}
		}
	}
	return mr
}

func (c *GitHubClient) CreateMR(ctx context.Context, repo model.RepoId, params CreateMRParams) (model.MR, error) {
	body := map[string]any{
		"title": params.Title,
		"body":  params.Description,
		"head":  params.SourceBranch,
		"base":  params.TargetBranch,
		"draft": params.Draft,
	}
	resp, err := c.request(ctx, http.MethodPost, "/repos/"+c.repoPath(repo)+"/pulls", body)
	if err != nil {
		return model.MR{}, err
	}
	return mrFromGitHubPR(repo, resp), nil
}

func (c *GitHubClient) GetMR(ctx context.Context, repo model.RepoId, id string) (model.MR, error) {
	resp, err := c.request(ctx, http.MethodGet, "/repos/"+c.repoPath(repo)+"/pulls/"+id, nil)
	if err != nil {
		return model.MR{}, err
	}
	return mrFromGitHubPR(repo, resp), nil
}

func (c *GitHubClient) UpdateMR(ctx context.Context, repo model.RepoId, id string, params UpdateMRParams) (model.MR, error) {
	body := map[string]any{}
	if params.Title != nil {
		body["title"] = *params.Title
	}
	if params.Description != nil {
		body["body"] = *params.Description
	}
	resp, err := c.request(ctx, http.MethodPatch, "/repos/"+c.repoPath(repo)+"/pulls/"+id, body)
	if err != nil {
		return model.MR{}, err
	}
	return mrFromGitHubPR(repo, resp), nil
}

// LinkMRs posts a comment on each PR backlinking every other PR in the
// set, GitHub having no native "related MRs" concept (the description
// backlink strategy named in §4.G).
func (c *GitHubClient) LinkMRs(ctx context.Context, mrs []RepoMR) error {
	for _, m := range mrs {
		var refs []string
		for _, other := range mrs {
			if other.Repo == m.Repo {
				continue
			}
			refs = append(refs, fmt.Sprintf("- %s: %s", other.Repo.String(), other.MR.URL))
		}
		if len(refs) == 0 {
			continue
		}
		body := "Related changes:\n" + strings.Join(refs, "\n")
		_, err := c.request(ctx, http.MethodPost, "/repos/"+c.repoPath(m.Repo)+"/issues/"+m.MR.ID+"/comments", map[string]any{"body": body})
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *GitHubClient) MergeMR(ctx context.Context, repo model.RepoId, id string, params MergeMRParams) error {
	body := map[string]any{"merge_method": "merge"}
	if params.Squash {
		body["merge_method"] = "squash"
	}
	_, err := c.request(ctx, http.MethodPut, "/repos/"+c.repoPath(repo)+"/pulls/"+id+"/merge", body)
	return err
}

func (c *GitHubClient) CloseMR(ctx context.Context, repo model.RepoId, id string) error {
	_, err := c.request(ctx, http.MethodPatch, "/repos/"+c.repoPath(repo)+"/pulls/"+id, map[string]any{"state": "closed"})
	return err
}

func (c *GitHubClient) GetCIStatus(ctx context.Context, repo model.RepoId, ref string) (model.CIState, error) {
	resp, err := c.request(ctx, http.MethodGet, "/repos/"+c.repoPath(repo)+"/commits/"+ref+"/status", nil)
	if err != nil {
		return model.CIPending, err
	}
	state, _ := resp["state"].(string)
	switch state {
	case "success":
		return model.CISuccess, nil
	case "failure", "error":
		return model.CIFailed, nil
	case "pending":
		return model.CIRunning, nil
	default:
		return model.CIPending, nil
	}
}

func (c *GitHubClient) CreateIssue(ctx context.Context, params CreateIssueParams) (Issue, error) {
	resp, err := c.request(ctx, http.MethodPost, "/repos/"+params.Project+"/issues", map[string]any{
		"title": params.Title,
		"body":  params.Description,
		"labels": params.Labels,
	})
	if err != nil {
		return Issue{}, err
	}
	issue := Issue{}
	if v, ok := resp["number"].(float64); ok {
		issue.ID = fmt.Sprintf("%d", int(v))
		issue.IID = issue.ID
	}
	if v, ok := resp["title"].(string); ok {
		issue.Title = v
	}
	if v, ok := resp["html_url"].(string); ok {
		issue.URL = v
	}
	return issue, nil
}

func (c *GitHubClient) GetUser(ctx context.Context, username string) (User, error) {
	resp, err := c.request(ctx, http.MethodGet, "/users/"+username, nil)
	if err != nil {
		return User{}, err
	}
	u := User{Username: username}
	if v, ok := resp["id"].(float64); ok {
		u.ID = fmt.Sprintf("%d", int(v))
	}
	return u, nil
}

var _ Forge = (*GitHubClient)(nil)
