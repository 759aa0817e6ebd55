package operations_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jpetrucciani/harmonia/internal/ecosystem"
	"github.com/jpetrucciani/harmonia/internal/forge"
	"github.com/jpetrucciani/harmonia/internal/graph"
	"github.com/jpetrucciani/harmonia/internal/model"
	"github.com/jpetrucciani/harmonia/internal/operations"
	"github.com/jpetrucciani/harmonia/internal/vcs"
)

// fakeVCS is an in-memory stand-in for the VCS contract, recording calls so
// tests can assert on them without shelling out to a real git binary.
type fakeVCS struct {
	branch         map[string]string
	dirty          map[string]bool
	fetchErr       map[string]error
	fastForwardErr map[string]error
	commits        map[string][]string
	pushes         map[string][]string
	stashed        map[string]bool
}

func newFakeVCS() *fakeVCS {
	return &fakeVCS{
		branch:         map[string]string{},
		dirty:          map[string]bool{},
		fetchErr:       map[string]error{},
		fastForwardErr: map[string]error{},
		commits:        map[string][]string{},
		pushes:         map[string][]string{},
		stashed:        map[string]bool{},
	}
}

func (f *fakeVCS) Clone(ctx context.Context, remoteURL, destPath string, depth int) (vcs.Result, error) {
	return vcs.Result{}, nil
}
func (f *fakeVCS) Fetch(ctx context.Context, repoPath string) (vcs.Result, error) {
	return vcs.Result{}, f.fetchErr[repoPath]
}
func (f *fakeVCS) CurrentBranch(ctx context.Context, repoPath string) (string, error) {
	if b, ok := f.branch[repoPath]; ok {
		return b, nil
	}
	return "main", nil
}
func (f *fakeVCS) Checkout(ctx context.Context, repoPath, branch string) (vcs.Result, error) {
	f.branch[repoPath] = branch
	return vcs.Result{}, nil
}
func (f *fakeVCS) CreateBranch(ctx context.Context, repoPath, branch string) (vcs.Result, error) {
	return vcs.Result{}, nil
}
func (f *fakeVCS) Status(ctx context.Context, repoPath string) (vcs.Status, error) {
	return vcs.Status{Branch: f.branch[repoPath], Modified: f.dirty[repoPath]}, nil
}
func (f *fakeVCS) Add(ctx context.Context, repoPath string, paths []string) (vcs.Result, error) {
	return vcs.Result{}, nil
}
func (f *fakeVCS) Commit(ctx context.Context, repoPath, message string) (vcs.Result, error) {
	f.commits[repoPath] = append(f.commits[repoPath], message)
	return vcs.Result{}, nil
}
func (f *fakeVCS) Push(ctx context.Context, repoPath, remote, branch string, setUpstream bool) (vcs.Result, error) {
	f.pushes[repoPath] = append(f.pushes[repoPath], branch)
	return vcs.Result{}, nil
}
func (f *fakeVCS) Diff(ctx context.Context, repoPath string) (string, error) { return "", nil }
func (f *fakeVCS) Stash(ctx context.Context, repoPath string) (vcs.Result, error) {
	f.stashed[repoPath] = true
	return vcs.Result{}, nil
}
func (f *fakeVCS) StashPop(ctx context.Context, repoPath string) (vcs.Result, error) {
	f.stashed[repoPath] = false
	return vcs.Result{}, nil
}
func (f *fakeVCS) RebaseOnto(ctx context.Context, repoPath, upstream string) (vcs.Result, error) {
	return vcs.Result{}, nil
}
func (f *fakeVCS) Merge(ctx context.Context, repoPath, branch string) (vcs.Result, error) {
	return vcs.Result{}, nil
}
func (f *fakeVCS) FastForward(ctx context.Context, repoPath string) (vcs.Result, error) {
	return vcs.Result{}, f.fastForwardErr[repoPath]
}

// fakeForge is an in-memory stand-in for the Forge contract.
type fakeForge struct {
	created  []forge.RepoMR
	linked   [][]forge.RepoMR
	ciStates map[string]model.CIState
	merged   []string
	issues   []forge.CreateIssueParams
}

func newFakeForge() *fakeForge {
	return &fakeForge{ciStates: map[string]model.CIState{}}
}

func (f *fakeForge) CreateMR(ctx context.Context, repo model.RepoId, params forge.CreateMRParams) (model.MR, error) {
	mr := model.MR{ID: string(repo) + "-mr", Repo: repo, Branch: params.SourceBranch, Title: params.Title, URL: "https://example.test/" + string(repo), State: model.MROpen}
	f.created = append(f.created, forge.RepoMR{Repo: repo, MR: mr})
	return mr, nil
}
func (f *fakeForge) GetMR(ctx context.Context, repo model.RepoId, id string) (model.MR, error) {
	return model.MR{ID: id, Repo: repo, State: model.MROpen, URL: "https://example.test/" + string(repo)}, nil
}
func (f *fakeForge) UpdateMR(ctx context.Context, repo model.RepoId, id string, params forge.UpdateMRParams) (model.MR, error) {
	return model.MR{ID: id, Repo: repo, URL: "https://example.test/" + string(repo)}, nil
}
func (f *fakeForge) LinkMRs(ctx context.Context, mrs []forge.RepoMR) error {
	f.linked = append(f.linked, mrs)
	return nil
}
func (f *fakeForge) MergeMR(ctx context.Context, repo model.RepoId, id string, params forge.MergeMRParams) error {
	f.merged = append(f.merged, string(repo))
	return nil
}
func (f *fakeForge) CloseMR(ctx context.Context, repo model.RepoId, id string) error { return nil }
func (f *fakeForge) GetCIStatus(ctx context.Context, repo model.RepoId, ref string) (model.CIState, error) {
	if s, ok := f.ciStates[string(repo)]; ok {
		return s, nil
	}
	return model.CISuccess, nil
}
func (f *fakeForge) CreateIssue(ctx context.Context, params forge.CreateIssueParams) (forge.Issue, error) {
	f.issues = append(f.issues, params)
	return forge.Issue{ID: "issue-1", Title: params.Title}, nil
}
func (f *fakeForge) GetUser(ctx context.Context, username string) (forge.User, error) {
	return forge.User{ID: "u1", Username: username}, nil
}

// writePyproject writes a minimal pyproject.toml with the given version and
// dependency list to dir, returning its path.
func writePyproject(t *testing.T, dir, version string, deps []string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	body := "[project]\nname = \"x\"\nversion = \"" + version + "\"\ndependencies = [\n"
	for _, d := range deps {
		body += "  \"" + d + "\",\n"
	}
	body += "]\n"
	path := filepath.Join(dir, "pyproject.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write pyproject.toml: %v", err)
	}
	return path
}

// linearWorkspace builds core -> lib -> api (api depends on lib depends on
// core), each a Python repo with its own pyproject.toml on disk, mirroring
// spec.md's "Linear chain" worked example.
func linearWorkspace(t *testing.T) (*model.Workspace, map[model.RepoId]string) {
	t.Helper()
	root := t.TempDir()
	paths := map[model.RepoId]string{
		"core": filepath.Join(root, "core"),
		"lib":  filepath.Join(root, "lib"),
		"api":  filepath.Join(root, "api"),
	}
	writePyproject(t, paths["core"], "1.2.0", nil)
	writePyproject(t, paths["lib"], "1.0.0", []string{"core ==1.2.0"})
	writePyproject(t, paths["api"], "1.0.0", []string{"lib ==1.0.0"})

	ws := &model.Workspace{
		Name: "linear-chain",
		Repos: map[model.RepoId]model.Repo{
			"core": {ID: "core", Path: paths["core"], PackageName: "core", Ecosystem: model.EcosystemPython},
			"lib":  {ID: "lib", Path: paths["lib"], PackageName: "lib", Ecosystem: model.EcosystemPython},
			"api":  {ID: "api", Path: paths["api"], PackageName: "api", Ecosystem: model.EcosystemPython},
		},
	}
	return ws, paths
}

func newDeps(t *testing.T, ws *model.Workspace, v *fakeVCS, fg forge.Forge) *operations.Deps {
	t.Helper()
	registry := ecosystem.NewRegistry()
	g, err := graph.Build(ws.Repos, registry)
	if err != nil {
		t.Fatalf("graph.Build failed: %v", err)
	}
	return &operations.Deps{
		Workspace: ws,
		Graph:     g,
		Query:     graph.NewQuery(g, ws.Repos),
		VCS:       v,
		Forge:     fg,
		Manifests: registry,
	}
}
