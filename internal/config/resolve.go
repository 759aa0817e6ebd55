package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jpetrucciani/harmonia/internal/herrors"
	"github.com/jpetrucciani/harmonia/internal/model"
)

// Overrides carries environment/CLI layer values on top of workspace and
// repo config, the outermost two layers of the §4.C resolution order.
// Pointer/zero-value fields are left unset.
type Overrides struct {
	CloneProtocol    string
	Parallel         int
	IncludeUntracked *bool
	DefaultGroup     string
}

// EnvOverrides reads the environment-layer overrides named in the spec
// (HARMONIA_PARALLEL, HARMONIA_NO_COLOR is logging-only and handled in
// internal/logging) into an Overrides value.
func EnvOverrides() Overrides {
	var o Overrides
	if v := os.Getenv("HARMONIA_PARALLEL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			o.Parallel = n
		}
	}
	if v := os.Getenv("HARMONIA_CLONE_PROTOCOL"); v != "" {
		o.CloneProtocol = v
	}
	return o
}

// Discover walks up from start looking for .harmonia/config.toml (preferred)
// or a .harmonia.toml that looks like a workspace root config, mirroring
// original_source's find_workspace_from / looks_like_workspace_root_config.
func Discover(start string) (root, configPath string, err error) {
	dir, absErr := filepath.Abs(start)
	if absErr != nil {
		return "", "", absErr
	}
	for {
		preferred := filepath.Join(dir, ".harmonia", "config.toml")
		if isFile(preferred) {
			return dir, preferred, nil
		}
		fallback := filepath.Join(dir, ".harmonia.toml")
		if looksLikeWorkspaceRootConfig(fallback) {
			return dir, fallback, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", "", fmt.Errorf("workspace not found starting from %s", start)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func looksLikeWorkspaceRootConfig(path string) bool {
	if !isFile(path) {
		return false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	contents := string(data)
	for _, header := range []string{"[workspace]", "[repos]", "[groups]", "[defaults]", "[forge]", "[mr]", "[changesets]"} {
		if strings.Contains(contents, header) {
			return true
		}
	}
	return false
}

// Load reads and decodes the workspace config file at configPath, then
// resolves it (with each referenced repo's own .harmonia.toml, if present)
// into an immutable model.Workspace.
func Load(root, configPath string, overrides Overrides) (*model.Workspace, error) {
	var raw rawWorkspaceConfig
	if _, err := toml.DecodeFile(configPath, &raw); err != nil {
		return nil, fmt.Errorf("parsing workspace config %s: %w", configPath, err)
	}

	ws := &model.Workspace{
		Root:    root,
		Name:    raw.Workspace.Name,
		Repos:   make(map[model.RepoId]model.Repo),
		Groups:  make(map[string][]model.RepoId),
	}

	applyDefaults(ws, raw.Defaults)
	applyForge(ws, raw.Forge)
	applyMR(ws, raw.MR)
	applyVersioning(ws, raw.Versioning)
	applyChangesets(ws, raw.Changesets)
	applyOverrides(ws, overrides)

	workspaceHooks := model.HookSet{Custom: map[string][]string{}}
	if raw.Hooks != nil {
		workspaceHooks = hookSetFromRaw(raw.Hooks.PreCommit, raw.Hooks.PrePush, raw.Hooks.Custom)
	}

	for name, entry := range raw.Repos {
		id := model.RepoId(name)
		repo := model.Repo{
			ID:            id,
			Path:          filepath.Join(root, reposDirOr(raw.Workspace.ReposDir), name),
			RemoteURL:     entry.URL,
			DefaultBranch: firstNonEmpty(entry.DefaultBranch, "main"),
			PackageName:   entry.PackageName,
			External:      entry.External,
			Ignored:       entry.Ignored,
			DependsOn:     entry.DependsOn,
			Ecosystem:     model.EcosystemCustom,
		}

		repo.Policy.WorkspaceHooks = workspaceHooks

		repoConfigPath := filepath.Join(repo.Path, ".harmonia.toml")
		if rc, err := loadRepoConfig(repoConfigPath); err != nil {
			return nil, err
		} else if rc != nil {
			applyRepoConfig(&repo, rc)
		}

		ws.Repos[id] = repo
	}

	if raw.Groups != nil {
		def, groups := extractGroups(raw.Groups)
		for name, members := range groups {
			ids := make([]model.RepoId, 0, len(members))
			for _, m := range members {
				ids = append(ids, model.RepoId(m))
			}
			ws.Groups[name] = ids
		}
		if def != "" {
			ws.DefaultGroup = def
		}
	}
	if overrides.DefaultGroup != "" {
		ws.DefaultGroup = overrides.DefaultGroup
	}

	if err := Validate(ws); err != nil {
		return nil, err
	}
	return ws, nil
}

func reposDirOr(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func applyDefaults(ws *model.Workspace, d *rawDefaultsConfig) {
	ws.Defaults = model.WorkspaceDefaults{CloneProtocol: model.ProtocolSSH, Parallel: 0, IncludeUntracked: false}
	if d == nil {
		return
	}
	if d.CloneProtocol != "" {
		ws.Defaults.CloneProtocol = model.CloneProtocol(d.CloneProtocol)
	}
	if d.IncludeUntracked != nil {
		ws.Defaults.IncludeUntracked = *d.IncludeUntracked
	}
}

func applyOverrides(ws *model.Workspace, o Overrides) {
	if o.CloneProtocol != "" {
		ws.Defaults.CloneProtocol = model.CloneProtocol(o.CloneProtocol)
	}
	if o.Parallel != 0 {
		ws.Defaults.Parallel = o.Parallel
	}
	if o.IncludeUntracked != nil {
		ws.Defaults.IncludeUntracked = *o.IncludeUntracked
	}
}

func applyForge(ws *model.Workspace, f *rawForgeConfig) {
	if f == nil {
		return
	}
	ws.Forge = model.ForgeConfig{Kind: f.Type, Token: resolveToken(f.Token), BaseURL: f.Host}
}

func resolveToken(configured string) string {
	if configured != "" {
		return configured
	}
	return os.Getenv("HARMONIA_FORGE_TOKEN")
}

func applyMR(ws *model.Workspace, m *rawMRConfig) {
	ws.MR = model.MRConfig{LinkStrategy: model.LinkRelated}
	if m == nil {
		return
	}
	if m.LinkStrategy != "" {
		ws.MR.LinkStrategy = model.LinkStrategy(m.LinkStrategy)
	}
	if m.AddTrailers != nil {
		ws.MR.AddTrailers = *m.AddTrailers
	}
	ws.MR.TemplatePath = m.TemplatePath
	ws.MR.TrackingIssue = m.TrackingIssue != ""
}

func applyVersioning(ws *model.Workspace, v *rawVersioningConfig) {
	ws.Versioning = model.VersioningConfig{DefaultBumpMode: "tinyinc"}
	if v == nil {
		return
	}
	if v.DefaultBumpMode != "" {
		ws.Versioning.DefaultBumpMode = v.DefaultBumpMode
	}
	ws.Versioning.DefaultCalverFmt = v.DefaultCalverFmt
}

func applyChangesets(ws *model.Workspace, c *rawChangesetsConfig) {
	if c == nil {
		return
	}
	ws.Changesets = model.ChangesetsConfig{Enabled: c.Enabled, Dir: c.Dir}
}

func hookSetFromRaw(preCommit, prePush string, custom map[string]string) model.HookSet {
	hs := model.HookSet{Custom: map[string][]string{}}
	if preCommit != "" {
		hs.PreCommit = strings.Fields(preCommit)
	}
	if prePush != "" {
		hs.PrePush = strings.Fields(prePush)
	}
	for name, cmd := range custom {
		hs.Custom[name] = strings.Fields(cmd)
	}
	return hs
}

func loadRepoConfig(path string) (*rawRepoConfig, error) {
	if !isFile(path) {
		return nil, nil
	}
	var rc rawRepoConfig
	if _, err := toml.DecodeFile(path, &rc); err != nil {
		return nil, fmt.Errorf("parsing repo config %s: %w", path, err)
	}
	return &rc, nil
}

func applyRepoConfig(repo *model.Repo, rc *rawRepoConfig) {
	if rc.Package != nil {
		if rc.Package.Name != "" {
			repo.PackageName = rc.Package.Name
		}
		if rc.Package.Ecosystem != "" {
			repo.Ecosystem = model.Ecosystem(rc.Package.Ecosystem)
		}
	}
	if rc.Versioning != nil {
		repo.Manifest.VersionFile = rc.Versioning.File
		repo.Manifest.VersionPath = rc.Versioning.Path
		repo.Manifest.VersionPattern = rc.Versioning.Pattern
		repo.Manifest.BumpMode = rc.Versioning.BumpMode
	}
	if rc.Dependencies != nil {
		repo.Manifest.DependencyFile = rc.Dependencies.File
		repo.Manifest.DependencyPath = rc.Dependencies.Path
		repo.Manifest.InternalPattern = rc.Dependencies.InternalPattern
		repo.Manifest.InternalPackages = rc.Dependencies.InternalPackages
	}

	var disableWorkspace []string
	if rc.Hooks != nil {
		repo.Policy.RepoHooks = hookSetFromRaw(rc.Hooks.PreCommit, rc.Hooks.PrePush, rc.Hooks.Custom)
		disableWorkspace = rc.Hooks.DisableWorkspaceHooks
	}
	repo.Policy.DisableWorkspaceHooks = disableWorkspace

	if rc.CI != nil {
		repo.Policy.CI = model.CIConfig{RequiredChecks: rc.CI.RequiredChecks, TimeoutMinutes: int(rc.CI.TimeoutMinutes)}
	}
}

// extractGroups pulls the "default" key (a workspace-wide default group
// name) out of the loosely-typed [groups] table and interprets every other
// key as a group-name -> member-list entry, the Go equivalent of serde's
// #[serde(flatten)] handling in workspace.rs's GroupsConfig.
func extractGroups(raw map[string]any) (def string, groups map[string][]string) {
	groups = make(map[string][]string)
	for key, value := range raw {
		if key == "default" {
			if s, ok := value.(string); ok {
				def = s
			}
			continue
		}
		if list, ok := value.([]any); ok {
			members := make([]string, 0, len(list))
			for _, v := range list {
				if s, ok := v.(string); ok {
					members = append(members, s)
				}
			}
			groups[key] = members
		}
	}
	return def, groups
}

var internalPatternCompileCache = map[string]*regexp.Regexp{}

// CompileInternalPattern compiles a repo's internal_pattern regex, caching
// per unique pattern string for the lifetime of the process. A compile
// failure is a soft warning (BadInternalPattern), not fatal, per §4.C.
func CompileInternalPattern(repo model.RepoId, pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	if re, ok := internalPatternCompileCache[pattern]; ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &herrors.BadInternalPattern{Repo: repo.String(), Reason: err.Error()}
	}
	internalPatternCompileCache[pattern] = re
	return re, nil
}
