// Package config implements Harmonia's Configuration Resolver (component
// C): loading the workspace config file and each repo's optional config
// file, layering environment and CLI overrides on top, merging hooks, and
// validating the result into an immutable model.Workspace.
//
// Grounded on original_source/src/config/{workspace,repo,resolve}.rs: the
// raw*Config types below mirror those serde structs field-for-field
// (optional pointers standing in for serde's `Option<T>`), decoded with
// github.com/BurntSushi/toml instead of serde+toml since that's the
// idiomatic Go TOML library (no pack repo parses TOML, so this one is
// named rather than grounded — see DESIGN.md).
package config

// rawWorkspaceConfig is the top-level shape of .harmonia/config.toml.
type rawWorkspaceConfig struct {
	Workspace  rawWorkspaceSettings        `toml:"workspace"`
	Forge      *rawForgeConfig             `toml:"forge"`
	Repos      map[string]rawRepoEntry     `toml:"repos"`
	// Groups is decoded as a loose map rather than a struct because its
	// "default" key sits alongside arbitrary group-name keys — the TOML
	// analogue of serde's #[serde(flatten)], which BurntSushi/toml has no
	// direct equivalent for. Extracted by extractGroups in resolve.go.
	Groups     map[string]any              `toml:"groups"`
	Defaults   *rawDefaultsConfig          `toml:"defaults"`
	Hooks      *rawHooksConfig             `toml:"hooks"`
	MR         *rawMRConfig                `toml:"mr"`
	Versioning *rawVersioningConfig        `toml:"versioning"`
	Changesets *rawChangesetsConfig        `toml:"changesets"`
}

type rawWorkspaceSettings struct {
	Name      string `toml:"name"`
	ReposDir  string `toml:"repos_dir"`
}

type rawForgeConfig struct {
	Type         string `toml:"type"`
	Host         string `toml:"host"`
	DefaultGroup string `toml:"default_group"`
	Token        string `toml:"token"`
}

type rawRepoEntry struct {
	URL           string   `toml:"url"`
	DefaultBranch string   `toml:"default_branch"`
	PackageName   string   `toml:"package_name"`
	DependsOn     []string `toml:"depends_on"`
	External      bool     `toml:"external"`
	Ignored       bool     `toml:"ignored"`
}

type rawDefaultsConfig struct {
	DefaultBranch    string `toml:"default_branch"`
	CloneProtocol    string `toml:"clone_protocol"`
	CloneDepth       string `toml:"clone_depth"`
	IncludeUntracked *bool  `toml:"include_untracked"`
}

type rawHooksConfig struct {
	PreCommit     string            `toml:"pre_commit"`
	PrePush       string            `toml:"pre_push"`
	PostMRCreate  string            `toml:"post_mr_create"`
	Custom        map[string]string `toml:"custom"`
}

type rawMRConfig struct {
	LinkStrategy   string `toml:"link_strategy"`
	AddTrailers    *bool  `toml:"add_trailers"`
	TemplatePath   string `toml:"template_path"`
	TrackingIssue  string `toml:"tracking_issue"`
}

type rawVersioningConfig struct {
	DefaultBumpMode  string `toml:"default_bump_mode"`
	DefaultCalverFmt string `toml:"default_calver_format"`
}

type rawChangesetsConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// rawRepoConfig is the shape of a per-repo .harmonia.toml override file.
type rawRepoConfig struct {
	Package      *rawPackageConfig         `toml:"package"`
	Versioning   *rawRepoVersioningConfig  `toml:"versioning"`
	Dependencies *rawDepsConfig            `toml:"dependencies"`
	Hooks        *rawRepoHooksConfig       `toml:"hooks"`
	CI           *rawCIConfig              `toml:"ci"`
}

type rawPackageConfig struct {
	Name      string `toml:"name"`
	Ecosystem string `toml:"ecosystem"`
}

type rawRepoVersioningConfig struct {
	File     string `toml:"file"`
	Path     string `toml:"path"`
	Strategy string `toml:"strategy"`
	BumpMode string `toml:"bump_mode"`
	Pattern  string `toml:"pattern"`
}

type rawDepsConfig struct {
	File              string   `toml:"file"`
	Path              string   `toml:"path"`
	InternalPattern   string   `toml:"internal_pattern"`
	InternalPackages  []string `toml:"internal_packages"`
}

type rawRepoHooksConfig struct {
	DisableWorkspaceHooks []string          `toml:"disable_workspace_hooks"`
	PreCommit             string            `toml:"pre_commit"`
	PrePush               string            `toml:"pre_push"`
	Custom                map[string]string `toml:"custom"`
}

type rawCIConfig struct {
	RequiredChecks  []string `toml:"required_checks"`
	TimeoutMinutes  uint64   `toml:"timeout_minutes"`
}
