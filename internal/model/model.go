// Package model holds the shared, ecosystem-neutral data shapes that flow
// between Harmonia's configuration resolver, graph engine, scheduler, and
// operation handlers. These types are deliberately plain value objects: the
// Workspace exclusively owns Repos and the Graph; the Scheduler only ever
// borrows an immutable view for the duration of one command.
package model

import (
	"fmt"
	"sort"
)

// RepoId is the unique workspace-local key for a repo — the name under
// [repos] in the workspace config. It is an identity anchor and is never
// renamed mid-operation.
type RepoId string

func (r RepoId) String() string { return string(r) }

// Ecosystem tags which manifest adapter governs a repo's version and
// dependency declarations.
type Ecosystem string

const (
	EcosystemPython Ecosystem = "python"
	EcosystemRust   Ecosystem = "rust"
	EcosystemNode   Ecosystem = "node"
	EcosystemGo     Ecosystem = "go"
	EcosystemCustom Ecosystem = "custom"
)

// CloneDepthKind tags a CloneDepth variant.
type CloneDepthKind int

const (
	CloneFull CloneDepthKind = iota
	CloneShallow
)

// CloneDepth models "Full | N(u32)" as a tagged variant instead of an
// optional integer, per the Design Notes on dynamic config shapes.
type CloneDepth struct {
	Kind  CloneDepthKind
	Depth uint32
}

func FullClone() CloneDepth { return CloneDepth{Kind: CloneFull} }
func ShallowClone(n uint32) CloneDepth {
	return CloneDepth{Kind: CloneShallow, Depth: n}
}

// CustomEcosystemSpec drives the `custom` ecosystem adapter via user-provided
// regex extraction paths when a repo's tooling isn't one of the built-ins.
type CustomEcosystemSpec struct {
	VersionPattern string
	DepNamePattern string
	DepReqPattern  string
}

// ManifestConfig describes where and how to find the version and dependency
// declarations inside a repo.
type ManifestConfig struct {
	VersionFile    string
	VersionPath    string // dotted table/key path, e.g. "project.version" or "package.version"
	VersionPattern string // optional regex fallback
	BumpMode       string // "semver" | "calver" | "tinyinc"
	CalverFormat   string

	DependencyFile      string
	DependencyPath      string
	InternalPattern     string
	InternalPackages    []string
	CustomSpec          *CustomEcosystemSpec
}

// CIConfig holds a repo's CI policy. `mr merge` reads TimeoutMinutes to
// bound its wait for CI; RequiredChecks is carried from config but not
// consulted there, since the wait looks only at the forge's combined CI state.
type CIConfig struct {
	RequiredChecks []string
	TimeoutMinutes int
}

// HookSet holds one layer's hook command definitions (already split into
// exec-ready argv tokens). A HookSet never mixes workspace and repo
// commands — they run in different working directories, so RepoPolicy
// keeps one HookSet per layer instead of merging them into a single list.
type HookSet struct {
	PreCommit []string
	PrePush   []string
	Custom    map[string][]string
}

// RepoPolicy captures the per-repo resolved policy (after merge with
// workspace defaults). WorkspaceHooks runs at the workspace root,
// RepoHooks in the repo's own CWD; the scheduler composes them per §4.E,
// honoring DisableWorkspaceHooks on a per-hook-name basis.
type RepoPolicy struct {
	WorkspaceHooks          HookSet
	RepoHooks               HookSet
	DisableWorkspaceHooks   []string
	CI                      CIConfig
}

// Repo is the resolved view of one repository inside a Harmonia workspace.
type Repo struct {
	ID             RepoId
	Path           string
	RemoteURL      string
	DefaultBranch  string
	PackageName    string // defaults to string(ID) if unset
	Ecosystem      Ecosystem
	External       bool
	Ignored        bool
	Manifest       ManifestConfig
	DependsOn      []string // workspace-declared internal dependency names (by RepoId or package name)
	Policy         RepoPolicy
	CloneDepth     CloneDepth
}

// EffectivePackageName returns repo.PackageName, defaulting to the RepoId.
func (r Repo) EffectivePackageName() string {
	if r.PackageName != "" {
		return r.PackageName
	}
	return string(r.ID)
}

// LinkStrategy controls how mr create links sibling MRs together.
type LinkStrategy string

const (
	LinkRelated     LinkStrategy = "related"
	LinkDescription LinkStrategy = "description"
	LinkIssue       LinkStrategy = "issue"
	LinkAll         LinkStrategy = "all"
)

// CloneProtocol is validated at config-resolution time.
type CloneProtocol string

const (
	ProtocolSSH   CloneProtocol = "ssh"
	ProtocolHTTPS CloneProtocol = "https"
)

// ForgeConfig configures which forge capability implementation is active.
type ForgeConfig struct {
	Kind  string // "github" | "gitlab" | ""
	Token string
	BaseURL string
}

// MRConfig governs MR lifecycle defaults.
type MRConfig struct {
	LinkStrategy LinkStrategy
	AddTrailers  bool // declared but not implemented, per Open Questions — informational only
	TemplatePath string
	TrackingIssue bool
}

// VersioningConfig holds workspace-wide versioning defaults.
type VersioningConfig struct {
	DefaultBumpMode   string
	DefaultCalverFmt  string
}

// ChangesetsConfig governs whether changesets are persisted to disk.
type ChangesetsConfig struct {
	Enabled bool
	Dir     string
}

// WorkspaceDefaults holds the built-in defaults that the resolver's first
// resolution layer starts from.
type WorkspaceDefaults struct {
	CloneProtocol     CloneProtocol
	Parallel          int
	IncludeUntracked  bool
}

// Workspace is the immutable, resolved view of repos, groups, and policy for
// one Harmonia command invocation.
type Workspace struct {
	Root              string
	Name              string
	Defaults          WorkspaceDefaults
	Forge             ForgeConfig
	MR                MRConfig
	Versioning        VersioningConfig
	Changesets        ChangesetsConfig
	Repos             map[RepoId]Repo
	Groups            map[string][]RepoId
	DefaultGroup      string
}

// RepoIDs returns the workspace's repo IDs in lexicographic order, for
// deterministic iteration.
func (w *Workspace) RepoIDs() []RepoId {
	ids := make([]RepoId, 0, len(w.Repos))
	for id := range w.Repos {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// MustRepo looks up a repo, panicking if absent — callers must have already
// validated membership via the config resolver or selection algebra.
func (w *Workspace) MustRepo(id RepoId) Repo {
	repo, ok := w.Repos[id]
	if !ok {
		panic(fmt.Sprintf("model: repo %q not present in workspace (caller did not validate membership)", id))
	}
	return repo
}

// RepoState classifies the outcome of one repo's participation in an
// operation.
type RepoState string

const (
	StateSkipped   RepoState = "skipped"
	StateSuccess   RepoState = "success"
	StateFailed    RepoState = "failed"
	StateCancelled RepoState = "cancelled"
)

// RepoOutcome is one repo's result within an OperationReport.
type RepoOutcome struct {
	Repo     RepoId
	State    RepoState
	Err      error
	Stdout   string
	Stderr   string
	Duration int64 // nanoseconds, to keep this package free of time-formatting opinions
	Wave     int
}

// OperationReport aggregates the per-repo outcomes of one coordinated
// operation, sorted by RepoId for deterministic output.
type OperationReport struct {
	Operation string
	Outcomes  []RepoOutcome
}

// ExitCode derives the process exit code from the aggregated outcomes:
// 0 iff no failures, 1 if any repo failed.
func (r OperationReport) ExitCode() int {
	for _, o := range r.Outcomes {
		if o.State == StateFailed {
			return 1
		}
	}
	return 0
}

// HasFailures reports whether any repo in the report failed.
func (r OperationReport) HasFailures() bool {
	return r.ExitCode() != 0
}
