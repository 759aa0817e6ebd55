// Package herrors defines the error taxonomy shared across Harmonia's
// coordination core. Each variant carries enough context to locate the
// offending repo, edge, or hook so the scheduler can aggregate outcomes
// into a structured OperationReport instead of a bare error string.
package herrors

import "fmt"

// ExitCode classifies an error for process exit-code purposes.
type ExitCode int

const (
	ExitSuccess ExitCode = 0
	ExitFailure ExitCode = 1
	ExitUsage   ExitCode = 2
	ExitSignal  ExitCode = 130
)

// ConfigError reports a fatal, precommand configuration problem.
type ConfigError struct {
	Field    string
	Location string
	Reason   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s (%s): %s", e.Field, e.Location, e.Reason)
}

// UnknownRepo reports a reference to a RepoId not present in the workspace.
type UnknownRepo struct {
	Name string
}

func (e *UnknownRepo) Error() string {
	return fmt.Sprintf("unknown repo: %s", e.Name)
}

// UnknownGroup reports a reference to a group name not present in the workspace.
type UnknownGroup struct {
	Name string
}

func (e *UnknownGroup) Error() string {
	return fmt.Sprintf("unknown group: %s", e.Name)
}

// BadInternalPattern reports a repo whose internal_pattern regex failed to compile.
// Non-fatal unless the graph is required for the current command.
type BadInternalPattern struct {
	Repo   string
	Reason string
}

func (e *BadInternalPattern) Error() string {
	return fmt.Sprintf("bad internal_pattern for repo %s: %s", e.Repo, e.Reason)
}

// CyclicDependencies reports one or more elementary cycles discovered while
// attempting to compute a topological order. Fatal for ordering operations,
// reported-but-non-fatal for query operations.
type CyclicDependencies struct {
	Cycles [][]string
}

func (e *CyclicDependencies) Error() string {
	return fmt.Sprintf("cyclic dependencies detected: %d cycle(s)", len(e.Cycles))
}

// ViolationKind classifies a ConstraintViolation.
type ViolationKind string

const (
	Unsatisfied ViolationKind = "unsatisfied"
	ExactPin    ViolationKind = "exact_pin"
	UpperBound  ViolationKind = "upper_bound"
)

// ConstraintViolation reports that a dependent's constraint is not (or would
// not be) satisfied by a candidate or proposed version.
type ConstraintViolation struct {
	From string
	To   string
	Kind ViolationKind
}

func (e *ConstraintViolation) Error() string {
	return fmt.Sprintf("constraint violation: %s -> %s (%s)", e.From, e.To, e.Kind)
}

// UnbumpableVersion reports that a repo's current version cannot be bumped
// under the requested strategy.
type UnbumpableVersion struct {
	Repo   string
	Reason string
}

func (e *UnbumpableVersion) Error() string {
	return fmt.Sprintf("cannot bump version for repo %s: %s", e.Repo, e.Reason)
}

// HookFailed reports that a pre-operation hook exited non-zero.
type HookFailed struct {
	Repo   string
	Hook   string
	Stderr string
}

func (e *HookFailed) Error() string {
	return fmt.Sprintf("hook %q failed for repo %s: %s", e.Hook, e.Repo, e.Stderr)
}

// VcsError reports a failed VCS adapter call.
type VcsError struct {
	Repo   string
	Op     string
	Stderr string
}

func (e *VcsError) Error() string {
	return fmt.Sprintf("vcs operation %q failed for repo %s: %s", e.Op, e.Repo, e.Stderr)
}

// ForgeErrorKind classifies a ForgeError.
type ForgeErrorKind string

const (
	ForgeAuth        ForgeErrorKind = "auth"
	ForgeRateLimited ForgeErrorKind = "rate_limited"
	ForgeNotFound    ForgeErrorKind = "not_found"
	ForgeTransient   ForgeErrorKind = "transient"
	ForgeUnsupported ForgeErrorKind = "unsupported"
)

// ForgeError reports a failure talking to a forge capability implementation.
// Transient errors may be retried with backoff up to 3 attempts by the caller.
type ForgeError struct {
	Kind   ForgeErrorKind
	Reason string
}

func (e *ForgeError) Error() string {
	return fmt.Sprintf("forge error (%s): %s", e.Kind, e.Reason)
}

// Retryable reports whether the caller should retry this ForgeError.
func (e *ForgeError) Retryable() bool {
	return e.Kind == ForgeTransient
}

// CITimeout reports that CI polling exceeded ci.timeout_minutes.
type CITimeout struct {
	Repo string
	MR   string
}

func (e *CITimeout) Error() string {
	return fmt.Sprintf("CI timeout waiting on MR %s for repo %s", e.MR, e.Repo)
}

// Cancelled reports a repo short-circuited by fail-fast or a signal.
type Cancelled struct {
	Repo   string
	Reason string
}

func (e *Cancelled) Error() string {
	return fmt.Sprintf("cancelled: %s (%s)", e.Repo, e.Reason)
}

// IncomparableVersions reports that two versions cannot be ordered because
// at least one is not semver.
type IncomparableVersions struct {
	A, B string
}

func (e *IncomparableVersions) Error() string {
	return fmt.Sprintf("incomparable versions: %q and %q", e.A, e.B)
}
