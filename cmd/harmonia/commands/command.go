// Package commands implements Harmonia's CLI command surface: a registry
// of named commands plus a runner, grounded on GitGrove's
// cli/internal/commands/command.go (Command interface + package-level
// registry + CommandRunner.Run), generalized with a context.Context, a
// shared Runtime (workspace + adapters) in place of GitGrove's bare
// map[string]any args, and exit-code-aware error reporting per the
// error taxonomy (model.OperationReport.ExitCode, herrors).
package commands

import (
	"context"
	"fmt"
	"sort"

	"github.com/jpetrucciani/harmonia/internal/clisupport/arg"
	"github.com/jpetrucciani/harmonia/internal/ecosystem"
	"github.com/jpetrucciani/harmonia/internal/forge"
	"github.com/jpetrucciani/harmonia/internal/herrors"
	"github.com/jpetrucciani/harmonia/internal/model"
	"github.com/jpetrucciani/harmonia/internal/vcs"
)

// Runtime bundles the resolved workspace and adapters every command needs,
// the equivalent of the rootAbsPath string GitGrove's handlers take, widened
// to carry the whole resolved config plus pluggable adapters.
type Runtime struct {
	Workspace *model.Workspace
	VCS       vcs.VCS
	Forge     forge.Forge
	Manifests *ecosystem.Registry
}

// Command is one CLI verb. Validation is split from execution so the
// runner can report usage errors (exit code 2) distinctly from execution
// failures (exit code 1), per §7.
type Command interface {
	Name() string
	Description() string
	ValidateArgs(p arg.Parsed) error
	Execute(ctx context.Context, rt *Runtime, p arg.Parsed) error
}

var registry = make(map[string]Command)

// Register adds a command to the global registry. Called from each
// command's init().
func Register(cmd Command) {
	registry[cmd.Name()] = cmd
}

// Get resolves a command by name.
func Get(name string) (Command, bool) {
	cmd, ok := registry[name]
	return cmd, ok
}

// List returns every registered command name, sorted.
func List() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Runner validates then executes a command, mirroring GitGrove's
// CommandRunner but returning the error instead of printing and swallowing
// it, so main can translate it into the right exit code.
type Runner struct{}

// usageError marks a ValidateArgs failure so main exits with the usage code.
type usageError struct{ err error }

func (e *usageError) Error() string { return fmt.Sprintf("invalid arguments: %s", e.err) }
func (e *usageError) Unwrap() error { return e.err }
func (e *usageError) ExitCode() int { return int(herrors.ExitUsage) }

func (Runner) Run(ctx context.Context, cmd Command, rt *Runtime, p arg.Parsed) error {
	if err := cmd.ValidateArgs(p); err != nil {
		return &usageError{err: err}
	}
	return cmd.Execute(ctx, rt, p)
}
