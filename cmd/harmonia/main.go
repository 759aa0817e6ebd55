// Command harmonia is the ambient CLI entry point for the coordination
// core, grounded on GitGrove's cli/cmd/main.go: resolve the command name
// from argv, parse the remaining tokens, and hand off to the commands
// package's registry + runner.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jpetrucciani/harmonia/internal/clisupport/arg"
	"github.com/jpetrucciani/harmonia/internal/config"
	"github.com/jpetrucciani/harmonia/internal/ecosystem"
	"github.com/jpetrucciani/harmonia/internal/forge"
	"github.com/jpetrucciani/harmonia/internal/herrors"
	"github.com/jpetrucciani/harmonia/internal/logging"
	"github.com/jpetrucciani/harmonia/internal/vcs"

	"github.com/jpetrucciani/harmonia/cmd/harmonia/commands"
)

func main() {
	logging.Init()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(int(herrors.ExitUsage))
	}

	name := os.Args[1]
	cmd, ok := commands.Get(name)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", name)
		printUsage()
		os.Exit(int(herrors.ExitUsage))
	}

	rt, err := buildRuntime()
	if err != nil {
		fmt.Fprintf(os.Stderr, "harmonia: %s\n", err)
		os.Exit(int(herrors.ExitFailure))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	parsed := arg.Parse(os.Args[2:])
	runner := commands.Runner{}
	err = runner.Run(ctx, cmd, rt, parsed)

	// A SIGINT/SIGTERM that arrived mid-run takes priority over whatever
	// outcome the cancelled run produced, per §5/§6's "cancellation is exit
	// code 130" rule.
	if ctx.Err() != nil {
		fmt.Fprintln(os.Stderr, "harmonia: cancelled")
		os.Exit(int(herrors.ExitSignal))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "harmonia: %s\n", err)
		os.Exit(exitCodeFor(err))
	}
}

// buildRuntime discovers and loads the workspace config from the current
// directory, then wires up the VCS and forge adapters per §4.C/§4.G/§4.H.
func buildRuntime() (*commands.Runtime, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getwd: %w", err)
	}

	root, configPath, err := config.Discover(cwd)
	if err != nil {
		return nil, err
	}

	ws, err := config.Load(root, configPath, config.EnvOverrides())
	if err != nil {
		return nil, err
	}

	return &commands.Runtime{
		Workspace: ws,
		VCS:       vcs.ShellGit{},
		Forge:     forge.ForKind(ws.Forge),
		Manifests: ecosystem.NewRegistry(),
	}, nil
}

// exitCodeFor maps an error into a process exit code: an error that
// implements ExitCode() (a *reportError from a failed OperationReport, or the
// usage error commands.Runner returns when ValidateArgs rejects the
// arguments) reports its own code; everything else is a generic failure.
func exitCodeFor(err error) int {
	if coder, ok := err.(interface{ ExitCode() int }); ok {
		return coder.ExitCode()
	}
	return int(herrors.ExitFailure)
}

func printUsage() {
	fmt.Println("Usage: harmonia <command> [args]")
	fmt.Println("\nAvailable commands:")
	for _, name := range commands.List() {
		cmd, _ := commands.Get(name)
		fmt.Printf("  %-14s %s\n", name, cmd.Description())
	}
}
