package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jpetrucciani/harmonia/internal/config"
	"github.com/jpetrucciani/harmonia/internal/herrors"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

const sampleWorkspaceConfig = `
[workspace]
name = "acme"
repos_dir = "repos"

[defaults]
clone_protocol = "https"

[mr]
link_strategy = "related"

[repos.api]
url = "git@example.com:acme/api.git"
default_branch = "main"
package_name = "acme-api"

[repos.web]
url = "git@example.com:acme/web.git"
depends_on = ["api"]

[groups]
default = "core"
core = ["api", "web"]
`

func TestDiscoverFindsNestedHarmoniaDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".harmonia", "config.toml"), sampleWorkspaceConfig)

	nested := filepath.Join(root, "repos", "api", "src")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir nested: %v", err)
	}

	foundRoot, foundPath, err := config.Discover(nested)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if foundRoot != root {
		t.Fatalf("expected root %s, got %s", root, foundRoot)
	}
	wantPath := filepath.Join(root, ".harmonia", "config.toml")
	if foundPath != wantPath {
		t.Fatalf("expected path %s, got %s", wantPath, foundPath)
	}
}

func TestDiscoverFallsBackToFlatHarmoniaToml(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".harmonia.toml"), sampleWorkspaceConfig)

	_, foundPath, err := config.Discover(root)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	wantPath := filepath.Join(root, ".harmonia.toml")
	if foundPath != wantPath {
		t.Fatalf("expected path %s, got %s", wantPath, foundPath)
	}
}

func TestDiscoverIgnoresUnrelatedTomlFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".harmonia.toml"), "[not_a_workspace]\nfoo = 1\n")

	if _, _, err := config.Discover(root); err == nil {
		t.Fatalf("expected Discover to fail on a non-workspace .harmonia.toml")
	}
}

func TestLoadResolvesRepoAndGroups(t *testing.T) {
	root := t.TempDir()
	configPath := filepath.Join(root, ".harmonia", "config.toml")
	writeFile(t, configPath, sampleWorkspaceConfig)

	ws, err := config.Load(root, configPath, config.Overrides{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if ws.Name != "acme" {
		t.Fatalf("expected workspace name acme, got %s", ws.Name)
	}
	if len(ws.Repos) != 2 {
		t.Fatalf("expected 2 repos, got %d", len(ws.Repos))
	}
	api, ok := ws.Repos["api"]
	if !ok {
		t.Fatalf("expected repo 'api' to be resolved")
	}
	if api.EffectivePackageName() != "acme-api" {
		t.Fatalf("expected package name acme-api, got %s", api.EffectivePackageName())
	}
	if ws.DefaultGroup != "core" {
		t.Fatalf("expected default group 'core', got %s", ws.DefaultGroup)
	}
	if len(ws.Groups["core"]) != 2 {
		t.Fatalf("expected group 'core' to have 2 members, got %d", len(ws.Groups["core"]))
	}
}

func TestLoadRejectsExternalAndIgnoredConflict(t *testing.T) {
	root := t.TempDir()
	configPath := filepath.Join(root, ".harmonia", "config.toml")
	writeFile(t, configPath, `
[workspace]
name = "acme"

[repos.api]
url = "git@example.com:acme/api.git"
external = true
ignored = true
`)

	_, err := config.Load(root, configPath, config.Overrides{})
	if err == nil {
		t.Fatalf("expected a validation error")
	}
	if _, ok := err.(*herrors.ConfigError); !ok {
		t.Fatalf("expected *herrors.ConfigError, got %T: %v", err, err)
	}
}

func TestLoadRejectsUnknownGroupMember(t *testing.T) {
	root := t.TempDir()
	configPath := filepath.Join(root, ".harmonia", "config.toml")
	writeFile(t, configPath, `
[workspace]
name = "acme"

[repos.api]
url = "git@example.com:acme/api.git"

[groups]
core = ["api", "ghost"]
`)

	_, err := config.Load(root, configPath, config.Overrides{})
	if err == nil {
		t.Fatalf("expected a validation error")
	}
	if _, ok := err.(*herrors.UnknownRepo); !ok {
		t.Fatalf("expected *herrors.UnknownRepo, got %T: %v", err, err)
	}
}

func TestLoadRejectsChangesetsEnabledWithoutDir(t *testing.T) {
	root := t.TempDir()
	configPath := filepath.Join(root, ".harmonia", "config.toml")
	writeFile(t, configPath, `
[workspace]
name = "acme"

[changesets]
enabled = true
`)

	_, err := config.Load(root, configPath, config.Overrides{})
	if err == nil {
		t.Fatalf("expected a validation error")
	}
	if _, ok := err.(*herrors.ConfigError); !ok {
		t.Fatalf("expected *herrors.ConfigError, got %T: %v", err, err)
	}
}

func TestEnvOverridesReadsParallel(t *testing.T) {
	t.Setenv("HARMONIA_PARALLEL", "4")
	t.Setenv("HARMONIA_CLONE_PROTOCOL", "https")

	o := config.EnvOverrides()
	if o.Parallel != 4 {
		t.Fatalf("expected parallel 4, got %d", o.Parallel)
	}
	if o.CloneProtocol != "https" {
		t.Fatalf("expected clone protocol https, got %s", o.CloneProtocol)
	}
}
