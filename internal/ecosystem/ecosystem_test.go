package ecosystem_test

import (
	"strings"
	"testing"

	"github.com/jpetrucciani/harmonia/internal/ecosystem"
	"github.com/jpetrucciani/harmonia/internal/model"
	"github.com/jpetrucciani/harmonia/internal/version"
)

func TestGoAdapterParsesAndUpdatesRequireBlock(t *testing.T) {
	content := `module example.com/svc

go 1.22

require (
	example.com/core v1.2.3
)
`
	a := ecosystem.GoAdapter{}
	deps, err := a.ReadDependencies(model.ManifestConfig{}, content)
	if err != nil {
		t.Fatalf("read deps: %v", err)
	}
	found := false
	for _, d := range deps {
		if d.Name == "example.com/core" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected example.com/core in %+v", deps)
	}

	updated, err := a.WriteDependency(model.ManifestConfig{}, content, "example.com/core", "v1.3.0")
	if err != nil {
		t.Fatalf("write dep: %v", err)
	}
	if !strings.Contains(updated, "example.com/core v1.3.0") {
		t.Fatalf("update missing, got:\n%s", updated)
	}
	if !strings.Contains(updated, "module example.com/svc") {
		t.Fatalf("surrounding content lost, got:\n%s", updated)
	}
}

func TestGoAdapterVersionIsAlwaysRaw(t *testing.T) {
	a := ecosystem.GoAdapter{}
	v, ok, err := a.ReadVersion(model.ManifestConfig{}, "module x\n")
	if err != nil {
		t.Fatalf("read version: %v", err)
	}
	if ok {
		t.Fatalf("expected ok=false for go.mod version read")
	}
	if v.Kind != version.Raw {
		t.Fatalf("expected Raw kind, got %v", v.Kind)
	}
}

func TestRustAdapterReadsAndWritesVersionPreservingFormatting(t *testing.T) {
	content := "[package]\nname = \"svc\"\nversion = \"1.0.0\"\nedition = \"2021\"\n\n[dependencies]\ncore = \"1.2.0\"\nserde = { version = \"1.0\", features = [\"derive\"] }\n"
	a := ecosystem.RustAdapter{}

	v, ok, err := a.ReadVersion(model.ManifestConfig{}, content)
	if err != nil || !ok {
		t.Fatalf("read version: ok=%v err=%v", ok, err)
	}
	if v.Raw != "1.0.0" {
		t.Fatalf("got %q, want 1.0.0", v.Raw)
	}

	updated, err := a.WriteVersion(model.ManifestConfig{}, content, version.ParseVersion("1.1.0", version.Semver))
	if err != nil {
		t.Fatalf("write version: %v", err)
	}
	if !strings.Contains(updated, "version = \"1.1.0\"") {
		t.Fatalf("version not updated, got:\n%s", updated)
	}
	if !strings.Contains(updated, "edition = \"2021\"") {
		t.Fatalf("surrounding content lost, got:\n%s", updated)
	}

	deps, err := a.ReadDependencies(model.ManifestConfig{}, content)
	if err != nil {
		t.Fatalf("read deps: %v", err)
	}
	names := map[string]string{}
	for _, d := range deps {
		names[d.Name] = d.Constraint.Raw
	}
	if names["core"] != "1.2.0" {
		t.Fatalf("got %q for core", names["core"])
	}
	if names["serde"] != "1.0" {
		t.Fatalf("got %q for serde (table form)", names["serde"])
	}

	updatedDep, err := a.WriteDependency(model.ManifestConfig{}, content, "serde", "1.1")
	if err != nil {
		t.Fatalf("write dep: %v", err)
	}
	if !strings.Contains(updatedDep, "version = \"1.1\"") {
		t.Fatalf("table-form dep not updated, got:\n%s", updatedDep)
	}
}

func TestPythonAdapterReadsProjectVersionAndDependencies(t *testing.T) {
	content := `[project]
name = "svc"
version = "1.0.0"
dependencies = [
  "core>=1.2,<2",
  "httpx[socks]>=0.25; python_version >= '3.11'",
]
`
	a := ecosystem.PythonAdapter{}
	v, ok, err := a.ReadVersion(model.ManifestConfig{}, content)
	if err != nil || !ok || v.Raw != "1.0.0" {
		t.Fatalf("got v=%q ok=%v err=%v", v.Raw, ok, err)
	}

	deps, err := a.ReadDependencies(model.ManifestConfig{}, content)
	if err != nil {
		t.Fatalf("read deps: %v", err)
	}
	if len(deps) != 2 {
		t.Fatalf("got %d deps, want 2: %+v", len(deps), deps)
	}
	if deps[0].Name != "core" || deps[0].Constraint.Raw != ">=1.2,<2" {
		t.Fatalf("unexpected core dep: %+v", deps[0])
	}
	if deps[1].Name != "httpx" {
		t.Fatalf("unexpected httpx dep: %+v", deps[1])
	}

	updated, err := a.WriteDependency(model.ManifestConfig{}, content, "core", ">=1.3,<2")
	if err != nil {
		t.Fatalf("write dep: %v", err)
	}
	if !strings.Contains(updated, "core >=1.3,<2") {
		t.Fatalf("dep not rewritten, got:\n%s", updated)
	}
}

func TestNodeAdapterReadsAndWritesDependencies(t *testing.T) {
	content := `{
  "name": "svc",
  "version": "1.0.0",
  "dependencies": {
    "left-pad": "^1.0.0"
  },
  "devDependencies": {
    "jest": "^29.0.0"
  }
}
`
	a := ecosystem.NodeAdapter{}
	v, ok, err := a.ReadVersion(model.ManifestConfig{}, content)
	if err != nil || !ok || v.Raw != "1.0.0" {
		t.Fatalf("got v=%q ok=%v err=%v", v.Raw, ok, err)
	}

	deps, err := a.ReadDependencies(model.ManifestConfig{}, content)
	if err != nil {
		t.Fatalf("read deps: %v", err)
	}
	names := map[string]string{}
	for _, d := range deps {
		names[d.Name] = d.Constraint.Raw
	}
	if names["left-pad"] != "^1.0.0" || names["jest"] != "^29.0.0" {
		t.Fatalf("unexpected deps: %+v", names)
	}

	updated, err := a.WriteDependency(model.ManifestConfig{}, content, "left-pad", "^1.1.0")
	if err != nil {
		t.Fatalf("write dep: %v", err)
	}
	if !strings.Contains(updated, `"left-pad": "^1.1.0"`) {
		t.Fatalf("dep not rewritten, got:\n%s", updated)
	}
	if !strings.Contains(updated, `"jest": "^29.0.0"`) {
		t.Fatalf("unrelated dep clobbered, got:\n%s", updated)
	}
}

func TestCustomAdapterWithoutSpecIsNoOp(t *testing.T) {
	a := ecosystem.CustomAdapter{}
	v, ok, err := a.ReadVersion(model.ManifestConfig{}, "anything")
	if err != nil || ok {
		t.Fatalf("expected ok=false for unset custom spec")
	}
	if v.Kind != version.Raw {
		t.Fatalf("expected Raw kind")
	}
}

func TestCustomAdapterWithSpecParsesVersion(t *testing.T) {
	cfg := model.ManifestConfig{
		CustomSpec: &model.CustomEcosystemSpec{
			VersionPattern: `VERSION\s*=\s*"([^"]+)"`,
		},
	}
	a := ecosystem.CustomAdapter{}
	content := `VERSION = "9.9.9"`
	v, ok, err := a.ReadVersion(cfg, content)
	if err != nil || !ok || v.Raw != "9.9.9" {
		t.Fatalf("got v=%q ok=%v err=%v", v.Raw, ok, err)
	}
}

func TestRegistryFallsBackToCustomForUnknownEcosystem(t *testing.T) {
	r := ecosystem.NewRegistry()
	a := r.For(model.Ecosystem("unknown"))
	if _, ok := a.(*ecosystem.CustomAdapter); !ok {
		t.Fatalf("expected CustomAdapter fallback, got %T", a)
	}
}
