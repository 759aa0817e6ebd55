package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jpetrucciani/harmonia/internal/ecosystem"
	"github.com/jpetrucciani/harmonia/internal/graph"
	"github.com/jpetrucciani/harmonia/internal/model"
	"github.com/jpetrucciani/harmonia/internal/version"
)

func writePyproject(path, ver string, deps []string) {
	os.MkdirAll(path, 0o755)
	content := fmt.Sprintf("[project]\nname = \"x\"\nversion = \"%s\"\ndependencies = [\n", ver)
	for _, d := range deps {
		content += fmt.Sprintf("  \"%s\",\n", d)
	}
	content += "]\n"
	os.WriteFile(filepath.Join(path, "pyproject.toml"), []byte(content), 0o644)
}

func main() {
	root, _ := os.MkdirTemp("", "x")
	paths := map[string]string{
		"core": filepath.Join(root, "core"),
		"lib":  filepath.Join(root, "lib"),
	}
	writePyproject(paths["core"], "1.2.0", nil)
	writePyproject(paths["lib"], "1.0.0", []string{"core ==1.2.0"})

	repos := map[model.RepoId]model.Repo{
		"core": {ID: "core", Path: paths["core"], PackageName: "core", Ecosystem: model.EcosystemPython},
		"lib":  {ID: "lib", Path: paths["lib"], PackageName: "lib", Ecosystem: model.EcosystemPython},
	}
	g, err := graph.Build(repos, ecosystem.NewRegistry())
	if err != nil {
		panic(err)
	}
	fmt.Printf("edges: %+v\n", g.Edges)
	report := graph.CheckConstraints(g, repos, map[model.RepoId]version.Version{
		"core": version.ParseVersion("1.2.0", version.Semver),
		"lib":  version.ParseVersion("1.0.0", version.Semver),
	})
	fmt.Printf("violations: %+v\n", report.Violations)
}
