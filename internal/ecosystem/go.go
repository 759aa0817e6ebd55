package ecosystem

import (
	"fmt"
	"strings"

	"github.com/jpetrucciani/harmonia/internal/model"
	"github.com/jpetrucciani/harmonia/internal/version"
)

// GoAdapter handles go.mod. Grounded on original_source's GoPlugin, which
// walks require lines by hand rather than pulling in a go.mod parser.
type GoAdapter struct{}

func (GoAdapter) ID() model.Ecosystem { return model.EcosystemGo }

// ReadVersion always reports ok=false: go.mod carries no version field, so
// Go repos are versioned as Raw("") per the ambiguity policy (§4.B).
func (GoAdapter) ReadVersion(model.ManifestConfig, string) (version.Version, bool, error) {
	return version.RawVersion(), false, nil
}

// WriteVersion is a no-op for go.mod, mirroring GoPlugin::update_version.
func (GoAdapter) WriteVersion(_ model.ManifestConfig, content string, _ version.Version) (string, error) {
	return content, nil
}

func (GoAdapter) ReadDependencies(_ model.ManifestConfig, content string) ([]Dependency, error) {
	var deps []Dependency
	inBlock := false
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "require ("):
			inBlock = true
		case inBlock && strings.HasPrefix(trimmed, ")"):
			inBlock = false
		case strings.HasPrefix(trimmed, "require "):
			if name, ver, ok := parseRequireLine(strings.TrimSpace(strings.TrimPrefix(trimmed, "require"))); ok {
				deps = append(deps, Dependency{Name: name, Constraint: version.ParseConstraint(ver)})
			}
		case inBlock:
			if name, ver, ok := parseRequireLine(trimmed); ok {
				deps = append(deps, Dependency{Name: name, Constraint: version.ParseConstraint(ver)})
			}
		}
	}
	return deps, nil
}

func parseRequireLine(line string) (name, ver string, ok bool) {
	if line == "" || strings.HasPrefix(line, "//") {
		return "", "", false
	}
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return "", "", false
	}
	return fields[0], fields[1], true
}

func (GoAdapter) WriteDependency(_ model.ManifestConfig, content string, depName string, newConstraint string) (string, error) {
	lines := strings.Split(content, "\n")
	inBlock := false
	found := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "require ("):
			inBlock = true
		case inBlock && strings.HasPrefix(trimmed, ")"):
			inBlock = false
		case strings.HasPrefix(trimmed, "require "):
			if name, _, ok := parseRequireLine(strings.TrimSpace(strings.TrimPrefix(trimmed, "require"))); ok && name == depName {
				lines[i] = fmt.Sprintf("require %s %s", depName, newConstraint)
				found = true
			}
		case inBlock:
			if name, _, ok := parseRequireLine(trimmed); ok && name == depName {
				indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
				suffix := ""
				if idx := strings.Index(trimmed, "//"); idx >= 0 {
					suffix = " " + strings.TrimSpace(trimmed[idx:])
				}
				lines[i] = fmt.Sprintf("%s%s %s%s", indent, depName, newConstraint, suffix)
				found = true
			}
		}
	}
	if !found {
		return content, &ErrDependencyNotFound{Name: depName}
	}
	return strings.Join(lines, "\n"), nil
}
