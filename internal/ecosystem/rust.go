package ecosystem

import (
	"regexp"
	"strings"

	"github.com/jpetrucciani/harmonia/internal/model"
	"github.com/jpetrucciani/harmonia/internal/version"
)

// RustAdapter handles Cargo.toml. Grounded on original_source's RustPlugin,
// adapted from full toml re-serialization to in-place span splicing so
// write operations satisfy the byte-for-byte formatting guarantee (§4.B).
type RustAdapter struct{}

func (RustAdapter) ID() model.Ecosystem { return model.EcosystemRust }

var (
	rustPackageVersionRe = regexp.MustCompile(`(?m)^\[package\]\s*$[\s\S]*?^version\s*=\s*"([^"]*)"`)
	rustDepSections      = []string{"dependencies", "dev-dependencies", "build-dependencies"}
)

func (RustAdapter) ReadVersion(_ model.ManifestConfig, content string) (version.Version, bool, error) {
	m := rustPackageVersionRe.FindStringSubmatch(content)
	if m == nil {
		return version.RawVersion(), false, nil
	}
	return version.ParseVersion(m[1], version.Semver), true, nil
}

func (RustAdapter) WriteVersion(_ model.ManifestConfig, content string, newVersion version.Version) (string, error) {
	out, ok := replaceFirstGroup(content, rustPackageVersionRe, newVersion.Raw)
	if !ok {
		return content, nil
	}
	return out, nil
}

// depLineRe matches a simple `name = "req"` or table-form
// `name = { version = "req", ... }` dependency line within a section.
var depLineRe = regexp.MustCompile(`^([A-Za-z0-9_.\-]+)\s*=\s*(?:"([^"]*)"|\{[^}]*\bversion\s*=\s*"([^"]*)"[^}]*\})`)

func (RustAdapter) ReadDependencies(_ model.ManifestConfig, content string) ([]Dependency, error) {
	var deps []Dependency
	for _, section := range rustDepSections {
		body, ok := extractTomlTable(content, section)
		if !ok {
			continue
		}
		for _, line := range strings.Split(body, "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(trimmed, "#") {
				continue
			}
			m := depLineRe.FindStringSubmatch(trimmed)
			if m == nil {
				continue
			}
			req := m[2]
			if req == "" {
				req = m[3]
			}
			deps = append(deps, Dependency{Name: m[1], Constraint: version.ParseConstraint(req)})
		}
	}
	return deps, nil
}

func (RustAdapter) WriteDependency(_ model.ManifestConfig, content string, depName string, newConstraint string) (string, error) {
	for _, section := range rustDepSections {
		start, end, ok := tomlTableSpan(content, section)
		if !ok {
			continue
		}
		body := content[start:end]
		lines := strings.Split(body, "\n")
		found := false
		for i, line := range lines {
			trimmed := strings.TrimSpace(line)
			m := depLineRe.FindStringSubmatchIndex(trimmed)
			if m == nil {
				continue
			}
			name := trimmed[m[2]:m[3]]
			if name != depName {
				continue
			}
			switch {
			case m[4] >= 0: // simple string form
				lines[i] = strings.Replace(line, trimmed[m[4]:m[5]], newConstraint, 1)
			case m[6] >= 0: // table form
				lines[i] = strings.Replace(line, trimmed[m[6]:m[7]], newConstraint, 1)
			}
			found = true
			break
		}
		if found {
			return content[:start] + strings.Join(lines, "\n") + content[end:], nil
		}
	}
	return content, &ErrDependencyNotFound{Name: depName}
}

// extractTomlTable returns the body text of a top-level [section] table,
// i.e. everything between its header line and the next top-level [header]
// or end of file. This is a line-oriented approximation of TOML table
// scoping sufficient for the flat dependency tables these manifests use.
func extractTomlTable(content, section string) (string, bool) {
	start, end, ok := tomlTableSpan(content, section)
	if !ok {
		return "", false
	}
	return content[start:end], true
}

var tomlHeaderRe = regexp.MustCompile(`(?m)^\[([A-Za-z0-9_.\-]+)\]\s*$`)

func tomlTableSpan(content, section string) (start, end int, ok bool) {
	locs := tomlHeaderRe.FindAllStringSubmatchIndex(content, -1)
	for i, loc := range locs {
		name := content[loc[2]:loc[3]]
		if name != section {
			continue
		}
		bodyStart := loc[1]
		if bodyStart < len(content) && content[bodyStart] == '\n' {
			bodyStart++
		}
		bodyEnd := len(content)
		if i+1 < len(locs) {
			bodyEnd = locs[i+1][0]
		}
		return bodyStart, bodyEnd, true
	}
	return 0, 0, false
}
