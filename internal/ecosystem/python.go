package ecosystem

import (
	"regexp"
	"strings"

	"github.com/jpetrucciani/harmonia/internal/model"
	"github.com/jpetrucciani/harmonia/internal/version"
)

// PythonAdapter handles pyproject.toml's [project] table. Grounded on
// original_source's PythonPlugin (PEP 508 requirement splitting), adapted
// from full toml re-serialization to span splicing (§4.B formatting
// guarantee). Falls back to ManifestConfig.VersionPattern when the
// [project] table itself is absent, per the custom-regex-fallback
// requirement in §4.B.
type PythonAdapter struct{}

func (PythonAdapter) ID() model.Ecosystem { return model.EcosystemPython }

var pythonProjectVersionRe = regexp.MustCompile(`(?m)^\[project\]\s*$[\s\S]*?^version\s*=\s*"([^"]*)"`)

func (PythonAdapter) ReadVersion(cfg model.ManifestConfig, content string) (version.Version, bool, error) {
	if m := pythonProjectVersionRe.FindStringSubmatch(content); m != nil {
		return version.ParseVersion(m[1], version.Semver), true, nil
	}
	if cfg.VersionPattern != "" {
		if re, err := regexp.Compile(cfg.VersionPattern); err == nil {
			if m := re.FindStringSubmatch(content); m != nil && len(m) > 1 {
				return version.ParseVersion(m[1], version.Semver), true, nil
			}
		}
	}
	return version.RawVersion(), false, nil
}

func (PythonAdapter) WriteVersion(_ model.ManifestConfig, content string, newVersion version.Version) (string, error) {
	out, ok := replaceFirstGroup(content, pythonProjectVersionRe, newVersion.Raw)
	if !ok {
		return content, nil
	}
	return out, nil
}

var pep508NameRe = regexp.MustCompile(`^\s*([A-Za-z0-9_.\-]+(?:\[[^\]]*\])?)\s*([^;]*)\s*(?:;(.*))?$`)

// splitPep508 parses a bare PEP 508 requirement string (no quotes) into its
// distribution name and version constraint, mirroring PythonPlugin's
// parse_pep508 helper.
func splitPep508(req string) (name, constraint string) {
	m := pep508NameRe.FindStringSubmatch(req)
	if m == nil {
		return strings.TrimSpace(req), ""
	}
	name = strings.TrimSpace(m[1])
	if idx := strings.Index(name, "["); idx >= 0 {
		name = name[:idx]
	}
	return name, strings.TrimSpace(m[2])
}

func (PythonAdapter) ReadDependencies(_ model.ManifestConfig, content string) ([]Dependency, error) {
	start, end, ok := tomlArraySpan(content, "dependencies")
	if !ok {
		return nil, nil
	}
	var deps []Dependency
	for _, line := range strings.Split(content[start:end], "\n") {
		req, ok := extractQuotedEntry(line)
		if !ok {
			continue
		}
		name, constraint := splitPep508(req)
		deps = append(deps, Dependency{Name: name, Constraint: version.ParseConstraint(constraint)})
	}
	return deps, nil
}

func (PythonAdapter) WriteDependency(_ model.ManifestConfig, content string, depName string, newConstraint string) (string, error) {
	start, end, ok := tomlArraySpan(content, "dependencies")
	if !ok {
		return content, &ErrDependencyNotFound{Name: depName}
	}
	lines := strings.Split(content[start:end], "\n")
	found := false
	for i, line := range lines {
		req, ok := extractQuotedEntry(line)
		if !ok {
			continue
		}
		name, _ := splitPep508(req)
		if name != depName {
			continue
		}
		newReq := depName + " " + newConstraint
		lines[i] = strings.Replace(line, req, newReq, 1)
		found = true
		break
	}
	if !found {
		return content, &ErrDependencyNotFound{Name: depName}
	}
	return content[:start] + strings.Join(lines, "\n") + content[end:], nil
}

var quotedEntryRe = regexp.MustCompile(`"((?:[^"\\]|\\.)*)"`)

func extractQuotedEntry(line string) (string, bool) {
	m := quotedEntryRe.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}

var tomlArrayHeaderRe = regexp.MustCompile(`(?m)^\s*([A-Za-z0-9_.\-]+)\s*=\s*\[`)

// tomlArraySpan locates a `key = [ ... ]` array's inner body span by
// bracket counting, so multi-line arrays of arbitrary nesting are handled
// without a full TOML parser.
func tomlArraySpan(content, key string) (start, end int, ok bool) {
	for _, loc := range tomlArrayHeaderRe.FindAllStringSubmatchIndex(content, -1) {
		if content[loc[2]:loc[3]] != key {
			continue
		}
		depth := 1
		i := loc[1]
		bodyStart := i
		for i < len(content) && depth > 0 {
			switch content[i] {
			case '[':
				depth++
			case ']':
				depth--
				if depth == 0 {
					return bodyStart, i, true
				}
			}
			i++
		}
	}
	return 0, 0, false
}
