package ecosystem

import (
	"regexp"

	"github.com/jpetrucciani/harmonia/internal/model"
	"github.com/jpetrucciani/harmonia/internal/version"
)

// NodeAdapter handles package.json. Grounded on original_source's
// NodePlugin, adapted from full serde_json re-serialization (which would
// reflow the whole file) to span splicing for the §4.B formatting
// guarantee.
type NodeAdapter struct{}

func (NodeAdapter) ID() model.Ecosystem { return model.EcosystemNode }

var nodeVersionRe = regexp.MustCompile(`"version"\s*:\s*"([^"]*)"`)

func (NodeAdapter) ReadVersion(_ model.ManifestConfig, content string) (version.Version, bool, error) {
	m := nodeVersionRe.FindStringSubmatch(content)
	if m == nil {
		return version.RawVersion(), false, nil
	}
	return version.ParseVersion(m[1], version.Semver), true, nil
}

func (NodeAdapter) WriteVersion(_ model.ManifestConfig, content string, newVersion version.Version) (string, error) {
	out, ok := replaceFirstGroup(content, nodeVersionRe, newVersion.Raw)
	if !ok {
		return content, nil
	}
	return out, nil
}

var nodeDepSections = []string{"dependencies", "devDependencies", "peerDependencies", "optionalDependencies"}

var nodeEntryRe = regexp.MustCompile(`"([^"]+)"\s*:\s*"([^"]*)"`)

func (NodeAdapter) ReadDependencies(_ model.ManifestConfig, content string) ([]Dependency, error) {
	var deps []Dependency
	for _, section := range nodeDepSections {
		start, end, ok := jsonObjectSpan(content, section)
		if !ok {
			continue
		}
		for _, m := range nodeEntryRe.FindAllStringSubmatch(content[start:end], -1) {
			deps = append(deps, Dependency{Name: m[1], Constraint: version.ParseConstraint(m[2])})
		}
	}
	return deps, nil
}

func (NodeAdapter) WriteDependency(_ model.ManifestConfig, content string, depName string, newConstraint string) (string, error) {
	for _, section := range nodeDepSections {
		start, end, ok := jsonObjectSpan(content, section)
		if !ok {
			continue
		}
		body := content[start:end]
		entryRe := regexp.MustCompile(`"` + regexp.QuoteMeta(depName) + `"\s*:\s*"([^"]*)"`)
		newBody, replaced := replaceFirstGroup(body, entryRe, newConstraint)
		if replaced {
			return content[:start] + newBody + content[end:], nil
		}
	}
	return content, &ErrDependencyNotFound{Name: depName}
}

var jsonObjectHeaderRe = regexp.MustCompile(`"([A-Za-z0-9_.\-]+)"\s*:\s*\{`)

// jsonObjectSpan locates a `"key": { ... }` object's inner body span by
// brace counting, the JSON analogue of tomlArraySpan.
func jsonObjectSpan(content, key string) (start, end int, ok bool) {
	for _, loc := range jsonObjectHeaderRe.FindAllStringSubmatchIndex(content, -1) {
		if content[loc[2]:loc[3]] != key {
			continue
		}
		depth := 1
		i := loc[1]
		bodyStart := i
		for i < len(content) && depth > 0 {
			switch content[i] {
			case '{':
				depth++
			case '}':
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
