package ecosystem

import (
	"regexp"

	"github.com/jpetrucciani/harmonia/internal/model"
	"github.com/jpetrucciani/harmonia/internal/version"
)

// CustomAdapter is driven entirely by a repo's CustomEcosystemSpec regex
// patterns. Without a spec it behaves like original_source's CustomPlugin:
// every operation is a no-op that reports "no version field" / "no
// dependencies".
type CustomAdapter struct{}

func (CustomAdapter) ID() model.Ecosystem { return model.EcosystemCustom }

func (CustomAdapter) ReadVersion(cfg model.ManifestConfig, content string) (version.Version, bool, error) {
	spec := cfg.CustomSpec
	if spec == nil || spec.VersionPattern == "" {
		return version.RawVersion(), false, nil
	}
	re, err := regexp.Compile(spec.VersionPattern)
	if err != nil {
		return version.RawVersion(), false, nil
	}
	m := re.FindStringSubmatch(content)
	if m == nil || len(m) < 2 {
		return version.RawVersion(), false, nil
	}
	return version.ParseVersion(m[1], version.Semver), true, nil
}

func (CustomAdapter) WriteVersion(cfg model.ManifestConfig, content string, newVersion version.Version) (string, error) {
	spec := cfg.CustomSpec
	if spec == nil || spec.VersionPattern == "" {
		return content, nil
	}
	re, err := regexp.Compile(spec.VersionPattern)
	if err != nil {
		return content, nil
	}
	out, _ := replaceFirstGroup(content, re, newVersion.Raw)
	return out, nil
}

func (CustomAdapter) ReadDependencies(cfg model.ManifestConfig, content string) ([]Dependency, error) {
	spec := cfg.CustomSpec
	if spec == nil || spec.DepNamePattern == "" || spec.DepReqPattern == "" {
		return nil, nil
	}
	nameRe, err := regexp.Compile(spec.DepNamePattern)
	if err != nil {
		return nil, nil
	}
	reqRe, err := regexp.Compile(spec.DepReqPattern)
	if err != nil {
		return nil, nil
	}
	names := nameRe.FindAllStringSubmatch(content, -1)
	reqs := reqRe.FindAllStringSubmatch(content, -1)
	var deps []Dependency
	for i := range names {
		if len(names[i]) < 2 {
			continue
		}
		req := ""
		if i < len(reqs) && len(reqs[i]) > 1 {
			req = reqs[i][1]
		}
		deps = append(deps, Dependency{Name: names[i][1], Constraint: version.ParseConstraint(req)})
	}
	return deps, nil
}

// WriteDependency isn't supported for free-form custom manifests: the
// paired name/requirement regexes don't carry enough positional
// information to splice a single entry unambiguously.
func (CustomAdapter) WriteDependency(_ model.ManifestConfig, content string, depName string, _ string) (string, error) {
	return content, &ErrDependencyNotFound{Name: depName}
}
