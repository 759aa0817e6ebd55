// Package ecosystem implements Harmonia's Ecosystem Manifest Adapters
// (component B): reading and writing the version field and internal
// dependency entries of a repo's manifest files, one adapter per ecosystem.
//
// Write operations preserve surrounding file formatting byte-for-byte
// outside the changed span — adapters edit text in place (line or span
// splicing) rather than re-serializing a parsed structure, the same way
// original_source/src/ecosystem/go.rs edits go.mod by rewriting only the
// matching require line.
package ecosystem

import (
	"fmt"
	"regexp"

	"github.com/jpetrucciani/harmonia/internal/model"
	"github.com/jpetrucciani/harmonia/internal/version"
)

// replaceFirstGroup finds re's first match in content and splices
// replacement in place of capture group 1, leaving every other byte of
// content untouched. This is the mechanism every adapter uses to satisfy
// the byte-for-byte formatting guarantee on write: we never reparse and
// re-render a manifest, only substitute the matched span.
func replaceFirstGroup(content string, re *regexp.Regexp, replacement string) (string, bool) {
	loc := re.FindStringSubmatchIndex(content)
	if loc == nil || len(loc) < 4 || loc[2] < 0 {
		return content, false
	}
	start, end := loc[2], loc[3]
	return content[:start] + replacement + content[end:], true
}

// Dependency is one parsed manifest dependency entry, before internal/
// external classification (that happens in the graph builder, which has
// access to the whole workspace's package_name map).
type Dependency struct {
	Name       string
	Constraint version.Constraint
}

// Adapter is implemented once per ecosystem tag.
type Adapter interface {
	ID() model.Ecosystem

	// ReadVersion extracts the version from content. Per the ambiguity
	// policy, an adapter that finds no matching version field returns
	// version.RawVersion() and ok=false rather than an error.
	ReadVersion(cfg model.ManifestConfig, content string) (v version.Version, ok bool, err error)

	// WriteVersion returns content with the version field replaced by
	// newVersion.Raw, preserving all other bytes untouched.
	WriteVersion(cfg model.ManifestConfig, content string, newVersion version.Version) (string, error)

	// ReadDependencies extracts name+raw-constraint pairs. A missing
	// dependency file is not an error — the graph builder skips the call
	// entirely in that case (§4.B ambiguity policy).
	ReadDependencies(cfg model.ManifestConfig, content string) ([]Dependency, error)

	// WriteDependency rewrites a single dependency's constraint in place.
	WriteDependency(cfg model.ManifestConfig, content string, depName string, newConstraint string) (string, error)
}

// ErrDependencyNotFound is returned by WriteDependency when depName isn't
// present in content.
type ErrDependencyNotFound struct {
	Name string
}

func (e *ErrDependencyNotFound) Error() string {
	return fmt.Sprintf("ecosystem: dependency %q not found in manifest", e.Name)
}

// Registry resolves an Adapter by ecosystem tag.
type Registry struct {
	adapters map[model.Ecosystem]Adapter
}

// NewRegistry builds the standard registry with all built-in adapters.
func NewRegistry() *Registry {
	r := &Registry{adapters: make(map[model.Ecosystem]Adapter)}
	r.Register(&PythonAdapter{})
	r.Register(&RustAdapter{})
	r.Register(&NodeAdapter{})
	r.Register(&GoAdapter{})
	r.Register(&CustomAdapter{})
	return r
}

// Register adds or replaces the adapter for its ID.
func (r *Registry) Register(a Adapter) {
	r.adapters[a.ID()] = a
}

// For resolves the adapter for a tag, falling back to CustomAdapter for any
// unknown tag (the registry is never required to hard-fail on an unknown
// ecosystem; the custom adapter simply does nothing without a CustomSpec).
func (r *Registry) For(tag model.Ecosystem) Adapter {
	if a, ok := r.adapters[tag]; ok {
		return a
	}
	return &CustomAdapter{}
}
