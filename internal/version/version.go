// Package version implements Harmonia's Version & Constraint Algebra
// (component A): parsing/rendering/comparing versions across semver, calver,
// and raw strategies, parsing constraints, testing satisfaction, and
// computing bumps.
//
// The semver handling is a thin wrapper around
// github.com/Masterminds/semver/v3, following the same shape as
// bayleafwalker-bindery-core's internal/semver package.
package version

import (
	"fmt"

	mm "github.com/Masterminds/semver/v3"
)

// Kind tags how a Version's raw string should be interpreted.
type Kind int

const (
	Semver Kind = iota
	Calver
	Raw
)

func (k Kind) String() string {
	switch k {
	case Semver:
		return "semver"
	case Calver:
		return "calver"
	default:
		return "raw"
	}
}

// ParseKind parses a strategy name, defaulting to Raw for unrecognized input.
func ParseKind(s string) Kind {
	switch s {
	case "semver":
		return Semver
	case "calver":
		return Calver
	default:
		return Raw
	}
}

// Version is a parsed version value. Ordering is defined only when both
// sides are semver; otherwise comparisons fail with ErrIncomparable.
type Version struct {
	Raw    string
	Kind   Kind
	semver *mm.Version // nil unless Kind == Semver and Raw parsed cleanly
}

// ParseVersion parses raw under the given strategy. Unlike Bump, parsing
// never fails: an unparseable semver string simply carries a nil semver
// component, matching the "Ambiguity policy" in the ecosystem adapters
// (§4.B) where an unreadable version becomes Raw("").
func ParseVersion(raw string, kind Kind) Version {
	v := Version{Raw: raw, Kind: kind}
	if kind == Semver {
		if parsed, err := mm.NewVersion(raw); err == nil {
			v.semver = parsed
		}
	}
	return v
}

// RawVersion constructs an unversioned Raw("") value, used when a manifest
// declares no matching version field.
func RawVersion() Version { return Version{Kind: Raw} }

// IsSemver reports whether this version parsed successfully as semver.
func (v Version) IsSemver() bool { return v.semver != nil }

// String renders the version's raw form.
func (v Version) String() string { return v.Raw }

// Ordering is the result of comparing two versions.
type Ordering int

const (
	Less Ordering = iota - 1
	Equal
	Greater
)

// ErrIncomparable indicates two versions cannot be ordered because at least
// one side is not semver.
type ErrIncomparable struct {
	A, B string
}

func (e *ErrIncomparable) Error() string {
	return fmt.Sprintf("version: incomparable versions %q and %q", e.A, e.B)
}

// Compare orders a and b. Both sides must be semver or this returns
// ErrIncomparable.
func Compare(a, b Version) (Ordering, error) {
	if !a.IsSemver() || !b.IsSemver() {
		return Equal, &ErrIncomparable{A: a.Raw, B: b.Raw}
	}
	switch a.semver.Compare(b.semver) {
	case -1:
		return Less, nil
	case 1:
		return Greater, nil
	default:
		return Equal, nil
	}
}

// GreaterThan reports whether a > b, per semver ordering. Returns false (not
// an error) for incomparable versions, since callers that only want a
// boolean yes/no (e.g. property tests asserting a bump increased the
// version) shouldn't have to unwrap an error for a case that can't occur
// once both sides are known to be semver.
func GreaterThan(a, b Version) bool {
	ord, err := Compare(a, b)
	return err == nil && ord == Greater
}
