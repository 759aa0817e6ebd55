package version

import (
	mm "github.com/Masterminds/semver/v3"
)

// Constraint is a parsed version constraint. Satisfaction is only defined
// when both the constraint and the candidate version are semver; otherwise
// the constraint is "informational" and Satisfies returns Indeterminate.
type Constraint struct {
	Raw        string
	constraint *mm.Constraints // nil if Raw didn't parse as a semver constraint
}

// ParseConstraint parses raw as a semver-style predicate. An unparseable
// raw string still produces a valid Constraint value (with a nil predicate)
// so constraints on non-semver ecosystems don't hard-fail validation — they
// simply surface as Indeterminate in reports. A leading "==" (PEP 440's
// equality) is read as "=", so "==1.2.0" is an exact pin like "=1.2.0".
func ParseConstraint(raw string) Constraint {
	c := Constraint{Raw: raw}
	parseable := trimSpace(raw)
	if hasPrefix(parseable, "==") {
		parseable = parseable[1:]
	}
	if parsed, err := mm.NewConstraint(parseable); err == nil {
		c.constraint = parsed
	}
	return c
}

// IsSemver reports whether this constraint parsed as a semver predicate.
func (c Constraint) IsSemver() bool { return c.constraint != nil }

// Satisfaction is the three-valued result of testing a version against a
// constraint.
type Satisfaction int

const (
	NotSatisfied Satisfaction = iota
	Satisfied
	Indeterminate
)

// Satisfies tests whether v satisfies c. Returns Indeterminate when either
// side isn't semver-parseable.
func Satisfies(v Version, c Constraint) Satisfaction {
	if !v.IsSemver() || !c.IsSemver() {
		return Indeterminate
	}
	if c.constraint.Check(v.semver) {
		return Satisfied
	}
	return NotSatisfied
}

// IsExactPin reports whether c is a single "=X.Y.Z" equality constraint.
func (c Constraint) IsExactPin() bool {
	if !c.IsSemver() {
		return false
	}
	comparators := splitComparators(c.Raw)
	if len(comparators) != 1 {
		return false
	}
	return isExactComparator(comparators[0])
}

// HasUpperBound reports whether c contains an inclusive or exclusive
// upper-bound comparator ("<" or "<=").
func (c Constraint) HasUpperBound() bool {
	if !c.IsSemver() {
		return false
	}
	for _, comp := range splitComparators(c.Raw) {
		trimmed := trimSpace(comp)
		if hasPrefix(trimmed, "<=") || (hasPrefix(trimmed, "<") && !hasPrefix(trimmed, "<=")) {
			return true
		}
	}
	return false
}

// splitComparators splits a raw constraint string on its top-level ","
// separated comparator list, mirroring the way Masterminds/semver joins
// multiple comparators into one Constraints value. We only need a coarse
// split for classification (exact-pin / upper-bound), not full reparsing.
func splitComparators(raw string) []string {
	var out []string
	var cur []byte
	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		if ch == ',' {
			if len(cur) > 0 {
				out = append(out, string(cur))
				cur = nil
			}
			continue
		}
		cur = append(cur, ch)
	}
	if len(cur) > 0 {
		out = append(out, string(cur))
	}
	return out
}

func isExactComparator(s string) bool {
	s = trimSpace(s)
	if hasPrefix(s, "=") {
		s = trimSpace(s[1:])
	}
	// A bare "1.2.3" (no operator) is also an implicit exact match in
	// Masterminds/semver, but only when fully qualified to patch level.
	return countDots(s) == 2 && !containsAny(s, "<>~^*x X")
}

func hasPrefix(s, prefix string) bool {
	if len(s) < len(prefix) {
		return false
	}
	return s[:len(prefix)] == prefix
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && (s[start] == ' ' || s[start] == '\t') {
		start++
	}
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t') {
		end--
	}
	return s[start:end]
}

func countDots(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			n++
		}
	}
	return n
}

func containsAny(s, chars string) bool {
	for i := 0; i < len(s); i++ {
		for j := 0; j < len(chars); j++ {
			if s[i] == chars[j] {
				return true
			}
		}
	}
	return false
}
