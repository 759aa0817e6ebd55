package version

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	mm "github.com/Masterminds/semver/v3"
)

// Mode selects the bump strategy (§4.A).
type Mode int

const (
	ModeSemver Mode = iota
	ModeCalver
	ModeTinyInc
)

// ParseMode parses a bump mode name, defaulting to ModeTinyInc for unknown
// input (the most permissive strategy, since it works on arbitrary strings).
func ParseMode(s string) Mode {
	switch strings.ToLower(s) {
	case "semver":
		return ModeSemver
	case "calver":
		return ModeCalver
	default:
		return ModeTinyInc
	}
}

// Level selects which semver segment a "major"/"minor"/"patch" bump touches.
// Ignored by calver and tinyinc.
type Level int

const (
	LevelPatch Level = iota
	LevelMinor
	LevelMajor
)

// ParseLevel parses a bump level name, defaulting to LevelPatch.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "major":
		return LevelMajor
	case "minor":
		return LevelMinor
	default:
		return LevelPatch
	}
}

// ErrUnbumpable is returned by Bump when the version's raw form cannot be
// bumped under the requested strategy: the strategy is semver and raw isn't
// parseable, or the strategy is tinyinc and raw has no numeric segment.
type ErrUnbumpable struct {
	Raw    string
	Mode   Mode
	Reason string
}

func (e *ErrUnbumpable) Error() string {
	return fmt.Sprintf("version: cannot bump %q under mode %d: %s", e.Raw, e.Mode, e.Reason)
}

// DefaultCalverFormat is used when no workspace/repo calver_format is set.
const DefaultCalverFormat = "YYYY.0M.MICRO"

// Bump computes the next version for current under the given strategy.
//
//   - semver: major zeroes minor/patch; minor zeroes patch; patch adds one.
//     preTag appends "-<tag>" without altering the core numbers;
//     re-bumping a prerelease to the same level without a tag strips the
//     prerelease.
//   - calver: date tokens in calverFormat (YYYY, YY, 0M, MM, 0D, DD, MICRO)
//     are substituted using "today". With a MICRO token, MICRO becomes the
//     previous version's value at that position plus one when the rest of
//     the previous version matches the substituted template, and 1
//     otherwise; without one, the rightmost numeric segment of the
//     substituted template is incremented. Level is ignored.
//   - tinyinc: the rightmost \d+ run in current.Raw is incremented. Works on
//     arbitrary strings. Level is ignored.
func Bump(current Version, mode Mode, level Level, preTag string, calverFormat string, today time.Time) (Version, error) {
	switch mode {
	case ModeSemver:
		return bumpSemver(current, level, preTag)
	case ModeCalver:
		if calverFormat == "" {
			calverFormat = DefaultCalverFormat
		}
		raw, err := bumpCalver(current.Raw, calverFormat, today)
		if err != nil {
			return Version{}, err
		}
		return Version{Raw: raw, Kind: Calver}, nil
	default:
		raw, err := BumpRightmostNumeric(current.Raw)
		if err != nil {
			return Version{}, &ErrUnbumpable{Raw: current.Raw, Mode: mode, Reason: err.Error()}
		}
		return Version{Raw: raw, Kind: current.Kind}, nil
	}
}

func bumpSemver(current Version, level Level, preTag string) (Version, error) {
	sv := current.semver
	if sv == nil {
		parsed, err := mm.NewVersion(current.Raw)
		if err != nil {
			return Version{}, &ErrUnbumpable{Raw: current.Raw, Mode: ModeSemver, Reason: "not a parseable semver version"}
		}
		sv = parsed
	}

	var bumped mm.Version
	switch level {
	case LevelMajor:
		bumped = sv.IncMajor()
	case LevelMinor:
		bumped = sv.IncMinor()
	default:
		// Re-bumping a prerelease to the same level without a new tag
		// strips the prerelease instead of incrementing patch again,
		// matching the original prototype's semver bump semantics.
		if sv.Prerelease() != "" && preTag == "" {
			stripped, err := mm.NewVersion(fmt.Sprintf("%d.%d.%d", sv.Major(), sv.Minor(), sv.Patch()))
			if err != nil {
				return Version{}, &ErrUnbumpable{Raw: current.Raw, Mode: ModeSemver, Reason: err.Error()}
			}
			bumped = *stripped
			return Version{Raw: bumped.String(), Kind: Semver, semver: &bumped}, nil
		}
		bumped = sv.IncPatch()
	}

	if preTag != "" {
		withPre, err := bumped.SetPrerelease(preTag)
		if err != nil {
			return Version{}, &ErrUnbumpable{Raw: current.Raw, Mode: ModeSemver, Reason: fmt.Sprintf("invalid prerelease tag %q", preTag)}
		}
		bumped = withPre
	}

	return Version{Raw: bumped.String(), Kind: Semver, semver: &bumped}, nil
}

var trailingDigitsRe = regexp.MustCompile(`\d+`)

// BumpRightmostNumeric increments the rightmost run of digits in raw,
// preserving zero-padding width. Returns ErrUnbumpable-shaped error text if
// raw has no numeric segment (callers wrap it into *ErrUnbumpable with mode
// context where relevant).
func BumpRightmostNumeric(raw string) (string, error) {
	matches := trailingDigitsRe.FindAllStringIndex(raw, -1)
	if len(matches) == 0 {
		return "", fmt.Errorf("missing numeric segment to bump")
	}
	last := matches[len(matches)-1]
	numberStr := raw[last[0]:last[1]]
	number, err := strconv.ParseUint(numberStr, 10, 64)
	if err != nil {
		return "", fmt.Errorf("missing numeric segment to bump")
	}
	next := number + 1
	var replacement string
	if len(numberStr) > 1 && numberStr[0] == '0' {
		replacement = fmt.Sprintf("%0*d", len(numberStr), next)
	} else {
		replacement = strconv.FormatUint(next, 10)
	}
	return raw[:last[0]] + replacement + raw[last[1]:], nil
}

// bumpCalver substitutes calverFormat's date tokens using today, then
// increments the rightmost numeric run of the substituted template — unless
// the format contains a MICRO token, in which case MICRO's position in the
// *previous* raw value (if it matches the surrounding literal text) is
// incremented, and otherwise starts at 1.
func bumpCalver(currentRaw, calverFormat string, today time.Time) (string, error) {
	template, microIdx := applyCalverFormat(calverFormat, today)
	if microIdx < 0 {
		return BumpRightmostNumeric(template)
	}

	prefix := template[:microIdx]
	suffix := template[microIdx+len(microToken):]

	var oldValue string
	hasOld := false
	if strings.HasPrefix(currentRaw, prefix) && strings.HasSuffix(currentRaw, suffix) &&
		len(currentRaw) >= len(prefix)+len(suffix) {
		middle := currentRaw[len(prefix) : len(currentRaw)-len(suffix)]
		if middle != "" && isAllDigits(middle) {
			oldValue = middle
			hasOld = true
		}
	}

	var next uint64 = 1
	if hasOld {
		if n, err := strconv.ParseUint(oldValue, 10, 64); err == nil {
			next = n + 1
		}
	}

	var replacement string
	if hasOld && len(oldValue) > 1 && oldValue[0] == '0' {
		replacement = fmt.Sprintf("%0*d", len(oldValue), next)
	} else {
		replacement = strconv.FormatUint(next, 10)
	}

	return prefix + replacement + suffix, nil
}

const microToken = "\x00MICRO\x00" // internal placeholder, never emitted

// applyCalverFormat substitutes YYYY/YY/0M/MM/0D/DD date tokens from
// `today`, leaving a MICRO placeholder in place (returning its byte offset,
// or -1 if the format has no MICRO token) so the caller can splice in the
// previous micro value.
func applyCalverFormat(format string, today time.Time) (string, int) {
	var out strings.Builder
	microIdx := -1
	i := 0
	for i < len(format) {
		rest := format[i:]
		switch {
		case strings.HasPrefix(rest, "YYYY"):
			fmt.Fprintf(&out, "%04d", today.Year())
			i += 4
		case strings.HasPrefix(rest, "YY"):
			fmt.Fprintf(&out, "%02d", today.Year()%100)
			i += 2
		case strings.HasPrefix(rest, "0M"), strings.HasPrefix(rest, "MM"):
			fmt.Fprintf(&out, "%02d", int(today.Month()))
			i += 2
		case strings.HasPrefix(rest, "0D"), strings.HasPrefix(rest, "DD"):
			fmt.Fprintf(&out, "%02d", today.Day())
			i += 2
		case strings.HasPrefix(rest, "MICRO"):
			microIdx = out.Len()
			out.WriteString(microToken)
			i += 5
		default:
			out.WriteByte(format[i])
			i++
		}
	}
	return out.String(), microIdx
}

func isAllDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
