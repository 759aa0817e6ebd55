package version_test

import (
	"testing"
	"time"

	"github.com/jpetrucciani/harmonia/internal/version"
)

func TestCompareRequiresBothSemver(t *testing.T) {
	a := version.ParseVersion("1.2.3", version.Semver)
	b := version.ParseVersion("not-a-version", version.Raw)

	if _, err := version.Compare(a, b); err == nil {
		t.Fatalf("expected incomparable error")
	}
}

func TestSemverBumpPatchWithPrerelease(t *testing.T) {
	current := version.ParseVersion("1.2.3", version.Semver)
	bumped, err := version.Bump(current, version.ModeSemver, version.LevelPatch, "rc.1", "", time.Now())
	if err != nil {
		t.Fatalf("bump: %v", err)
	}
	if bumped.Raw != "1.2.4-rc.1" {
		t.Fatalf("got %q, want 1.2.4-rc.1", bumped.Raw)
	}
}

func TestSemverRebumpSamePrereleaseLevelStripsPrerelease(t *testing.T) {
	current := version.ParseVersion("1.2.4-rc.1", version.Semver)
	bumped, err := version.Bump(current, version.ModeSemver, version.LevelPatch, "", "", time.Now())
	if err != nil {
		t.Fatalf("bump: %v", err)
	}
	if bumped.Raw != "1.2.4" {
		t.Fatalf("got %q, want 1.2.4", bumped.Raw)
	}
}

func TestSemverBumpIsStrictlyGreater(t *testing.T) {
	current := version.ParseVersion("1.2.3", version.Semver)
	for _, level := range []version.Level{version.LevelPatch, version.LevelMinor, version.LevelMajor} {
		bumped, err := version.Bump(current, version.ModeSemver, level, "", "", time.Now())
		if err != nil {
			t.Fatalf("bump level %v: %v", level, err)
		}
		if !version.GreaterThan(bumped, current) {
			t.Fatalf("bumped version %q is not greater than %q", bumped.Raw, current.Raw)
		}
	}
}

func TestBumpSemverFailsOnUnparseableRaw(t *testing.T) {
	current := version.ParseVersion("not-a-version", version.Semver)
	if _, err := version.Bump(current, version.ModeSemver, version.LevelPatch, "", "", time.Now()); err == nil {
		t.Fatalf("expected ErrUnbumpable")
	}
}

func TestTinyIncBumpsRightmostNumericWithZeroPadding(t *testing.T) {
	got, err := version.BumpRightmostNumeric("2026.02.009")
	if err != nil {
		t.Fatalf("bump: %v", err)
	}
	if got != "2026.02.010" {
		t.Fatalf("got %q, want 2026.02.010", got)
	}
}

func TestTinyIncErrorsWithoutNumericSegment(t *testing.T) {
	if _, err := version.BumpRightmostNumeric("release"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestCalverMicroIncrementsWhenFormatMatches(t *testing.T) {
	today := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	current := version.ParseVersion("2026.08.009", version.Calver)
	bumped, err := version.Bump(current, version.ModeCalver, version.LevelPatch, "", "YYYY.0M.MICRO", today)
	if err != nil {
		t.Fatalf("bump: %v", err)
	}
	if bumped.Raw != "2026.08.010" {
		t.Fatalf("got %q, want 2026.08.010", bumped.Raw)
	}
}

func TestCalverResetsMicroOnNewPeriod(t *testing.T) {
	today := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	current := version.ParseVersion("2026.08.010", version.Calver)
	bumped, err := version.Bump(current, version.ModeCalver, version.LevelPatch, "", "YYYY.0M.MICRO", today)
	if err != nil {
		t.Fatalf("bump: %v", err)
	}
	if bumped.Raw != "2026.09.1" {
		t.Fatalf("got %q, want 2026.09.1", bumped.Raw)
	}
}

func TestSatisfiesIndeterminateForNonSemver(t *testing.T) {
	v := version.ParseVersion("not-a-version", version.Raw)
	c := version.ParseConstraint(">=1.0.0")
	if version.Satisfies(v, c) != version.Indeterminate {
		t.Fatalf("expected Indeterminate")
	}
}

func TestConstraintIsExactPin(t *testing.T) {
	c := version.ParseConstraint("=1.2.0")
	if !c.IsExactPin() {
		t.Fatalf("expected exact pin")
	}
	c2 := version.ParseConstraint(">=1.2.0")
	if c2.IsExactPin() {
		t.Fatalf("did not expect exact pin")
	}
}

func TestConstraintHasUpperBound(t *testing.T) {
	c := version.ParseConstraint(">=1.0.0, <2.0.0")
	if !c.HasUpperBound() {
		t.Fatalf("expected upper bound")
	}
	c2 := version.ParseConstraint(">=1.0.0")
	if c2.HasUpperBound() {
		t.Fatalf("did not expect upper bound")
	}
}
