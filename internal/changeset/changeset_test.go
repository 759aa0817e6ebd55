package changeset_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jpetrucciani/harmonia/internal/changeset"
	"github.com/jpetrucciani/harmonia/internal/model"
)

func writeChangesetFile(t *testing.T, dir, name, contents string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadDiscoversChangesetFiles(t *testing.T) {
	dir := t.TempDir()
	writeChangesetFile(t, dir, "add-billing.toml", `id = "add-billing"
title = "Add billing support"
description = "Introduces the billing service and wires it into core."
branch = "feature/add-billing"

[[repos]]
repo = "core"
summary = "Expose billing hooks"

[[repos]]
repo = "api"
summary = "Add billing endpoints"
`)

	changesets, err := changeset.Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(changesets) != 1 {
		t.Fatalf("expected 1 changeset, got %d", len(changesets))
	}
	cs := changesets[0]
	if cs.ID != "add-billing" || cs.Branch != "feature/add-billing" {
		t.Fatalf("unexpected changeset: %+v", cs)
	}
	if len(cs.Repos) != 2 || cs.Repos[0].Repo != "core" || cs.Repos[1].Summary != "Add billing endpoints" {
		t.Fatalf("unexpected repo summaries: %+v", cs.Repos)
	}
}

func TestLoadDefaultsIDToFilenameWhenFieldMissing(t *testing.T) {
	dir := t.TempDir()
	writeChangesetFile(t, dir, "not-a-changeset.toml", "not_a_changeset_field = 1\n")
	writeChangesetFile(t, dir, "real.toml", `id = "real"
branch = "main"
`)

	changesets, err := changeset.Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(changesets) != 2 {
		t.Fatalf("expected both files to decode (one with a defaulted id), got %d", len(changesets))
	}
}

func TestLoadMissingDirReturnsEmpty(t *testing.T) {
	changesets, err := changeset.Load(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("expected no error for a missing dir, got %v", err)
	}
	if len(changesets) != 0 {
		t.Fatalf("expected no changesets, got %d", len(changesets))
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	cs := model.Changeset{
		ID:     "roundtrip",
		Title:  "Round trip",
		Branch: "feature/roundtrip",
		Repos: []model.ChangesetRepo{
			{Repo: "core", Summary: "bump core"},
		},
	}
	if err := changeset.Save(dir, cs); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := changeset.Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID != "roundtrip" || loaded[0].Repos[0].Repo != "core" {
		t.Fatalf("unexpected round-trip result: %+v", loaded)
	}
}

func TestSaveRejectsEmptyID(t *testing.T) {
	if err := changeset.Save(t.TempDir(), model.Changeset{Branch: "main"}); err == nil {
		t.Fatalf("expected an error for a changeset with no id")
	}
}

func TestSelectActiveMatchesBranch(t *testing.T) {
	changesets := []model.Changeset{
		{ID: "a", Branch: "feature/a"},
		{ID: "b", Branch: "feature/b"},
	}
	active := changeset.SelectActive(changesets, "feature/b")
	if active == nil || active.ID != "b" {
		t.Fatalf("expected changeset b to be active, got %+v", active)
	}
}

func TestSelectActiveReturnsNilWhenNoMatch(t *testing.T) {
	changesets := []model.Changeset{{ID: "a", Branch: "feature/a"}}
	if active := changeset.SelectActive(changesets, "main"); active != nil {
		t.Fatalf("expected no active changeset, got %+v", active)
	}
}
