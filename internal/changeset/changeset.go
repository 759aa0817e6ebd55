// Package changeset persists and discovers Changeset files: the optional,
// opt-in coordination record (§6 "Changeset file") that ties a set of
// per-repo summaries to one shared branch. Grounded on
// original_source/src/core/changeset.rs's Changeset shape and
// src/cli/mod.rs's load_changeset_files/select_active_changeset usage —
// the loader/selector functions themselves aren't present in the retrieved
// source, so their TOML file shape and discovery semantics are drawn
// directly from spec.md §6's "Changeset file" field list.
package changeset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jpetrucciani/harmonia/internal/model"
)

// File is the on-disk TOML shape for a changeset, matching §6's field list
// exactly: id, title, description, branch, [[repos]] { repo, summary }.
type File struct {
	ID          string     `toml:"id"`
	Title       string     `toml:"title"`
	Description string     `toml:"description"`
	Branch      string     `toml:"branch"`
	Repos       []FileRepo `toml:"repos"`
}

// FileRepo is one [[repos]] entry inside a changeset file.
type FileRepo struct {
	Repo    string `toml:"repo"`
	Summary string `toml:"summary"`
}

// ToModel converts the decoded file shape into the domain model.Changeset.
func (f File) ToModel() model.Changeset {
	repos := make([]model.ChangesetRepo, 0, len(f.Repos))
	for _, r := range f.Repos {
		repos = append(repos, model.ChangesetRepo{Repo: model.RepoId(r.Repo), Summary: r.Summary})
	}
	return model.Changeset{
		ID:          f.ID,
		Title:       f.Title,
		Description: f.Description,
		Branch:      f.Branch,
		Repos:       repos,
	}
}

// FromModel converts a domain model.Changeset into the on-disk file shape.
func FromModel(c model.Changeset) File {
	repos := make([]FileRepo, 0, len(c.Repos))
	for _, r := range c.Repos {
		repos = append(repos, FileRepo{Repo: string(r.Repo), Summary: r.Summary})
	}
	return File{ID: c.ID, Title: c.Title, Description: c.Description, Branch: c.Branch, Repos: repos}
}

// Load discovers every *.toml file directly under dir and decodes it as a
// changeset, skipping files that are not valid TOML (changesets are
// "discovered on demand", per §6). Any file that decodes is kept, even one
// with none of the changeset fields; a missing id defaults to the file name
// without its .toml suffix.
func Load(dir string) ([]model.Changeset, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading changesets dir %s: %w", dir, err)
	}

	var out []model.Changeset
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		var f File
		if _, err := toml.DecodeFile(path, &f); err != nil {
			continue
		}
		if f.ID == "" {
			f.ID = strings.TrimSuffix(entry.Name(), ".toml")
		}
		out = append(out, f.ToModel())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Save writes c to <dir>/<id>.toml, creating dir if necessary. Changesets
// are "not modified unless the user opts in" per §6; callers decide when
// Save is appropriate (there is no implicit write-back from read commands).
func Save(dir string, c model.Changeset) error {
	if c.ID == "" {
		return fmt.Errorf("changeset: cannot save a changeset with an empty id")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating changesets dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, c.ID+".toml")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating changeset file %s: %w", path, err)
	}
	defer f.Close()
	enc := toml.NewEncoder(f)
	return enc.Encode(FromModel(c))
}

// SelectActive picks the changeset whose Branch matches currentBranch,
// mirroring select_active_changeset in src/cli/mod.rs. Returns nil (no
// error) when nothing matches. The `mr create` and `plan` commands do not
// call it; they run without a changeset and use branch-derived defaults.
func SelectActive(changesets []model.Changeset, currentBranch string) *model.Changeset {
	for i := range changesets {
		if changesets[i].Branch == currentBranch {
			return &changesets[i]
		}
	}
	return nil
}
