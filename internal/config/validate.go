package config

import (
	"fmt"
	"os"

	"github.com/jpetrucciani/harmonia/internal/herrors"
	"github.com/jpetrucciani/harmonia/internal/model"
)

// Validate enforces the hard-failure list from §4.C. Anything not listed
// here (e.g. a bad internal_pattern regex) is a soft warning surfaced
// elsewhere rather than a load-time failure.
func Validate(ws *model.Workspace) error {
	switch ws.Defaults.CloneProtocol {
	case model.ProtocolSSH, model.ProtocolHTTPS:
	default:
		return &herrors.ConfigError{Field: "defaults.clone_protocol", Location: "workspace", Reason: fmt.Sprintf("must be %q or %q, got %q", model.ProtocolSSH, model.ProtocolHTTPS, ws.Defaults.CloneProtocol)}
	}

	switch ws.MR.LinkStrategy {
	case model.LinkRelated, model.LinkDescription, model.LinkIssue, model.LinkAll:
	default:
		return &herrors.ConfigError{Field: "mr.link_strategy", Location: "workspace", Reason: fmt.Sprintf("unrecognized strategy %q", ws.MR.LinkStrategy)}
	}

	for id, repo := range ws.Repos {
		if repo.External && repo.Ignored {
			return &herrors.ConfigError{Field: "repos." + string(id), Location: "workspace", Reason: "a repo cannot be both external and ignored"}
		}
	}

	if ws.Changesets.Enabled {
		if ws.Changesets.Dir == "" {
			return &herrors.ConfigError{Field: "changesets.dir", Location: "workspace", Reason: "changesets.enabled is true but dir is empty"}
		}
		info, err := os.Stat(ws.Changesets.Dir)
		if err != nil || !info.IsDir() {
			return &herrors.ConfigError{Field: "changesets.dir", Location: "workspace", Reason: fmt.Sprintf("%q is not a directory", ws.Changesets.Dir)}
		}
	}

	for name, members := range ws.Groups {
		for _, member := range members {
			if _, ok := ws.Repos[member]; !ok {
				return &herrors.UnknownRepo{Name: fmt.Sprintf("%s (referenced by group %q)", member, name)}
			}
		}
	}
	if ws.DefaultGroup != "" {
		if _, ok := ws.Groups[ws.DefaultGroup]; !ok {
			return &herrors.UnknownGroup{Name: ws.DefaultGroup}
		}
	}

	packageNames := make(map[string]model.RepoId, len(ws.Repos))
	for id, repo := range ws.Repos {
		packageNames[repo.EffectivePackageName()] = id
	}
	for id, repo := range ws.Repos {
		for _, dep := range repo.DependsOn {
			if _, ok := ws.Repos[model.RepoId(dep)]; ok {
				continue
			}
			if _, ok := packageNames[dep]; ok {
				continue
			}
			return &herrors.UnknownRepo{Name: fmt.Sprintf("%s (referenced by %s.depends_on)", dep, id)}
		}
	}

	return nil
}
