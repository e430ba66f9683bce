package subproject

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/TeXLuaCATS/manager/internal/folder"
	"github.com/TeXLuaCATS/manager/internal/repository"
)

// SyncExtension copies the distributed libraries of the TeX subprojects
// into the editor extension repository. With sync the extension and the
// meta repository are committed and pushed.
func SyncExtension(ctx context.Context, env *Env, projects []*Subproject, sync bool) error {
	extension := repository.Open(env.Layout.VSCodeExtension(), env.RepoOptions)
	if err := extension.CheckoutClean(ctx, repository.DefaultBranch); err != nil {
		return err
	}

	urls := make([]string, 0, len(projects))
	for _, s := range projects {
		dest := filepath.Join(extension.Path, "library", s.LowercaseName())
		if err := folder.CopyDir(s.DistLibrary().Path, dest, true); err != nil {
			return err
		}
		url, err := s.Repo().LatestCommitURL()
		if err != nil {
			return err
		}
		urls = append(urls, url)
	}
	if !sync {
		return nil
	}

	if err := extension.SyncToRemote(ctx, ExtensionCommitMessage(urls), repository.DefaultBranch); err != nil {
		return err
	}
	meta := repository.Open(env.Layout.Base, env.RepoOptions)
	return meta.SyncToRemote(ctx, "Update submodules", repository.DefaultBranch)
}

// ExtensionCommitMessage lists the commits the extension was synced with.
func ExtensionCommitMessage(urls []string) string {
	return "Sync with:\n\n- " + strings.Join(urls, "\n- ")
}
