package subproject

import (
	"context"
	"os"
	"path/filepath"

	derrors "github.com/TeXLuaCATS/manager/internal/errors"
	"github.com/TeXLuaCATS/manager/internal/folder"
	"github.com/TeXLuaCATS/manager/internal/tools"
)

// DocsBranch is the branch the generated site is pushed to.
const DocsBranch = "gh-pages"

// DocsDir is the mkdocs project generated for the subproject.
func (s *Subproject) DocsDir() string { return filepath.Join(s.Dist(), "docs") }

// CompileDoc distributes the library without syncing, generates the
// Markdown documentation, builds the site and pushes it to the docs branch
// of the main repository.
func (s *Subproject) CompileDoc(ctx context.Context) error {
	if err := s.Distribute(ctx, false); err != nil {
		return err
	}
	return s.stage(StageDocs, func() error {
		resources := s.env.Layout.HTMLDocsResources()
		dest := s.DocsDir()

		err := s.env.Docs.Generate(ctx, s.DistLibrary().Path, dest, tools.GenerateOptions{
			SiteName:    s.Name,
			TemplateDir: filepath.Join(resources, "emmylua-templates"),
		})
		if err != nil {
			return err
		}
		if err := s.copyDocsAssets(resources, dest); err != nil {
			return err
		}
		if err := s.env.Docs.Build(ctx, dest); err != nil {
			return err
		}

		repo := s.Repo()
		if err := repo.CheckoutClean(ctx, DocsBranch); err != nil {
			return err
		}
		if err := folder.CopyDir(filepath.Join(dest, "site"), repo.Path, false); err != nil {
			return err
		}
		return repo.SyncToRemote(ctx, "Generate docs", DocsBranch)
	})
}

func (s *Subproject) copyDocsAssets(resources, dest string) error {
	if err := copyFile(
		filepath.Join(resources, "extra.css"),
		filepath.Join(dest, "docs", "stylesheets", "extra.css"),
	); err != nil {
		return err
	}

	logo := filepath.Join(resources, "images", "logos", s.LowercaseName()+".svg")
	if _, err := os.Stat(logo); err == nil {
		if err := copyFile(logo, filepath.Join(dest, "docs", "assets", "logo.svg")); err != nil {
			return err
		}
	}

	fonts := filepath.Join(resources, "webfonts", "DejaVu")
	if _, err := os.Stat(fonts); err != nil {
		return nil
	}
	return folder.CopyDir(fonts, filepath.Join(dest, "docs", "assets", "fonts"), false)
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src) // #nosec G304 -- resource paths derive from the base path
	if err != nil {
		return derrors.IOFailed("read", src, err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return derrors.IOFailed("create directory", filepath.Dir(dst), err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return derrors.IOFailed("write", dst, err)
	}
	return nil
}
