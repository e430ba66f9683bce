package subproject

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"

	derrors "github.com/TeXLuaCATS/manager/internal/errors"
	"github.com/TeXLuaCATS/manager/internal/folder"
)

// ArchivePath is the release archive of the subproject.
func (s *Subproject) ArchivePath() string {
	return filepath.Join(s.Dist(), s.LowercaseName()+".zip")
}

// Package writes the merged definitions and the distributed library into a
// zip archive below a top level directory named after the subproject.
func (s *Subproject) Package() (string, error) {
	archive := s.ArchivePath()
	err := s.stage(StagePackage, func() error {
		paths, err := s.DistLibrary().ListPaths("", folder.DefaultExtension)
		if err != nil {
			return err
		}
		files := append([]string{s.MergedDefinitionsPath()}, paths...)
		return writeArchive(archive, s.Dist(), s.LowercaseName(), files)
	})
	if err != nil {
		return "", err
	}
	return archive, nil
}

func writeArchive(archive, root, prefix string, files []string) (err error) {
	out, err := os.Create(archive) // #nosec G304 -- archive path derives from the base path
	if err != nil {
		return derrors.IOFailed("create", archive, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = derrors.IOFailed("close", archive, cerr)
		}
	}()

	zw := zip.NewWriter(out)
	for _, path := range files {
		rel, rerr := filepath.Rel(root, path)
		if rerr != nil {
			return derrors.IOFailed("archive", path, rerr)
		}
		name := prefix + "/" + filepath.ToSlash(rel)
		if werr := addToArchive(zw, path, name); werr != nil {
			return werr
		}
	}
	if err := zw.Close(); err != nil {
		return derrors.IOFailed("archive", archive, err)
	}
	return nil
}

func addToArchive(zw *zip.Writer, path, name string) error {
	in, err := os.Open(path) // #nosec G304 -- files listed from the dist directory
	if err != nil {
		return derrors.IOFailed("read", path, err)
	}
	defer func() { _ = in.Close() }()

	w, err := zw.Create(strings.TrimPrefix(name, "/"))
	if err != nil {
		return derrors.IOFailed("archive", path, err)
	}
	if _, err := io.Copy(w, in); err != nil {
		return derrors.IOFailed("archive", path, err)
	}
	return nil
}
