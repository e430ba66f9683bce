// Package folder lists and manipulates the Lua files below a directory.
package folder

import (
	"iter"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	derrors "github.com/TeXLuaCATS/manager/internal/errors"
	"github.com/TeXLuaCATS/manager/internal/textfile"
)

// DefaultExtension is the file extension listed when none is given.
const DefaultExtension = "lua"

// Folder is a directory containing text files.
type Folder struct {
	Path string
}

// New returns a Folder rooted at path.
func New(path string) *Folder {
	return &Folder{Path: path}
}

func (f *Folder) String() string { return f.Path }

// List loads the files with extension ext below the folder, recursively,
// in ascending path order. Files are loaded lazily while iterating.
func (f *Folder) List(ext string) iter.Seq2[*textfile.File, error] {
	return func(yield func(*textfile.File, error) bool) {
		paths, err := f.ListPaths("", ext)
		if err != nil {
			yield(nil, err)
			return
		}
		for _, p := range paths {
			file, err := textfile.Load(p)
			if !yield(file, err) || err != nil {
				return
			}
		}
	}
}

// ListPaths resolves rel against the folder. An existing file is returned
// as is, `rel.ext` is tried next, otherwise rel is searched recursively for
// files with extension ext. An empty rel searches the whole folder.
func (f *Folder) ListPaths(rel, ext string) ([]string, error) {
	if ext == "" {
		ext = DefaultExtension
	}
	search := f.Path
	if rel != "" {
		search = filepath.Join(f.Path, rel)
		if isFile(search) {
			return []string{search}, nil
		}
		if withExt := search + "." + ext; isFile(withExt) {
			return []string{withExt}, nil
		}
	}

	if _, err := os.Stat(search); os.IsNotExist(err) {
		return nil, nil
	}

	matches, err := doublestar.Glob(os.DirFS(search), "**/*."+ext, doublestar.WithFilesOnly())
	if err != nil {
		return nil, derrors.IOFailed("glob", search, err)
	}
	paths := make([]string, len(matches))
	for i, m := range matches {
		paths[i] = filepath.Join(search, filepath.FromSlash(m))
	}
	sort.Strings(paths)
	return paths, nil
}

// Get loads the file at rel, creating it when missing.
func (f *Folder) Get(rel string) (*textfile.File, error) {
	return textfile.Load(filepath.Join(f.Path, rel))
}

// Copy copies the folder to dest. With deleteDest an existing dest is
// removed first, otherwise files are merged into it.
func (f *Folder) Copy(dest string, deleteDest bool) error {
	return CopyDir(f.Path, dest, deleteDest)
}

// Clear removes the direct children of the folder, or of sub when given.
func (f *Folder) Clear(sub string) error {
	dir := filepath.Join(f.Path, sub)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return derrors.IOFailed("read directory", dir, err)
	}
	for _, e := range entries {
		p := filepath.Join(dir, e.Name())
		if err := os.RemoveAll(p); err != nil {
			return derrors.IOFailed("remove", p, err)
		}
	}
	return nil
}

// Count returns the number of files and directories below the folder, or
// below sub when given.
func (f *Folder) Count(sub string) (int, error) {
	root := filepath.Join(f.Path, sub)
	count := 0
	err := filepath.WalkDir(root, func(path string, _ os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != root {
			count++
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, derrors.IOFailed("walk", root, err)
	}
	return count, nil
}

// CopyDir recursively copies src to dst.
func CopyDir(src, dst string, deleteDst bool) error {
	if deleteDst {
		if err := os.RemoveAll(dst); err != nil {
			return derrors.IOFailed("remove", dst, err)
		}
	}
	err := filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		relPath, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		dstPath := filepath.Join(dst, relPath)
		if info.IsDir() {
			return os.MkdirAll(dstPath, 0o755)
		}
		data, err := os.ReadFile(path) // #nosec G304 -- path comes from walking src
		if err != nil {
			return err
		}
		return os.WriteFile(dstPath, data, info.Mode().Perm())
	})
	if err != nil {
		return derrors.IOFailed("copy", src, err)
	}
	return nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
