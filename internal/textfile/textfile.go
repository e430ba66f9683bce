// Package textfile provides a mutable text buffer bound to a file on disk.
//
// A File keeps the content it was loaded with next to the current content.
// Transformations only touch the current content until Save or Write
// persists it.
package textfile

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	derrors "github.com/TeXLuaCATS/manager/internal/errors"
	"github.com/TeXLuaCATS/manager/internal/logfields"
	"github.com/TeXLuaCATS/manager/internal/templating"
	"github.com/TeXLuaCATS/manager/internal/transform"
)

// File is a text file loaded into memory.
type File struct {
	Path            string
	OriginalContent string
	Content         string

	// DiffOutput receives the coloured diff printed by Save at debug level.
	// Defaults to os.Stdout.
	DiffOutput io.Writer
}

// Load reads the file at path. A missing file is created empty, including
// its parent directories. Content that is not valid UTF-8 is decoded as
// ISO-8859-1.
func Load(path string) (*File, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, derrors.IOFailed("create directory", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			return nil, derrors.IOFailed("create", path, err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, derrors.IOFailed("read", path, err)
	}

	content, err := decode(data)
	if err != nil {
		return nil, derrors.IOFailed("decode", path, err)
	}

	return &File{
		Path:            path,
		OriginalContent: content,
		Content:         content,
	}, nil
}

// FromString returns an unsaved buffer for path holding content.
func FromString(path, content string) *File {
	return &File{Path: path, OriginalContent: content, Content: content}
}

func decode(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

func (f *File) String() string { return f.Path }

// Filename returns the last element of the path.
func (f *File) Filename() string { return filepath.Base(f.Path) }

// Write replaces the content and persists it unchanged.
func (f *File) Write(text string) error {
	slog.Info("Write file", logfields.Path(f.Path))
	if err := os.WriteFile(f.Path, []byte(text), 0o644); err != nil {
		return derrors.IOFailed("write", f.Path, err)
	}
	f.Content = text
	return nil
}

// Save trims surrounding whitespace, ends the content with exactly one
// newline and writes it. At debug level a diff against the original content
// is printed first.
func (f *File) Save() error {
	f.Content = strings.TrimSpace(f.Content) + "\n"
	if debugEnabled() {
		out := f.DiffOutput
		if out == nil {
			out = os.Stdout
		}
		if err := WriteDiff(out, f.Path, f.OriginalContent, f.Content); err != nil {
			slog.Warn("Unable to print diff", logfields.Path(f.Path), logfields.Error(err))
		}
	}
	if err := os.WriteFile(f.Path, []byte(f.Content), 0o644); err != nil {
		return derrors.IOFailed("write", f.Path, err)
	}
	return nil
}

func (f *File) finalize(save bool) (string, error) {
	if save {
		if err := f.Save(); err != nil {
			return "", err
		}
	}
	return f.Content, nil
}

func (f *File) apply(fn func(string) string, save bool) (string, error) {
	f.Content = fn(f.Content)
	return f.finalize(save)
}

// Apply runs a chain of passes over the content.
func (f *File) Apply(chain transform.Chain, save bool) (string, error) {
	slog.Debug("Apply passes", logfields.Path(f.Path), logfields.Pass(chain.String()))
	return f.apply(chain.Apply, save)
}

// Prepend puts text and a newline in front of the content and collapses
// duplicate empty lines.
func (f *File) Prepend(text string, save bool) (string, error) {
	f.Content = transform.RemoveDuplicateEmptyLines(text + "\n" + f.Content)
	return f.finalize(save)
}

// Append adds a newline and text to the content and collapses duplicate
// empty lines.
func (f *File) Append(text string, save bool) (string, error) {
	f.Content = transform.RemoveDuplicateEmptyLines(f.Content + "\n" + text)
	return f.finalize(save)
}

// Replace substitutes every occurrence of old with replacement.
func (f *File) Replace(old, replacement string, save bool) (string, error) {
	f.Content = strings.ReplaceAll(f.Content, old, replacement)
	return f.finalize(save)
}

// RemoveDuplicateEmptyLines applies transform.RemoveDuplicateEmptyLines.
func (f *File) RemoveDuplicateEmptyLines(save bool) (string, error) {
	return f.apply(transform.RemoveDuplicateEmptyLines, save)
}

// RemoveReturnStatement drops the `return` lines of a library module.
func (f *File) RemoveReturnStatement(save bool) (string, error) {
	return f.apply(transform.RemoveReturnStatement, save)
}

// ConvertLocalToGlobalTable turns the first `local name = {}` global.
func (f *File) ConvertLocalToGlobalTable(save bool) (string, error) {
	return f.apply(transform.ConvertLocalToGlobalTable, save)
}

// RemoveDoubleDashComments drops plain `--` comment lines.
func (f *File) RemoveDoubleDashComments(save bool) (string, error) {
	return f.apply(transform.RemoveDoubleDashComments, save)
}

// RemoveNavigationTable strips the `_N` outline table.
func (f *File) RemoveNavigationTable(save bool) (string, error) {
	return f.apply(transform.RemoveNavigationTable, save)
}

// CleanDocstrings normalizes the empty comment lines around docstrings.
func (f *File) CleanDocstrings(save bool) (string, error) {
	return f.apply(transform.CleanDocstrings, save)
}

// ConvertHTMLToLua turns an HTML manual into `---` comments.
func (f *File) ConvertHTMLToLua(save bool) (string, error) {
	return f.apply(transform.ConvertHTMLToLua, save)
}

// ConvertTeXToLua turns a ConTeXt manual source into `---` comments.
func (f *File) ConvertTeXToLua(save bool) (string, error) {
	return f.apply(transform.ConvertTeXToLua, save)
}

// ConvertLinksToTemplates replaces pinned LuaTeX source links with luatex_c templates.
func (f *File) ConvertLinksToTemplates(save bool) (string, error) {
	return f.apply(transform.ConvertLinksToTemplates, save)
}

// Rewrap reflows docstring prose to transform.RewrapWidth.
func (f *File) Rewrap(save bool) (string, error) {
	return f.apply(transform.Rewrap, save)
}

// CreateNavigationTable converts an outline into a `_N` table and always
// saves the result.
func (f *File) CreateNavigationTable() error {
	f.Content = transform.CreateNavigationTable(f.Content)
	return f.Save()
}

// RenderTemplates evaluates the template expressions of the content with
// the functions bound to meta and the file name.
func (f *File) RenderTemplates(meta templating.RepoMeta, commits templating.CommitTable, save bool) (string, error) {
	rendered, err := templating.Render(f.Content, templating.NewContext(meta, f.Filename(), commits))
	if err != nil {
		return "", err
	}
	f.Content = rendered
	return f.finalize(save)
}
