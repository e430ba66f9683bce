package templating

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	derrors "github.com/TeXLuaCATS/manager/internal/errors"
)

// LuaTeXSourceURL is the blob URL prefix of the LuaTeX engine sources.
const LuaTeXSourceURL = "https://gitlab.lisn.upsaclay.fr/texlive/luatex/-/blob"

const luatexSourceDir = "source/texk/web2c/luatexdir"

// RepoMeta provides the links of the repository a file belongs to.
type RepoMeta interface {
	BlobURL(relpath string) (string, error)
	PullRequestURL() (string, error)
}

// CommitTable maps abbreviated commit hashes to full ones.
type CommitTable map[string]string

// DefaultCommits lists the upstream commits referenced by the definitions.
var DefaultCommits = CommitTable{
	"f52b099": "f52b099f3e01d53dc03b315e1909245c3d5418d3",
}

// Resolve expands a seven character hash. Longer hashes are returned as is.
func (t CommitTable) Resolve(commit string) (string, error) {
	if len(commit) != 7 {
		return commit, nil
	}
	full, ok := t[commit]
	if !ok {
		return "", derrors.UnresolvedCommit(commit)
	}
	return full, nil
}

// NewContext binds `luatex_c` and `contribute` for the file named filename.
func NewContext(meta RepoMeta, filename string, commits CommitTable) Context {
	if commits == nil {
		commits = DefaultCommits
	}
	return Context{
		"luatex_c": Func(func(args ...any) (string, error) {
			return luatexC(commits, args...)
		}),
		"contribute": Func(func(...any) (string, error) {
			return contribute(meta, filename)
		}),
	}
}

// luatexC accepts either `'hash:relpath:start[:end]'` or the separate
// arguments `(hash, relpath, start[, end])`.
func luatexC(commits CommitTable, args ...any) (string, error) {
	if len(args) == 1 {
		s, ok := args[0].(string)
		if !ok {
			return "", derrors.TemplateFailed("luatex_c", fmt.Errorf("expected string argument, got %T", args[0]))
		}
		parts := strings.Split(s, ":")
		args = make([]any, len(parts))
		for i, p := range parts {
			args[i] = p
		}
	}
	if len(args) < 3 || len(args) > 4 {
		return "", derrors.TemplateFailed("luatex_c", fmt.Errorf("expected 3 or 4 arguments, got %d", len(args)))
	}

	commit, ok1 := args[0].(string)
	relpath, ok2 := args[1].(string)
	if !ok1 || !ok2 {
		return "", derrors.TemplateFailed("luatex_c", fmt.Errorf("commit and relpath must be strings"))
	}
	start, err := toInt(args[2])
	if err != nil {
		return "", derrors.TemplateFailed("luatex_c", err)
	}

	full, err := commits.Resolve(commit)
	if err != nil {
		return "", err
	}

	linesURL := fmt.Sprintf("L%d", start)
	linesText := fmt.Sprintf("Line %d", start)
	if len(args) == 4 {
		end, err := toInt(args[3])
		if err != nil {
			return "", derrors.TemplateFailed("luatex_c", err)
		}
		linesURL = fmt.Sprintf("L%d-%d", start, end)
		linesText = fmt.Sprintf("Lines %d-%d", start, end)
	}

	return fmt.Sprintf("Corresponding C source code: [%s %s](%s/%s/%s#%s)",
		relpath, linesText, LuaTeXSourceURL, full, path.Join(luatexSourceDir, relpath), linesURL), nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("invalid line number %q", n)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("invalid line number %v", v)
	}
}

func contribute(meta RepoMeta, filename string) (string, error) {
	if meta == nil {
		return "", derrors.TemplateFailed("contribute", fmt.Errorf("no repository metadata"))
	}
	blob, err := meta.BlobURL(path.Join("library", filename))
	if err != nil {
		return "", err
	}
	pulls, err := meta.PullRequestURL()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("😱 [Types](%s) incomplete or incorrect? 🙏 [Please contribute!](%s)", blob, pulls), nil
}
