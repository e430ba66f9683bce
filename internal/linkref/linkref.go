// Package linkref parses commit-pinned source links found in doc comments.
package linkref

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	// LuaTeXCaption is the list item caption of links into the LuaTeX C sources.
	LuaTeXCaption = "Corresponding C source code"
	// LuaTeXBlobURL is the blob prefix of the LuaTeX upstream repository.
	LuaTeXBlobURL = "https://gitlab.lisn.upsaclay.fr/texlive/luatex/-/blob"
	// LuaTeXSourceDir is the directory of the LuaTeX engine sources inside
	// the upstream repository.
	LuaTeXSourceDir = "source/texk/web2c/luatexdir/"
)

// ListItemPattern matches `* <caption>: [<text>](<base>/<hash>/<relpath>#L<s>[-L<e>])`.
var ListItemPattern = regexp.MustCompile(`\* (?P<caption>.+): \[(?P<text>.+)\]\((?P<url>.+)/(?P<hash>[a-fA-F0-9]{40,})/(?P<relpath>.*)#(?P<lines>[L0-9-]+)\)`)

var urlPattern = regexp.MustCompile(`^(?P<url>.+)/(?P<hash>[a-fA-F0-9]{40,})/(?P<relpath>.*)#(?P<lines>[L0-9-]+)$`)

// Reference is a link to a line range of a file at a fixed commit.
type Reference struct {
	Caption   string
	Text      string
	BaseURL   string
	Commit    string
	RelPath   string
	StartLine int
	// EndLine is 0 for single line references.
	EndLine int
}

// ShortCommit returns the first seven characters of the commit hash.
func (r Reference) ShortCommit() string {
	if len(r.Commit) < 7 {
		return r.Commit
	}
	return r.Commit[:7]
}

// TemplateArgument renders `hash7:relpath:start[:end]`.
func (r Reference) TemplateArgument() string {
	if r.EndLine > 0 {
		return fmt.Sprintf("%s:%s:%d:%d", r.ShortCommit(), r.RelPath, r.StartLine, r.EndLine)
	}
	return fmt.Sprintf("%s:%s:%d", r.ShortCommit(), r.RelPath, r.StartLine)
}

// IsLuaTeXSource reports whether the reference points into the LuaTeX C sources.
func (r Reference) IsLuaTeXSource() bool {
	return r.Caption == LuaTeXCaption && r.BaseURL == LuaTeXBlobURL
}

// ParseLine parses the first commit-pinned list item found in line.
func ParseLine(line string) (Reference, bool) {
	m := ListItemPattern.FindStringSubmatch(line)
	if m == nil {
		return Reference{}, false
	}
	return fromSubmatch(ListItemPattern, m)
}

// ParseURL splits a commit-pinned blob URL into its parts.
func ParseURL(url string) (Reference, bool) {
	m := urlPattern.FindStringSubmatch(url)
	if m == nil {
		return Reference{}, false
	}
	return fromSubmatch(urlPattern, m)
}

func fromSubmatch(re *regexp.Regexp, m []string) (Reference, bool) {
	var ref Reference
	for i, name := range re.SubexpNames() {
		switch name {
		case "caption":
			ref.Caption = m[i]
		case "text":
			ref.Text = m[i]
		case "url":
			ref.BaseURL = m[i]
		case "hash":
			ref.Commit = m[i]
		case "relpath":
			ref.RelPath = m[i]
		case "lines":
			start, end, ok := parseLines(m[i])
			if !ok {
				return Reference{}, false
			}
			ref.StartLine, ref.EndLine = start, end
		}
	}
	return ref, true
}

// parseLines accepts `L10`, `L10-L20` and `L10-20`.
func parseLines(s string) (int, int, bool) {
	parts := strings.Split(strings.ReplaceAll(s, "L", ""), "-")
	if len(parts) > 2 {
		return 0, 0, false
	}
	start, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	if len(parts) == 1 {
		return start, 0, true
	}
	end, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	return start, end, true
}
