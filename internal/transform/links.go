package transform

import (
	"strings"

	"github.com/TeXLuaCATS/manager/internal/linkref"
)

// ConvertLinksToTemplates replaces commit-pinned links into the LuaTeX C
// sources with `{{ luatex_c('hash:relpath:start[:end]') }}` expressions.
// The relpath is relative to the engine source directory, the same base
// the luatex_c template function resolves against. All other links are
// left untouched.
func ConvertLinksToTemplates(content string) string {
	matches := linkref.ListItemPattern.FindAllStringSubmatchIndex(content, -1)
	if matches == nil {
		return content
	}

	var b strings.Builder
	last := 0
	for _, loc := range matches {
		b.WriteString(content[last:loc[0]])
		last = loc[1]

		match := content[loc[0]:loc[1]]
		ref, ok := linkref.ParseLine(match)
		if !ok || !ref.IsLuaTeXSource() {
			b.WriteString(match)
			continue
		}
		ref.RelPath = strings.TrimPrefix(ref.RelPath, linkref.LuaTeXSourceDir)
		b.WriteString("* {{ luatex_c('" + ref.TemplateArgument() + "') }}")
	}
	b.WriteString(content[last:])
	return b.String()
}
