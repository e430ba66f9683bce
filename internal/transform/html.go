package transform

import (
	"regexp"

	"golang.org/x/net/html"
)

var htmlRules = []rule{
	newRule(`</?(tt|code)>`, "`"),
	newRule(`</?pre.*?>`, "```"),
	newRule(`<li> *`, "* "),
	newRule(`</?.*?> *`, ""),
}

// ConvertHTMLToLua turns an HTML manual fragment into a Lua doc comment
// block. Character references are decoded after the tags are gone.
func ConvertHTMLToLua(content string) string {
	for _, r := range htmlRules {
		content = r.pattern.ReplaceAllString(content, r.replacement)
	}
	content = html.UnescapeString(content)
	return PrefixLines(content, "---")
}

var (
	nonWordChar        = regexp.MustCompile(`[^\p{L}\p{N}_\n]`)
	repeatedUnderscore = regexp.MustCompile(`__+`)
	underscoreEOL      = regexp.MustCompile(`_\n`)
	lineStartWordChar  = regexp.MustCompile(`\n([\p{L}\p{N}_])`)
	wordCharEOL        = regexp.MustCompile(`([\p{L}\p{N}_])\n`)
)

// CreateNavigationTable turns an outline (one heading per line) into
// `_N._heading = 0` assignments. The first line is left without prefix.
func CreateNavigationTable(content string) string {
	content = nonWordChar.ReplaceAllString(content, "_")
	content = repeatedUnderscore.ReplaceAllString(content, "_")
	content = underscoreEOL.ReplaceAllString(content, "\n")
	content = lineStartWordChar.ReplaceAllString(content, "\n_N._${1}")
	return wordCharEOL.ReplaceAllString(content, "${1} = 0\n")
}
