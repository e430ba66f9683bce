package transform

import (
	"regexp"
	"strings"
)

// rule is a single regular expression substitution. Replacements use the
// `${n}` syntax of regexp.Regexp.ReplaceAllString.
type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

func newRule(pattern, replacement string) rule {
	return rule{pattern: regexp.MustCompile(pattern), replacement: replacement}
}

// texRules convert the ConTeXt markup of the LuaTeX manual into Markdown.
// Later rules depend on the output of earlier ones, keep the order.
var texRules = []rule{
	newRule(`(\n|^)% .*\n`, ""),
	newRule(`\\(type|typ|prm|lpr|nod|syntax|notabene|whs|cbk)[\s]*\{([^}]*)\}`, "`${2}`"),
	newRule(`\\libidx\s*\{(.*?)\}\s*\{(.*?)\}`, "`${1}.${2}`"),
	newRule(`\\(hyphenatedurl)[\s]*\{([^}]*)\}`, "${2}"),
	newRule(`\\quot(e|ation)\s*\{([^}]*)\}`, "“${2}”"),
	newRule(`\$([^$]+)\$`, "`${1}`"),

	// product names
	newRule(`\\TEX\\?`, "*TeX*"),
	newRule(`\\ETEX\\?`, "*e-TeX*"),
	newRule(`\\CONTEXT\\?`, "*ConTeXt*"),
	newRule(`\\LUATEX\\?`, "*LuaTeX*"),
	newRule(`\\LUA\\?`, "*Lua*"),
	newRule(`\\PDFTEX\\?`, "*pdfTeX*"),
	newRule(`\\PDF\\?`, "*PDF*"),
	newRule(`\\DVI\\?`, "*DVI*"),
	newRule(`\\OPENTYPE\\?`, "*OpenType*"),
	newRule(`\\TRUETYPE\\?`, "*TrueType*"),
	newRule(`\\MICROSOFT\\?`, "*Microsoft*"),
	newRule(`\\FONTFORGE\\?`, "*FontForge*"),
	newRule(`\\POSTSCRIPT\\?`, "*PostScript*"),
	newRule(`\\UTF-?8?\\?`, "*UTF-8*"),
	newRule(`\\UNICODE\\?`, "*Unicode*"),

	newRule(`\\(environment|startcomponent) .*\n`, ""),
	newRule(`\\(starttyping|startfunctioncall|stoptyping|stopfunctioncall)`, "```"),

	// lists
	newRule(`\\startitemize(\[[^\]]*\])?`, ""),
	newRule(`\\startitem\s*`, "* "),
	newRule(`\\stopitem(ize)?`, ""),

	newRule(`~`, " "),
	newRule(`\|-\|`, "-"),
	newRule(`\|/\|`, "/"),

	// tables
	newRule(`\\NC \\NR`, ""),
	newRule(`\\(NC|NR|DB|BC|LL|TB|stoptabulate)`, ""),
	newRule(`\\starttabulate\[.*?\]`, ""),

	newRule(`etc\\.\\`, "etc."),

	// headings
	newRule(`\\start(sub)*(section|chapter)*\[.*title=\{(.*?)\}\]`, "# ${3}"),
	newRule(`\\(sub)*section\{(.*?)\}`, "# ${2}"),
	newRule(`\\(libindex|topicindex)\s*\{[^}]+\}`, ""),
	newRule(`\\stop(sub)*section`, ""),

	newRule("--- `(.*)` +(float|string|boolean|number|table|.*node) +", "---@field ${1} ${2} # "),
	newRule(`\\unknown\\`, "..."),
	newRule(`\n--- {10,}`, " "),
	newRule(`[ \t]*\n`, "\n"),
}

var repeatedEmptyComments = regexp.MustCompile(`---\n(---\n)+`)

// ConvertTeXToLua turns a section of the LuaTeX manual into a Lua doc
// comment block.
func ConvertTeXToLua(content string) string {
	for _, r := range texRules {
		content = r.pattern.ReplaceAllString(content, r.replacement)
	}
	content = PrefixLines(content, "---")
	return repeatedEmptyComments.ReplaceAllString(content, "---\n")
}

// PrefixLines puts prefix in front of every line of content.
func PrefixLines(content, prefix string) string {
	return prefix + strings.ReplaceAll(content, "\n", "\n"+prefix)
}
