// Package transform holds the text passes applied to Lua type definition
// files. Every pass is a pure function over the file content; the order in
// which passes run is declared as data through Chain values.
package transform

import "strings"

// Pass is a named pure text transformation.
type Pass struct {
	Name  string
	Apply func(string) string
}

// Chain is an ordered list of passes.
type Chain []Pass

// Apply runs the passes of the chain in order.
func (c Chain) Apply(content string) string {
	for _, p := range c {
		content = p.Apply(content)
	}
	return content
}

// Names returns the pass names in execution order.
func (c Chain) Names() []string {
	names := make([]string, len(c))
	for i, p := range c {
		names[i] = p.Name
	}
	return names
}

// String renders the chain as `a -> b -> c`.
func (c Chain) String() string {
	return strings.Join(c.Names(), " -> ")
}

var (
	PassRemoveDuplicateEmptyLines = Pass{Name: "remove_duplicate_empty_lines", Apply: RemoveDuplicateEmptyLines}
	PassRemoveReturnStatement     = Pass{Name: "remove_return_statement", Apply: RemoveReturnStatement}
	PassConvertLocalToGlobalTable = Pass{Name: "convert_local_to_global_table", Apply: ConvertLocalToGlobalTable}
	PassRemoveDoubleDashComments  = Pass{Name: "remove_double_dash_comments", Apply: RemoveDoubleDashComments}
	PassRemoveNavigationTable     = Pass{Name: "remove_navigation_table", Apply: RemoveNavigationTable}
	PassCleanDocstrings           = Pass{Name: "clean_docstrings", Apply: CleanDocstrings}
	PassConvertHTMLToLua          = Pass{Name: "convert_html_to_lua", Apply: ConvertHTMLToLua}
	PassConvertTeXToLua           = Pass{Name: "convert_tex_to_lua", Apply: ConvertTeXToLua}
	PassCreateNavigationTable     = Pass{Name: "create_navigation_table", Apply: CreateNavigationTable}
	PassConvertLinksToTemplates   = Pass{Name: "convert_links_to_templates", Apply: ConvertLinksToTemplates}
	PassRewrap                    = Pass{Name: "rewrap", Apply: Rewrap}
	PassRemoveMetaAnnotation      = Pass{Name: "remove_meta_annotation", Apply: RemoveMetaAnnotation}
)

// FormatChain cleans the docstrings of a library file. With rewrap the
// comment prose is reflowed afterwards.
func FormatChain(rewrap bool) Chain {
	c := Chain{PassCleanDocstrings}
	if rewrap {
		c = append(c, PassRewrap)
	}
	return c
}

// DistributeChain prepares a library file for publishing.
// Template rendering needs repository metadata and runs after this chain.
var DistributeChain = Chain{
	PassRemoveNavigationTable,
	PassCleanDocstrings,
}

// ExternalDefinitionChain turns a module returning a local table into
// global definitions.
var ExternalDefinitionChain = Chain{
	PassRemoveReturnStatement,
	PassConvertLocalToGlobalTable,
}

// MergeChain prepares a distributed file for concatenation into the
// merged definitions file.
var MergeChain = Chain{
	PassRemoveDoubleDashComments,
	PassRemoveReturnStatement,
	PassRemoveMetaAnnotation,
}
