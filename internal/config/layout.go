package config

import (
	"path/filepath"
	"strings"
)

// Layout derives every path of the meta repository from its base path.
type Layout struct {
	Base string
}

// NewLayout returns the layout rooted at base.
func NewLayout(base string) Layout {
	return Layout{Base: base}
}

// Layout returns the layout for the configured base path.
func (c *Config) Layout() Layout {
	return NewLayout(c.BasePath)
}

// LibraryBase is the checkout of a plain library subproject, for example
// LuaCATS/upstream/lpeg.
func (l Layout) LibraryBase(name string) string {
	return filepath.Join(l.Base, "LuaCATS", "upstream", name)
}

// TeXBase is the checkout of a TeX engine subproject, for example
// TeXLuaCATS/LuaTeX.
func (l Layout) TeXBase(name string) string {
	return filepath.Join(l.Base, "TeXLuaCATS", name)
}

// Downstream is the downstream repository of a TeX subproject, for example
// LuaCATS/downstream/tex-luatex.
func (l Layout) Downstream(name string) string {
	return filepath.Join(l.Base, "LuaCATS", "downstream", "tex-"+strings.ToLower(name))
}

// Dist is the staging directory of a subproject, for example dist/LuaTeX.
func (l Layout) Dist(name string) string {
	return filepath.Join(l.Base, "dist", name)
}

// Resolve joins a path relative to the base path.
func (l Layout) Resolve(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(l.Base, rel)
}

func (l Layout) StyluaConfig() string      { return filepath.Join(l.Base, "stylua.toml") }
func (l Layout) HTMLDocsResources() string { return filepath.Join(l.Base, "resources", "html-docs") }
func (l Layout) VSCodeExtension() string   { return filepath.Join(l.Base, "vscode_extension") }
func (l Layout) TmpLua() string            { return filepath.Join(l.Base, "tmp.lua") }
func (l Layout) TmpTeX() string            { return filepath.Join(l.Base, "tmp.tex") }
