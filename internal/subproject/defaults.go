package subproject

const (
	lualibsManualsURL    = "https://raw.githubusercontent.com/contextgarden/context/refs/heads/main/doc/context/sources/general/manuals/cld"
	luametatexManualsURL = "https://raw.githubusercontent.com/contextgarden/context/refs/heads/main/doc/context/sources/general/manuals/luametatex"
	luatexManualsURL     = "https://gitlab.lisn.upsaclay.fr/texlive/luatex/-/raw/master/manual"
)

// DefaultDefinitions lists the managed subprojects: the upstream Lua
// libraries first, then the TeX subprojects.
func DefaultDefinitions() []Definition {
	return []Definition{
		{Name: "lmathx"},
		{Name: "lpeg"},
		{Name: "luaharfbuzz"},
		{Name: "luasocket"},
		{Name: "luazip"},
		{Name: "lzlib"},
		{Name: "md5"},
		{Name: "slnunicode"},
		{Name: "LuaLaTeX", Kind: KindTeX},
		{
			Name: "Lualibs",
			Kind: KindTeX,
			Manuals: []Manual{
				{"cld-abitoflua.tex", "01_abitoflua.tex"},
				{"cld-afewdetails.tex", "04_afewdetails.tex"},
				{"cld-backendcode.tex", "15_backendcode.tex"},
				{"cld-callbacks.tex", "14_callbacks.tex"},
				{"cld-contents.tex", ""},
				{"cld-ctxfunctions.tex", "11_ctxfunctions.tex"},
				{"cld-environment.tex", ""},
				{"cld-files.tex", "20_files.tex"},
				{"cld-gettingstarted.tex", "02_gettingstarted.tex"},
				{"cld-goodies.tex", "16_goodies.tex"},
				{"cld-graphics.tex", "06_graphics.tex"},
				{"cld-introduction.tex", ""},
				{"cld-logging.tex", "09_logging.tex"},
				{"cld-luafunctions.tex", "10_luafunctions.tex"},
				{"cld-macros.tex", "07_macros.tex"},
				{"cld-mkiv.tex", ""},
				{"cld-moreonfunctions.tex", "03_moreonfunctions.tex"},
				{"cld-nicetoknow.tex", "17_nicetoknow.tex"},
				{"cld-scanners.tex", "12_scanners.tex"},
				{"cld-somemoreexamples.tex", "05_somemoreexamples.tex"},
				{"cld-specialcommands.tex", "19_specialcommands.tex"},
				{"cld-summary.tex", "18_summary.tex"},
				{"cld-titlepage.tex", ""},
				{"cld-variables.tex", "13_variables.tex"},
				{"cld-verbatim.tex", "08_verbatim.tex"},
			},
			ManualsBaseURL: lualibsManualsURL,
		},
		{
			Name: "LuaMetaTeX",
			Kind: KindTeX,
			Manuals: []Manual{
				{"luametatex-assumptions.tex", "04_assumptions.tex"},
				{"luametatex-callbacks.tex", "07_callbacks.tex"},
				{"luametatex-constructions.tex", "03_constructions.tex"},
				{"luametatex-contents.tex", ""},
				{"luametatex-engines.tex", "01_engines.tex"},
				{"luametatex-fonts.tex", "08_fonts.tex"},
				{"luametatex-internals.tex", "05_internals.tex"},
				{"luametatex-introduction.tex", ""},
				{"luametatex-languages.tex", "09_languages.tex"},
				{"luametatex-libraries.tex", "17_libraries.tex"},
				{"luametatex-lua.tex", "10_lua.tex"},
				{"luametatex-math.tex", "13_math.tex"},
				{"luametatex-metapost.tex", "11_metapost.tex"},
				{"luametatex-nodes.tex", "15_nodes.tex"},
				{"luametatex-pdf.tex", "14_pdf.tex"},
				{"luametatex-primitives.tex", "06_primitives.tex"},
				{"luametatex-principles.tex", "02_principles.tex"},
				{"luametatex-style.tex", ""},
				{"luametatex-tex.tex", "12_tex.tex"},
				{"luametatex-tokens.tex", "16_tokens.tex"},
				{"luametatex-security.tex", "18_security.tex"},
				{"luametatex.tex", ""},
			},
			ManualsBaseURL: luametatexManualsURL,
			ExternalDefinitions: []ExternalDefinition{
				{"LuaCATS/upstream/lmathx/library/mathx.lua", "xmath.lua"},
			},
			ExternalHeaders: luametatexHeaders,
		},
		{Name: "LuaOTFload", Kind: KindTeX},
		{
			Name: "LuaTeX",
			Kind: KindTeX,
			Manuals: []Manual{
				{"luatex-backend.tex", "14_backend.tex"},
				{"luatex-callbacks.tex", "09_callbacks.tex"},
				{"luatex-contents.tex", ""},
				{"luatex-enhancements.tex", "02_enhancements.tex"},
				{"luatex-export-titlepage.tex", ""},
				{"luatex-firstpage.tex", ""},
				{"luatex-fontloader.tex", "12_fontloader.tex"},
				{"luatex-fonts.tex", "06_fonts.tex"},
				{"luatex-graphics.tex", "11_graphics.tex"},
				{"luatex-harfbuzz.tex", "13_harfbuzz.tex"},
				{"luatex-introduction.tex", ""},
				{"luatex-languages.tex", "05_languages.tex"},
				{"luatex-logos.tex", ""},
				{"luatex-lua.tex", "04_lua.tex"},
				{"luatex-math.tex", "07_math.tex"},
				{"luatex-modifications.tex", "03_modifications.tex"},
				{"luatex-nodes.tex", "08_nodes.tex"},
				{"luatex-preamble.tex", "01_preamble.tex"},
				{"luatex-registers.tex", ""},
				{"luatex-statistics.tex", ""},
				{"luatex-style.tex", ""},
				{"luatex-tex.tex", "10_tex.tex"},
				{"luatex-titlepage.tex", ""},
			},
			ManualsBaseURL: luatexManualsURL,
			ExternalDefinitions: []ExternalDefinition{
				{"https://raw.githubusercontent.com/LuaCATS/luafilesystem/refs/heads/main/library/lfs.lua", "lfs.lua"},
				{"LuaCATS/upstream/lpeg/library/lpeg.lua", "lpeg.lua"},
				{"LuaCATS/upstream/luaharfbuzz/library/luaharfbuzz.lua", "luaharfbuzz.lua"},
				{"LuaCATS/upstream/luasocket/library/mbox.lua", "mbox.lua"},
				{"LuaCATS/upstream/luasocket/library/mime.lua", "mime.lua"},
				{"LuaCATS/upstream/luasocket/library/socket.lua", "socket.lua"},
				{"LuaCATS/upstream/md5/library/md5.lua", "md5.lua"},
				{"LuaCATS/upstream/slnunicode/library/unicode.lua", "unicode.lua"},
				// lzlib/library/zlib.lua differs too much from the engine's zlib.
				{"LuaCATS/upstream/luazip/library/zip.lua", "zip.lua"},
			},
			ExternalHeaders: luatexHeaders,
		},
	}
}

// NewDefaultRegistry binds the default definitions to env.
func NewDefaultRegistry(env *Env) *Registry {
	r := NewRegistry()
	for _, def := range DefaultDefinitions() {
		r.Add(New(def, env))
	}
	return r
}
