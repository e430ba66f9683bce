package subproject

import (
	"path/filepath"

	"github.com/TeXLuaCATS/manager/internal/transform"
)

// Replacement substitutes Old with New.
type Replacement struct {
	Old string
	New string
}

// HeaderEdit adapts one synced external definition file of the library.
// Replacements run first, then Prepend and Append; the file is saved at
// the end.
type HeaderEdit struct {
	File         string
	Replacements []Replacement
	Prepend      string
	Append       string
}

// ApplyExternalHeaders applies the header edits of the subproject.
func (s *Subproject) ApplyExternalHeaders() error {
	for _, edit := range s.ExternalHeaders {
		file, err := s.Get(filepath.Join("library", edit.File))
		if err != nil {
			return err
		}
		for _, r := range edit.Replacements {
			if _, err := file.Replace(r.Old, r.New, false); err != nil {
				return err
			}
		}
		if edit.Prepend != "" {
			if _, err := file.Prepend(edit.Prepend, false); err != nil {
				return err
			}
		}
		if edit.Append != "" {
			if _, err := file.Append(edit.Append, false); err != nil {
				return err
			}
		}
		if err := file.Save(); err != nil {
			return err
		}
	}
	return nil
}

const (
	luatexBlob = "https://gitlab.lisn.upsaclay.fr/texlive/luatex/-/blob/master/source/texk/web2c/luatexdir/"
	luatexTree = "https://gitlab.lisn.upsaclay.fr/texlive/luatex/-/tree/master/source/texk/web2c/luatexdir/"
)

var luaModulesNavigationTable = transform.NavigationTableHelp + "\n" + `_N._4_3_lua_modules = "page 70"` + "\n\n"

var luametatexHeaders = []HeaderEdit{
	{
		File: "xmath.lua",
		Replacements: []Replacement{
			{Old: "mathx.", New: "xmath."},
			{Old: "mathx =", New: "xmath ="},
		},
		Prepend: `---
---Corresponding directory in the LuaTeX repository: https://github.com/contextgarden/luametatex/blob/main/source/luarest
---Corresponding file in the LuaMetaTeX repository: https://github.com/contextgarden/luametatex/blob/main/source/luarest/lmtxmathlib.c
---
---Changes to the upstream project: renamed global mathx table (mathx -> xmath)
`,
	},
}

var luatexHeaders = []HeaderEdit{
	{
		File: "lfs.lua",
		Prepend: luaModulesNavigationTable + `---
---Corresponding directory in the LuaTeX repository: ` + luatexBlob + `luafilesystem
---Corresponding file in the LuaTeX repository: ` + luatexBlob + `luafilesystem/src/lfs.c
---
---Changes to the upstream project: global lfs table
`,
	},
	{
		File: "lpeg.lua",
		Replacements: []Replacement{
			{Old: "function lpeg.utfR(cp1, cp2) end", New: "---function lpeg.utfR(cp1, cp2) end"},
		},
		Prepend: luaModulesNavigationTable + `---
---Corresponding directory in the LuaTeX repository: ` + luatexBlob + `luapeg
---Corresponding file in the LuaTeX repository: ` + luatexBlob + `luapeg/lpeg.c
---
---Changes to the upstream project: global lpeg table`,
	},
	{
		File: "mbox.lua",
		Prepend: luaModulesNavigationTable + `---
---Corresponding directory in the LuaTeX repository: ` + luatexBlob + `luasocket
---Corresponding file in the LuaTeX repository: ` + luatexBlob + `luasocket/src/mbox.lua
---
---Changes to the upstream project: global mbox table
`,
	},
	{
		File: "md5.lua",
		Prepend: luaModulesNavigationTable + `---
---Corresponding directory in the LuaTeX repository: ` + luatexBlob + `luamd5
---Corresponding file in the LuaTeX repository: ` + luatexBlob + `luamd5/md5lib.c
---
---Changes to the upstream project:
---* local md5 table
---* additional function md5.sumHEXA()

`,
		Append: "\n---\n" +
			"---Compute the MD5 upper case hexadecimal message-digest of the string `message`.\n" +
			"---\n" +
			"---Similar to `md5.sum()`\n" +
			"---but returns its value as a string of 32 hexadecimal digits (upper case letters).\n" +
			"---\n" +
			"---__Example:__\n" +
			"---\n" +
			"---```lua\n" +
			"---local hash = md5.sumHEXA('test')\n" +
			"---assert(hash == '098F6BCD4621D373CADE4E832627B4F6')\n" +
			"---```\n" +
			"---\n" +
			"---@param message string\n" +
			"---\n" +
			"---@return string # for example `098F6BCD4621D373CADE4E832627B4F6`\n" +
			"function md5.sumHEXA(message) end\n",
	},
	{
		File: "mime.lua",
		Prepend: luaModulesNavigationTable + `---
---Corresponding directory in the LuaTeX repository: ` + luatexBlob + `luasocket
---Corresponding file in the LuaTeX repository: ` + luatexBlob + `luasocket/src/mime.lua
---
---Changes to the upstream project: global mime table
`,
	},
	{
		File: "socket.lua",
		Prepend: luaModulesNavigationTable + `---
---Corresponding directory in the LuaTeX repository: ` + luatexBlob + `luasocket
---Corresponding file in the LuaTeX repository: ` + luatexBlob + `luasocket/src/socket.lua
---
---Changes to the upstream project: global socket table
`,
	},
	{
		File: "unicode.lua",
		Prepend: luaModulesNavigationTable + `---
---Corresponding directory in the LuaTeX repository: ` + luatexTree + `slnunicode
---Corresponding file in the LuaTeX repository: ` + luatexBlob + `slnunicode/slnunico.c
---
---` + "`slnunicode`" + `, from the ` + "`selene`" + ` libraries, http://luaforge.net/projects/sln.
---This library has been slightly extended so that the ` + "`unicode.utf8.*`" + `
---functions also accept the first 256 values of plane 18. This is the range
---*LuaTeX* uses for raw binary output, as explained above. We have no plans to
---provide more like this because you can basically do all that you want in
---*Lua*.
---
---Changes to the upstream project: global unicode table
`,
	},
	{
		File: "zip.lua",
		Prepend: luaModulesNavigationTable + `---
---Corresponding directory in the LuaTeX repository: ` + luatexTree + `luazip
---Corresponding file in the LuaTeX repository: ` + luatexBlob + `luazip/src/luazip.c
---
---Changes to the upstream project: global zip table
`,
	},
}
