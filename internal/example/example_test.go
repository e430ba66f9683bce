package example

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "github.com/TeXLuaCATS/manager/internal/errors"
	"github.com/TeXLuaCATS/manager/internal/tools"
)

const sample = `#! luatex --luaonly
require("utils")
--tex: \hbox{x}
local n = node.new("glyph")
print(n.id)
`

func newFile(content string) *File {
	return &File{Path: "examples/node/new.lua", OriginalContent: content}
}

func TestShebang(t *testing.T) {
	f := newFile(sample)
	assert.Equal(t, []string{"luatex", "--luaonly"}, f.Shebang())
	assert.True(t, f.LuaOnly())

	plain := newFile("print(1)\n")
	assert.Nil(t, plain.Shebang())
	assert.False(t, plain.LuaOnly())
	plain.ForceLuaOnly = true
	assert.True(t, plain.LuaOnly())

	assert.Equal(t, "", newFile("").FirstLine())
}

func TestCodeVariants(t *testing.T) {
	f := newFile(sample)
	assert.Equal(t, "require(\"utils\")\nlocal n = node.new(\"glyph\")\nprint(n.id)", f.CleanedLuaCode())
	assert.Equal(t, "local n = node.new(\"glyph\")\nprint(n.id)", f.PureLuaCode())
	assert.Equal(t, "\\hbox{x}", f.TeXMarkup())
}

func TestDocstring(t *testing.T) {
	f := newFile(sample)
	want := "\n---__Example:__\n---\n---```lua\n---local n = node.new(\"glyph\")\n---print(n.id)\n---```\n---"
	assert.Equal(t, want, f.Docstring())
}

func TestScratchFiles(t *testing.T) {
	f := newFile(sample)
	assert.Equal(t, "print('---start---')\nrequire(\"utils\")\nlocal n = node.new(\"glyph\")\nprint(n.id)\nprint('---stop---')", f.LuaScript())
	assert.Equal(t, "\\directlua{dofile('tmp.lua')}\n\\hbox{x}\\bye\n", f.TeXDocument())
}

func TestCommand(t *testing.T) {
	assert.Equal(t, []string{"luatex", "--luaonly", "--halt-on-error", "tmp.lua"}, newFile(sample).Command(true, "tmp.lua"))
	assert.Equal(t, []string{"luatex", "--halt-on-error", "tmp.tex"}, newFile("print(1)").Command(false, "tmp.tex"))
	assert.Equal(t, []string{"luatex", "--luaonly", "--halt-on-error", "tmp.lua"}, newFile("print(1)").Command(true, "tmp.lua"))
}

func TestExtractOutput(t *testing.T) {
	stdout := "This is LuaTeX\n---start---\n7\n---stop---\n(./tmp.tex)"
	assert.Equal(t, "\n7\n", ExtractOutput(stdout))
	assert.Equal(t, "no markers", ExtractOutput("no markers"))
}

type recordingRunner struct {
	args   []string
	dir    string
	result tools.Result
	err    error
}

func (r *recordingRunner) Run(_ context.Context, dir string, args []string) (tools.Result, error) {
	r.dir, r.args = dir, args
	return r.result, r.err
}

func newWorkspace(t *testing.T) Workspace {
	dir := t.TempDir()
	return Workspace{Dir: dir, TmpLua: filepath.Join(dir, "tmp.lua"), TmpTeX: filepath.Join(dir, "tmp.tex")}
}

func TestRun_TeXDocument(t *testing.T) {
	ws := newWorkspace(t)
	runner := &recordingRunner{result: tools.Result{Stdout: "---start---\nok\n---stop---"}}
	var out bytes.Buffer

	require.NoError(t, newFile("print('ok')\n--tex: \\relax").Run(context.Background(), runner, ws, false, &out))

	assert.Equal(t, []string{"luatex", "--halt-on-error", ws.TmpTeX}, runner.args)
	assert.Equal(t, ws.Dir, runner.dir)
	assert.FileExists(t, ws.TmpTeX)
	assert.FileExists(t, ws.TmpLua)
	assert.Contains(t, out.String(), "\nok\n")
}

func TestRun_LuaOnlySkipsTeXFile(t *testing.T) {
	ws := newWorkspace(t)
	runner := &recordingRunner{}
	require.NoError(t, newFile(sample).Run(context.Background(), runner, ws, false, &bytes.Buffer{}))

	assert.NoFileExists(t, ws.TmpTeX)
	assert.Equal(t, ws.TmpLua, runner.args[len(runner.args)-1])
}

func TestRun_Failure(t *testing.T) {
	ws := newWorkspace(t)
	runner := &recordingRunner{err: derrors.ProcessFailed("luatex", os.ErrInvalid)}
	err := newFile(sample).Run(context.Background(), runner, ws, false, &bytes.Buffer{})
	require.Error(t, err)
	me, ok := derrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "examples/node/new.lua", me.Context["example"])
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ex.lua")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))
	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, sample, f.OriginalContent)

	_, err = Load(filepath.Join(t.TempDir(), "missing.lua"))
	assert.True(t, derrors.IsCategory(err, derrors.CategoryFileSystem))
}
