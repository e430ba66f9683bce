// Package example runs the Lua example files of a subproject with a TeX
// engine and renders them as doc comment snippets.
package example

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"slices"
	"strings"

	derrors "github.com/TeXLuaCATS/manager/internal/errors"
	"github.com/TeXLuaCATS/manager/internal/logfields"
	"github.com/TeXLuaCATS/manager/internal/tools"
)

const (
	texMarkupPrefix = "--tex: "
	shebangPrefix   = "#!"
	luaOnlyFlag     = "--luaonly"
	startMarker     = "---start---"
	stopMarker      = "---stop---"
)

var (
	beforeStart = regexp.MustCompile(`(?s)^.*` + startMarker)
	afterStop   = regexp.MustCompile(`(?s)` + stopMarker + `.*$`)
)

// File is a Lua example. A first line starting with `#!` selects the engine
// and its options, lines starting with `--tex: ` hold TeX markup placed
// after the Lua code.
type File struct {
	Path            string
	OriginalContent string
	// ForceLuaOnly runs the example without TeX even without a shebang flag.
	ForceLuaOnly bool
}

// Load reads an example file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- example paths come from the examples folder
	if err != nil {
		return nil, derrors.IOFailed("read", path, err)
	}
	return &File{Path: path, OriginalContent: string(data)}, nil
}

// OrigLines splits the content into lines without terminators.
func (f *File) OrigLines() []string {
	content := strings.TrimSuffix(f.OriginalContent, "\n")
	if content == "" {
		return nil
	}
	return strings.Split(content, "\n")
}

// FirstLine is empty for an empty file.
func (f *File) FirstLine() string {
	lines := f.OrigLines()
	if len(lines) == 0 {
		return ""
	}
	return lines[0]
}

// Shebang returns the whitespace separated words of a `#!` first line, or
// nil.
func (f *File) Shebang() []string {
	first := f.FirstLine()
	if !strings.HasPrefix(first, shebangPrefix) {
		return nil
	}
	return strings.Fields(strings.ReplaceAll(first, shebangPrefix, ""))
}

// LuaOnly reports whether the example runs without a TeX document.
func (f *File) LuaOnly() bool {
	return f.ForceLuaOnly || slices.Contains(f.Shebang(), luaOnlyFlag)
}

// CleanedLuaCode is the code without shebang and TeX markup.
func (f *File) CleanedLuaCode() string {
	var cleaned []string
	for _, line := range f.OrigLines() {
		if !strings.HasPrefix(line, texMarkupPrefix) && !strings.HasPrefix(line, shebangPrefix) {
			cleaned = append(cleaned, line)
		}
	}
	return strings.TrimSpace(strings.Join(cleaned, "\n"))
}

// PureLuaCode is the cleaned code without the `require("utils")` helper
// import.
func (f *File) PureLuaCode() string {
	var pure []string
	for _, line := range strings.Split(f.CleanedLuaCode(), "\n") {
		if !strings.Contains(line, `require("utils")`) {
			pure = append(pure, line)
		}
	}
	return strings.TrimSpace(strings.Join(pure, "\n"))
}

// TeXMarkup joins the `--tex: ` lines without their prefix.
func (f *File) TeXMarkup() string {
	var markup []string
	for _, line := range f.OrigLines() {
		if rest, ok := strings.CutPrefix(line, texMarkupPrefix); ok {
			markup = append(markup, rest)
		}
	}
	return strings.Join(markup, "\n")
}

// Docstring renders the pure code as an example block of a doc comment.
func (f *File) Docstring() string {
	lines := []string{"", "---__Example:__", "---", "---```lua"}
	for _, line := range strings.Split(f.PureLuaCode(), "\n") {
		lines = append(lines, "---"+line)
	}
	lines = append(lines, "---```", "---")
	return strings.Join(lines, "\n")
}

// LuaScript wraps the cleaned code in the output markers.
func (f *File) LuaScript() string {
	return "print('" + startMarker + "')\n" + f.CleanedLuaCode() + "\nprint('" + stopMarker + "')"
}

// TeXDocument loads the Lua script and appends the TeX markup.
func (f *File) TeXDocument() string {
	return "\\directlua{dofile('tmp.lua')}\n" + f.TeXMarkup() + "\\bye\n"
}

// Command returns the engine invocation for the given file to run.
func (f *File) Command(luaOnly bool, fileToRun string) []string {
	args := slices.Clone(f.Shebang())
	if len(args) == 0 {
		args = []string{"luatex"}
	}
	if luaOnly && !slices.Contains(args, luaOnlyFlag) {
		args = append(args, luaOnlyFlag)
	}
	return append(args, "--halt-on-error", fileToRun)
}

// ExtractOutput returns what the example printed between the markers.
func ExtractOutput(stdout string) string {
	return afterStop.ReplaceAllString(beforeStart.ReplaceAllString(stdout, ""), "")
}

// Workspace names the scratch files examples are written to.
type Workspace struct {
	Dir    string
	TmpLua string
	TmpTeX string
}

// Run writes the scratch files, executes the example in the workspace
// directory and prints its output to w. luaOnly forces a Lua-only run.
func (f *File) Run(ctx context.Context, runner tools.LuaRunner, ws Workspace, luaOnly bool, w io.Writer) error {
	luaOnly = f.LuaOnly() || luaOnly
	slog.Info("Run example", logfields.Path(f.Path))
	_, _ = fmt.Fprintf(w, "Run examples file %s\n", f.Path)

	if !luaOnly {
		if err := os.WriteFile(ws.TmpTeX, []byte(f.TeXDocument()), 0o600); err != nil {
			return derrors.IOFailed("write", ws.TmpTeX, err)
		}
	}
	if err := os.WriteFile(ws.TmpLua, []byte(f.LuaScript()), 0o600); err != nil {
		return derrors.IOFailed("write", ws.TmpLua, err)
	}

	fileToRun := ws.TmpTeX
	if luaOnly {
		fileToRun = ws.TmpLua
	}
	result, err := runner.Run(ctx, ws.Dir, f.Command(luaOnly, fileToRun))
	_, _ = fmt.Fprintln(w, ExtractOutput(result.Stdout))
	if err != nil {
		if me, ok := derrors.As(err); ok {
			return me.WithContext("example", f.Path)
		}
		return err
	}
	return nil
}
