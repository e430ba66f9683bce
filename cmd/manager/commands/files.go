package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	derrors "github.com/TeXLuaCATS/manager/internal/errors"
	"github.com/TeXLuaCATS/manager/internal/linkref"
	"github.com/TeXLuaCATS/manager/internal/subproject"
	"github.com/TeXLuaCATS/manager/internal/textfile"
	"github.com/TeXLuaCATS/manager/internal/tools"
)

func loadFile(path string) (*textfile.File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, derrors.IOFailed("resolve", path, err)
	}
	return textfile.Load(abs)
}

// RewrapCmd implements the 'rewrap' command.
type RewrapCmd struct {
	Path string `arg:"" help:"Lua file to rewrap" type:"path"`
}

func (r *RewrapCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	file, err := loadFile(r.Path)
	if err != nil {
		return err
	}
	env := &subproject.Env{Out: os.Stdout}
	return subproject.RewrapFile(g.context(), file, tools.Pygmentize{Binary: cfg.Tools.Pygmentize}, env)
}

// ConvertCmd implements the 'convert' command.
type ConvertCmd struct {
	Path string `arg:"" help:"TeX or HTML manual to convert" type:"existingfile"`
}

func (c *ConvertCmd) Run(_ *Global, _ *CLI) error {
	dest, err := ConvertManual(c.Path)
	if err != nil {
		return err
	}
	fmt.Printf("Converted %s to %s\n", c.Path, dest)
	return nil
}

// ConvertManual converts a .tex or .html file into a Lua comment file
// next to it and returns the path of the written file.
func ConvertManual(path string) (string, error) {
	file, err := loadFile(path)
	if err != nil {
		return "", err
	}
	src := file.Path
	file.Path += ".lua"

	switch strings.ToLower(filepath.Ext(src)) {
	case ".tex":
		_, err = file.ConvertTeXToLua(true)
	case ".html", ".htm":
		_, err = file.ConvertHTMLToLua(true)
	default:
		return "", derrors.ValidationFailed("path", "expected a .tex or .html file")
	}
	if err != nil {
		return "", err
	}
	return file.Path, nil
}

// NavigationCmd implements the 'navigation' command.
type NavigationCmd struct {
	Path string `arg:"" help:"Lua file holding the outline" type:"existingfile"`
}

func (n *NavigationCmd) Run(_ *Global, _ *CLI) error {
	file, err := loadFile(n.Path)
	if err != nil {
		return err
	}
	return file.CreateNavigationTable()
}

// LinksCmd implements the 'links' command.
type LinksCmd struct {
	Path string `arg:"" help:"Lua file to inspect" type:"existingfile"`
	Save bool   `help:"Replace the links with template expressions"`
}

func (l *LinksCmd) Run(_ *Global, _ *CLI) error {
	file, err := loadFile(l.Path)
	if err != nil {
		return err
	}
	if l.Save {
		_, err := file.ConvertLinksToTemplates(true)
		return err
	}
	return PrintLinks(os.Stdout, file.Content)
}

// PrintLinks lists the source code references found in content, one per
// line.
func PrintLinks(w io.Writer, content string) error {
	for _, ref := range linkref.Extract(content) {
		lines := fmt.Sprintf("L%d", ref.StartLine)
		if ref.EndLine > 0 {
			lines += fmt.Sprintf("-%d", ref.EndLine)
		}
		if _, err := fmt.Fprintf(w, "%s %s#%s %s\n", ref.ShortCommit(), ref.RelPath, lines, ref.Text); err != nil {
			return err
		}
	}
	return nil
}
