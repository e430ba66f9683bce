package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/TeXLuaCATS/manager/internal/config"
	"github.com/TeXLuaCATS/manager/internal/logfields"
)

// InitCmd writes a starter manager.yaml.
type InitCmd struct {
	Force bool `help:"Overwrite an existing configuration file"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	path := root.Config
	if path == "" {
		path = DefaultConfigFile
	}
	if err := writeStarterConfig(os.Stdout, path, i.Force); err != nil {
		return err
	}
	slog.Debug("Configuration written", logfields.Path(path))
	return nil
}

func writeStarterConfig(w io.Writer, path string, force bool) error {
	if err := config.Init(path, force); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "Wrote %s, edit git.auth and the tool paths before the first sync\n", path)
	return nil
}
