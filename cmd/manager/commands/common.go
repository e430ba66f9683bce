package commands

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/TeXLuaCATS/manager/internal/config"
	derrors "github.com/TeXLuaCATS/manager/internal/errors"
)

// DefaultConfigFile is loaded when present and no --config was given.
const DefaultConfigFile = "manager.yaml"

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
	Ctx    context.Context
}

func (g *Global) context() context.Context {
	if g == nil || g.Ctx == nil {
		return context.Background()
	}
	return g.Ctx
}

// CLI definition & global flags.
type CLI struct {
	Config      string           `short:"c" help:"Configuration file path (optional)"`
	Debug       bool             `short:"d" help:"Enable debug logging and buffer diffs"`
	BasePath    string           `short:"b" name:"base-path" help:"Parent directory of the meta repository checkout"`
	Subproject  string           `short:"s" help:"Subproject to operate on"`
	LuaLaTeX    bool             `name:"lualatex" help:"Select the LuaLaTeX subproject"`
	Lualibs     bool             `name:"lualibs" help:"Select the lualibs subproject"`
	LuaMetaTeX  bool             `name:"luametatex" help:"Select the LuaMetaTeX subproject"`
	Luaotfload  bool             `name:"luaotfload" help:"Select the luaotfload subproject"`
	LuaTeX      bool             `name:"luatex" help:"Select the LuaTeX subproject"`
	MetricsFile string           `name:"metrics-file" help:"Write Prometheus metrics to this file after every run"`
	Version     kong.VersionFlag `name:"version" help:"Show version and exit"`

	Init                InitCmd                `cmd:"" help:"Write an example configuration file"`
	Example             ExampleCmd             `cmd:"" help:"Run the examples of the selected subproject"`
	ExternalDefinitions ExternalDefinitionsCmd `cmd:"" name:"external-definitions" help:"Sync the external definition files"`
	Format              FormatCmd              `cmd:"" help:"Clean and format the library files"`
	Manuals             ManualsCmd             `cmd:"" help:"Download the manuals and convert them to Lua"`
	Merge               MergeCmd               `cmd:"" help:"Merge the distributed library into one file"`
	Dist                DistCmd                `cmd:"" help:"Distribute the libraries to the downstream repositories"`
	Rewrap              RewrapCmd              `cmd:"" help:"Rewrap the comments of one file"`
	Submodule           SubmoduleCmd           `cmd:"" help:"Pull the subproject repositories from their remotes"`
	Docs                DocsCmd                `cmd:"" help:"Generate the HTML documentation"`
	Package             PackageCmd             `cmd:"" help:"Write a zip archive of the distributed library"`
	Convert             ConvertCmd             `cmd:"" help:"Convert a TeX or HTML manual to Lua"`
	Navigation          NavigationCmd          `cmd:"" help:"Create a navigation table from a Lua file"`
	Links               LinksCmd               `cmd:"" help:"List or convert the source code links of a file"`
	Watch               WatchCmd               `cmd:"" help:"Format library files whenever they change"`
	Schedule            ScheduleCmd            `cmd:"" help:"Run commands periodically"`
	History             HistoryCmd             `cmd:"" help:"Show the recorded runs"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	setupLogging(c.Debug)
	return nil
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// Selection returns the subproject chosen by --subproject or one of the
// shortcut flags. Choosing more than one is a configuration error.
func (c *CLI) Selection() (string, error) {
	var selected []string
	if c.Subproject != "" {
		selected = append(selected, strings.ToLower(c.Subproject))
	}
	for _, shortcut := range []struct {
		name string
		on   bool
	}{
		{"lualatex", c.LuaLaTeX},
		{"lualibs", c.Lualibs},
		{"luametatex", c.LuaMetaTeX},
		{"luaotfload", c.Luaotfload},
		{"luatex", c.LuaTeX},
	} {
		if shortcut.on {
			selected = append(selected, shortcut.name)
		}
	}
	switch len(selected) {
	case 0:
		return "", nil
	case 1:
		return selected[0], nil
	default:
		return "", derrors.ConfigConflict("one subproject", "none, not "+strings.Join(selected, " and "))
	}
}

// LoadConfig reads the configuration file and applies the flag overrides.
// Without --config the default file is used when it exists.
func (c *CLI) LoadConfig() (*config.Config, error) {
	path := c.Config
	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		}
	}

	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if c.BasePath != "" {
		abs, err := filepath.Abs(c.BasePath)
		if err != nil {
			return nil, derrors.IOFailed("resolve", c.BasePath, err)
		}
		cfg.BasePath = abs
	}
	selection, err := c.Selection()
	if err != nil {
		return nil, err
	}
	if selection != "" {
		cfg.Subproject = selection
	}
	if c.MetricsFile != "" {
		cfg.Metrics.File = c.MetricsFile
	}
	if cfg.Debug && !c.Debug {
		setupLogging(true)
	}
	return cfg, nil
}
