package commands

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/TeXLuaCATS/manager/internal/daemon"
	derrors "github.com/TeXLuaCATS/manager/internal/errors"
	"github.com/TeXLuaCATS/manager/internal/logfields"
	"github.com/TeXLuaCATS/manager/internal/subproject"
	"github.com/TeXLuaCATS/manager/internal/textfile"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Rewrap   bool          `help:"Rewrap the docstrings of changed files"`
	Debounce time.Duration `help:"Quiet period before changed files are processed" default:"500ms"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	return withRuntime(root, func(rt *Runtime) error {
		projects, err := rt.Registry.Selected(rt.Selection())
		if err != nil {
			return err
		}
		roots := make([]string, 0, len(projects))
		for _, s := range projects {
			if dir := s.Library().Path; isDirectory(dir) {
				roots = append(roots, dir)
			}
		}

		formatter := newChangeFormatter(rt.Env, w.Rewrap)
		watcher, err := daemon.NewLibraryWatcher(roots, ".lua", w.Debounce, func(ctx context.Context, paths []string) {
			_ = rt.Execute(ctx, "watch", projects, func(ctx context.Context) error {
				return formatter.Handle(ctx, paths)
			})
		})
		if err != nil {
			return err
		}
		slog.Info("Watching libraries", logfields.Count(len(roots)))
		return watcher.Run(g.context())
	})
}

// changeFormatter cleans, optionally rewraps and formats changed library
// files. Files whose content matches what it wrote last are skipped, so
// its own writes do not trigger another round.
type changeFormatter struct {
	env    *subproject.Env
	rewrap bool

	mu      sync.Mutex
	written map[string]string
}

func newChangeFormatter(env *subproject.Env, rewrap bool) *changeFormatter {
	return &changeFormatter{env: env, rewrap: rewrap, written: make(map[string]string)}
}

// Handle processes paths and returns the first error. Later files are
// still processed.
func (c *changeFormatter) Handle(ctx context.Context, paths []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var first error
	for _, path := range paths {
		if err := c.handleFile(ctx, path); err != nil {
			slog.Error("Unable to format changed file", logfields.Path(path), logfields.Error(err))
			if first == nil {
				first = err
			}
		}
	}
	return first
}

func (c *changeFormatter) handleFile(ctx context.Context, path string) error {
	if !isFile(path) {
		return nil
	}
	file, err := textfile.Load(path)
	if err != nil {
		return err
	}
	if last, ok := c.written[path]; ok && last == file.Content {
		slog.Debug("Skipping unchanged file", logfields.Path(path))
		return nil
	}

	if _, err := file.CleanDocstrings(true); err != nil {
		return err
	}
	if c.rewrap {
		if err := subproject.RewrapFile(ctx, file, c.env.Highlighter, c.env); err != nil {
			return err
		}
	}
	if c.env.Formatter != nil {
		if err := c.env.Formatter.Format(ctx, path); err != nil {
			return err
		}
	}

	formatted, err := os.ReadFile(path) // #nosec G304 -- path below a watched library
	if err != nil {
		return derrors.IOFailed("read", path, err)
	}
	c.written[path] = string(formatted)
	slog.Info("Formatted changed file", logfields.Path(path))
	return nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func isDirectory(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
