package commands

import (
	"context"
	"fmt"

	"github.com/TeXLuaCATS/manager/internal/subproject"
)

func syncExternalDefinitions(ctx context.Context, s *subproject.Subproject) error {
	return s.SyncExternalDefinitions(ctx)
}

func formatStep(rewrap bool) Step {
	return func(ctx context.Context, s *subproject.Subproject) error {
		return s.Format(ctx, rewrap)
	}
}

func downloadManuals(ctx context.Context, s *subproject.Subproject) error {
	return s.DownloadManuals(ctx)
}

func merge(_ context.Context, s *subproject.Subproject) error {
	return s.Merge()
}

func syncFromRemote(ctx context.Context, s *subproject.Subproject) error {
	return s.SyncFromRemote(ctx)
}

func compileDoc(ctx context.Context, s *subproject.Subproject) error {
	return s.CompileDoc(ctx)
}

func packageLibrary(ctx context.Context, s *subproject.Subproject) error {
	if err := s.Distribute(ctx, false); err != nil {
		return err
	}
	archive, err := s.Package()
	if err != nil {
		return err
	}
	fmt.Println(archive)
	return nil
}

// distribute distributes the selected subprojects and refreshes the editor
// extension with the TeX subprojects among them.
func distribute(ctx context.Context, rt *Runtime, sync bool) error {
	projects, err := rt.Registry.Selected(rt.Selection())
	if err != nil {
		return err
	}
	tex, err := rt.Registry.TeXProjects(rt.Selection())
	if err != nil {
		return err
	}
	return rt.Execute(ctx, "dist", projects, func(ctx context.Context) error {
		for _, s := range projects {
			if err := s.Distribute(ctx, sync); err != nil {
				return err
			}
		}
		return subproject.SyncExtension(ctx, rt.Env, tex, sync)
	})
}

// forEach runs step over the selection with a runtime of its own.
func forEach(g *Global, root *CLI, command string, step Step) error {
	return withRuntime(root, func(rt *Runtime) error {
		return rt.RunEach(g.context(), command, step)
	})
}

// ExampleCmd implements the 'example' command.
type ExampleCmd struct {
	RelPath        string `arg:"" optional:"" name:"relpath" help:"Example file relative to the examples folder"`
	LuaOnly        bool   `short:"l" name:"luaonly" aliases:"run-luaonly" help:"Run without the TeX related libraries"`
	PrintDocstring bool   `name:"print-docstring" help:"Print the Lua code as a fenced Markdown docstring"`
}

func (e *ExampleCmd) Run(g *Global, root *CLI) error {
	return withRuntime(root, func(rt *Runtime) error {
		s, err := rt.Registry.CurrentDefault(rt.Selection())
		if err != nil {
			return err
		}
		opts := subproject.ExampleOptions{LuaOnly: e.LuaOnly, PrintDocstring: e.PrintDocstring}
		return rt.Execute(g.context(), "example", []*subproject.Subproject{s}, func(ctx context.Context) error {
			return s.RunExamples(ctx, e.RelPath, opts)
		})
	})
}

// ExternalDefinitionsCmd implements the 'external-definitions' command.
type ExternalDefinitionsCmd struct{}

func (ExternalDefinitionsCmd) Run(g *Global, root *CLI) error {
	return forEach(g, root, "external-definitions", syncExternalDefinitions)
}

// FormatCmd implements the 'format' command.
type FormatCmd struct {
	Rewrap bool `help:"Rewrap the docstrings"`
}

func (f *FormatCmd) Run(g *Global, root *CLI) error {
	return forEach(g, root, "format", formatStep(f.Rewrap))
}

// ManualsCmd implements the 'manuals' command.
type ManualsCmd struct{}

func (ManualsCmd) Run(g *Global, root *CLI) error {
	return forEach(g, root, "manuals", downloadManuals)
}

// MergeCmd implements the 'merge' command.
type MergeCmd struct{}

func (MergeCmd) Run(g *Global, root *CLI) error {
	return forEach(g, root, "merge", merge)
}

// DistCmd implements the 'dist' command.
type DistCmd struct {
	NoSync bool `name:"no-sync" help:"Do not commit and sync to the remote"`
}

func (d *DistCmd) Run(g *Global, root *CLI) error {
	return withRuntime(root, func(rt *Runtime) error {
		return distribute(g.context(), rt, !d.NoSync)
	})
}

// SubmoduleCmd implements the 'submodule' command.
type SubmoduleCmd struct{}

func (SubmoduleCmd) Run(g *Global, root *CLI) error {
	return forEach(g, root, "submodule", syncFromRemote)
}

// DocsCmd implements the 'docs' command.
type DocsCmd struct{}

func (DocsCmd) Run(g *Global, root *CLI) error {
	return forEach(g, root, "docs", compileDoc)
}

// PackageCmd implements the 'package' command.
type PackageCmd struct{}

func (PackageCmd) Run(g *Global, root *CLI) error {
	return forEach(g, root, "package", packageLibrary)
}
