package subproject

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	derrors "github.com/TeXLuaCATS/manager/internal/errors"
	"github.com/TeXLuaCATS/manager/internal/example"
	"github.com/TeXLuaCATS/manager/internal/folder"
	"github.com/TeXLuaCATS/manager/internal/logfields"
	"github.com/TeXLuaCATS/manager/internal/textfile"
	"github.com/TeXLuaCATS/manager/internal/tools"
	"github.com/TeXLuaCATS/manager/internal/transform"
)

// Stage names reported to the observer.
const (
	StageFormat              = "format"
	StageDistribute          = "distribute"
	StageMerge               = "merge"
	StageManuals             = "manuals"
	StageExternalDefinitions = "external_definitions"
	StageExamples            = "examples"
	StageSync                = "sync"
	StageDocs                = "docs"
	StagePackage             = "package"
)

var remoteSource = regexp.MustCompile(`(?i)^https?://`)

// stage runs fn and reports its duration and outcome.
func (s *Subproject) stage(name string, fn func() error) error {
	start := time.Now()
	slog.Debug("Stage started", logfields.Subproject(s.Name), logfields.Stage(name))
	err := fn()
	d := time.Since(start)
	if s.env.Observer != nil {
		s.env.Observer.ObserveStage(s.Name, name, d, err)
	}
	if err != nil {
		slog.Error("Stage failed", logfields.Subproject(s.Name), logfields.Stage(name), logfields.Error(err))
		return err
	}
	slog.Info("Stage finished", logfields.Subproject(s.Name), logfields.Stage(name), logfields.Duration(d))
	return nil
}

// Format cleans the docstrings of the library, optionally rewraps them and
// runs the formatter. The downstream library is formatted the same way.
func (s *Subproject) Format(ctx context.Context, rewrap bool) error {
	return s.stage(StageFormat, func() error {
		if err := s.formatFolder(ctx, s.Library(), rewrap); err != nil {
			return err
		}
		if downstream := s.DownstreamLibrary(); downstream != nil {
			return s.formatFolder(ctx, downstream, rewrap)
		}
		return nil
	})
}

func (s *Subproject) formatFolder(ctx context.Context, dir *folder.Folder, rewrap bool) error {
	for file, err := range dir.List(folder.DefaultExtension) {
		if err != nil {
			return err
		}
		if _, err := file.CleanDocstrings(true); err != nil {
			return err
		}
		if rewrap {
			if err := RewrapFile(ctx, file, s.env.Highlighter, s.env); err != nil {
				return err
			}
		}
	}
	if err := s.env.Formatter.Format(ctx, dir.Path); err != nil {
		return err
	}
	return nil
}

// RewrapFile rewraps and saves file and previews the result when the
// content changed.
func RewrapFile(ctx context.Context, file *textfile.File, highlighter tools.Highlighter, env *Env) error {
	before := file.Content
	after, err := file.Rewrap(true)
	if err != nil {
		return err
	}
	if highlighter != nil && after != before {
		tools.Preview(ctx, highlighter, env.out(), after)
	}
	return nil
}

// Distribute copies the library to the dist directory, strips the
// navigation tables, cleans the docstrings and renders the templates. TeX
// subprojects copy the result to the downstream repository and, with sync,
// push it. The merged definitions are written last.
func (s *Subproject) Distribute(ctx context.Context, sync bool) error {
	return s.stage(StageDistribute, func() error {
		dist := s.DistLibrary()
		if err := s.Library().Copy(dist.Path, true); err != nil {
			return err
		}
		for file, err := range dist.List(folder.DefaultExtension) {
			if err != nil {
				return err
			}
			if _, err := file.Apply(transform.DistributeChain, true); err != nil {
				return err
			}
			if _, err := file.RenderTemplates(s.Repo(), s.env.Commits, true); err != nil {
				return err
			}
		}

		if downstream := s.DownstreamRepo(); downstream != nil {
			if err := dist.Copy(filepath.Join(downstream.Path, "library"), true); err != nil {
				return err
			}
			if sync {
				if err := s.syncDownstream(ctx); err != nil {
					return err
				}
			}
		}
		return s.Merge()
	})
}

func (s *Subproject) syncDownstream(ctx context.Context) error {
	committed, err := s.Repo().IsCommitted()
	if err != nil {
		return err
	}
	if !committed {
		return derrors.Uncommitted(s.Base())
	}
	url, err := s.Repo().LatestCommitURL()
	if err != nil {
		return err
	}
	return s.DownstreamRepo().SyncToRemote(ctx, "Sync with "+url, "")
}

// Merge concatenates the distributed files into one definition file with a
// single copyright header and a single `---@meta` annotation.
func (s *Subproject) Merge() error {
	return s.stage(StageMerge, func() error {
		contents := []string{CopyrightNotice(s.env.now().Year()), "---@meta\n"}
		for file, err := range s.DistLibrary().List(folder.DefaultExtension) {
			if err != nil {
				return err
			}
			contents = append(contents, transform.MergeChain.Apply(file.Content))
		}
		content := strings.Join(contents, "\n")
		content = strings.ReplaceAll(content, "\n\n---\n\n", "")

		merged, err := textfile.Load(s.MergedDefinitionsPath())
		if err != nil {
			return err
		}
		if err := merged.Write(content); err != nil {
			return err
		}
		_, err = merged.CleanDocstrings(true)
		return err
	})
}

// DownloadManuals fetches the manual sources and converts TeX and HTML
// sources to Lua comments stored next to them as `<dest>.lua`.
func (s *Subproject) DownloadManuals(ctx context.Context) error {
	if len(s.Manuals) == 0 || s.ManualsBaseURL == "" {
		return nil
	}
	return s.stage(StageManuals, func() error {
		dir := s.ManualsFolder().Path
		for _, m := range s.Manuals {
			if m.Dest == "" {
				continue
			}
			if err := s.downloadManual(ctx, dir, m); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Subproject) downloadManual(ctx context.Context, dir string, m Manual) error {
	dest := filepath.Join(dir, m.Dest)
	url := strings.TrimSuffix(s.ManualsBaseURL, "/") + "/" + m.Source
	if err := s.env.Fetcher.Download(ctx, url, dest); err != nil {
		return err
	}
	source, err := textfile.Load(dest)
	if err != nil {
		return err
	}

	var converted string
	switch filepath.Ext(dest) {
	case ".tex":
		converted = transform.ConvertTeXToLua(source.Content)
	case ".html":
		converted = transform.ConvertHTMLToLua(source.Content)
	default:
		return nil
	}
	luaFile, err := textfile.Load(dest + ".lua")
	if err != nil {
		return err
	}
	return luaFile.Write(converted)
}

// SyncExternalDefinitions downloads or copies definitions of other
// projects into the library and turns their local tables into globals.
func (s *Subproject) SyncExternalDefinitions(ctx context.Context) error {
	if len(s.ExternalDefinitions) == 0 {
		return nil
	}
	return s.stage(StageExternalDefinitions, func() error {
		for _, def := range s.ExternalDefinitions {
			if err := s.syncExternalDefinition(ctx, def); err != nil {
				return err
			}
		}
		return s.ApplyExternalHeaders()
	})
}

func (s *Subproject) syncExternalDefinition(ctx context.Context, def ExternalDefinition) error {
	dest := filepath.Join(s.Library().Path, def.Dest)
	if remoteSource.MatchString(def.Source) {
		if err := s.env.Fetcher.Download(ctx, def.Source, dest); err != nil {
			return err
		}
	} else {
		src := s.env.Layout.Resolve(def.Source)
		data, err := os.ReadFile(src) // #nosec G304 -- sources are part of the registry
		if err != nil {
			return derrors.IOFailed("read", src, err)
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return derrors.IOFailed("create directory", filepath.Dir(dest), err)
		}
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return derrors.IOFailed("write", dest, err)
		}
	}

	file, err := textfile.Load(dest)
	if err != nil {
		return err
	}
	_, err = file.Apply(transform.ExternalDefinitionChain, true)
	return err
}

// ExampleOptions control how examples are run.
type ExampleOptions struct {
	// LuaOnly runs every example without the TeX libraries.
	LuaOnly bool
	// PrintDocstring prints each example as a doc comment before it runs.
	PrintDocstring bool
}

// RunExamples runs the examples below rel, or all examples when rel is
// empty.
func (s *Subproject) RunExamples(ctx context.Context, rel string, opts ExampleOptions) error {
	examples := s.Examples()
	if examples == nil {
		return derrors.ValidationFailed("examples", fmt.Sprintf("the subproject %s has no examples folder", s.Name))
	}
	return s.stage(StageExamples, func() error {
		paths, err := examples.ListPaths(rel, folder.DefaultExtension)
		if err != nil {
			return err
		}
		for _, path := range paths {
			file, err := example.Load(path)
			if err != nil {
				return err
			}
			if opts.PrintDocstring {
				_, _ = fmt.Fprintln(s.env.out(), file.Docstring())
			}
			if err := file.Run(ctx, s.env.Runner, s.Workspace(), opts.LuaOnly, s.env.out()); err != nil {
				return err
			}
		}
		return nil
	})
}

// Workspace is where examples write their scratch files.
func (s *Subproject) Workspace() example.Workspace {
	l := s.env.Layout
	return example.Workspace{Dir: l.Base, TmpLua: l.TmpLua(), TmpTeX: l.TmpTeX()}
}

// SyncFromRemote resets the main and the downstream repository and pulls
// from their remotes.
func (s *Subproject) SyncFromRemote(ctx context.Context) error {
	return s.stage(StageSync, func() error {
		if err := s.Repo().SyncFromRemote(ctx, ""); err != nil {
			return err
		}
		if downstream := s.DownstreamRepo(); downstream != nil {
			return downstream.SyncFromRemote(ctx, "")
		}
		return nil
	})
}
