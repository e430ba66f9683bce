// Package subproject sequences the transformation passes over the
// libraries of the TeXLuaCATS subprojects.
package subproject

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/TeXLuaCATS/manager/internal/config"
	"github.com/TeXLuaCATS/manager/internal/folder"
	"github.com/TeXLuaCATS/manager/internal/repository"
	"github.com/TeXLuaCATS/manager/internal/templating"
	"github.com/TeXLuaCATS/manager/internal/textfile"
	"github.com/TeXLuaCATS/manager/internal/tools"
)

// MergedDefinitionsFilename is the name of the merged artifact in the dist
// directory.
const MergedDefinitionsFilename = "merged_definitions.lua"

// Fetcher downloads remote files.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
	Download(ctx context.Context, url, dest string) error
}

// StageObserver is notified about every finished stage of a subproject.
type StageObserver interface {
	ObserveStage(subproject, stage string, d time.Duration, err error)
}

// Env bundles the collaborators shared by every subproject.
type Env struct {
	Layout      config.Layout
	Fetcher     Fetcher
	Formatter   tools.Formatter
	Highlighter tools.Highlighter
	Docs        tools.DocGenerator
	Runner      tools.LuaRunner
	RepoOptions repository.Options
	Commits     templating.CommitTable
	Observer    StageObserver
	// Out receives previews and example output.
	Out io.Writer
	// Now is used for the copyright year.
	Now func() time.Time
}

func (e *Env) out() io.Writer {
	if e.Out == nil {
		return os.Stdout
	}
	return e.Out
}

func (e *Env) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// Kind tags the two subproject variants.
type Kind int

const (
	// KindLibrary is a plain Lua library below LuaCATS/upstream.
	KindLibrary Kind = iota
	// KindTeX is a TeX engine or package below TeXLuaCATS with an optional
	// downstream repository.
	KindTeX
)

func (k Kind) String() string {
	if k == KindTeX {
		return "tex"
	}
	return "library"
}

// Variant holds the behavior that differs between library and TeX
// subprojects.
type Variant interface {
	Kind() Kind
	Base(l config.Layout, name string) string
	// Downstream returns the downstream checkout or "" when there is none.
	Downstream(l config.Layout, name string) string
}

type libraryVariant struct{}

func (libraryVariant) Kind() Kind { return KindLibrary }

func (libraryVariant) Base(l config.Layout, name string) string { return l.LibraryBase(name) }

func (libraryVariant) Downstream(config.Layout, string) string { return "" }

type texVariant struct{}

func (texVariant) Kind() Kind { return KindTeX }

func (texVariant) Base(l config.Layout, name string) string { return l.TeXBase(name) }

func (texVariant) Downstream(l config.Layout, name string) string {
	path := l.Downstream(name)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// Manual maps a source file of a manual to its local name. An empty Dest
// skips the source.
type Manual struct {
	Source string
	Dest   string
}

// ExternalDefinition maps a source to a file of the library folder. Source
// is an http(s) URL or a path relative to the base path.
type ExternalDefinition struct {
	Source string
	Dest   string
}

// Definition is the static description of a subproject.
type Definition struct {
	Name                string
	Kind                Kind
	Manuals             []Manual
	ManualsBaseURL      string
	ExternalDefinitions []ExternalDefinition
	// ExternalHeaders adapt the synced external definitions.
	ExternalHeaders []HeaderEdit
}

// Subproject is a definition bound to an environment.
type Subproject struct {
	Definition
	variant Variant
	env     *Env

	repo           func() *repository.Repository
	downstreamRepo func() *repository.Repository
}

// New binds def to env and selects the variant of def.Kind.
func New(def Definition, env *Env) *Subproject {
	var variant Variant = libraryVariant{}
	if def.Kind == KindTeX {
		variant = texVariant{}
	}
	s := &Subproject{Definition: def, variant: variant, env: env}
	s.repo = sync.OnceValue(func() *repository.Repository {
		return repository.Open(s.Base(), env.RepoOptions)
	})
	s.downstreamRepo = sync.OnceValue(func() *repository.Repository {
		path := variant.Downstream(env.Layout, def.Name)
		if path == "" {
			return nil
		}
		return repository.Open(path, env.RepoOptions)
	})
	return s
}

// LowercaseName is the registry key, for example luatex.
func (s *Subproject) LowercaseName() string { return strings.ToLower(s.Name) }

// Variant returns the variant selected at construction.
func (s *Subproject) Variant() Variant { return s.variant }

// IsTeX reports whether the subproject is a TeX subproject.
func (s *Subproject) IsTeX() bool { return s.variant.Kind() == KindTeX }

// Base is the checkout of the main repository.
func (s *Subproject) Base() string { return s.variant.Base(s.env.Layout, s.Name) }

// Library is the folder of the type definitions.
func (s *Subproject) Library() *folder.Folder { return folder.New(filepath.Join(s.Base(), "library")) }

// Examples returns the examples folder or nil when there is none.
func (s *Subproject) Examples() *folder.Folder {
	path := filepath.Join(s.Base(), "examples")
	if info, err := os.Stat(path); err != nil || !info.IsDir() {
		return nil
	}
	return folder.New(path)
}

// Dist is the staging directory, for example dist/LuaTeX.
func (s *Subproject) Dist() string { return s.env.Layout.Dist(s.Name) }

// DistLibrary is the library folder of the staging directory.
func (s *Subproject) DistLibrary() *folder.Folder {
	return folder.New(filepath.Join(s.Dist(), "library"))
}

// MergedDefinitionsPath is the path of the merged artifact.
func (s *Subproject) MergedDefinitionsPath() string {
	return filepath.Join(s.Dist(), MergedDefinitionsFilename)
}

// Repo is the main repository.
func (s *Subproject) Repo() *repository.Repository { return s.repo() }

// DownstreamRepo returns the downstream repository or nil.
func (s *Subproject) DownstreamRepo() *repository.Repository { return s.downstreamRepo() }

// DownstreamLibrary returns the library folder of the downstream
// repository or nil.
func (s *Subproject) DownstreamLibrary() *folder.Folder {
	repo := s.DownstreamRepo()
	if repo == nil {
		return nil
	}
	return folder.New(filepath.Join(repo.Path, "library"))
}

// ManualsFolder is the directory manuals are downloaded to.
func (s *Subproject) ManualsFolder() *folder.Folder {
	return folder.New(filepath.Join(s.Base(), "resources", "manual"))
}

// Get loads a file relative to the main repository, creating it when
// missing.
func (s *Subproject) Get(rel string) (*textfile.File, error) {
	return textfile.Load(filepath.Join(s.Base(), rel))
}

// Observers fans stage reports out to several observers.
type Observers []StageObserver

func (o Observers) ObserveStage(subproject, stage string, d time.Duration, err error) {
	for _, observer := range o {
		if observer != nil {
			observer.ObserveStage(subproject, stage, d, err)
		}
	}
}
