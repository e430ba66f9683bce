package commands

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"os"
	"sync"
	"time"

	"github.com/TeXLuaCATS/manager/internal/auth"
	"github.com/TeXLuaCATS/manager/internal/config"
	"github.com/TeXLuaCATS/manager/internal/eventstore"
	"github.com/TeXLuaCATS/manager/internal/fetch"
	"github.com/TeXLuaCATS/manager/internal/logfields"
	"github.com/TeXLuaCATS/manager/internal/metrics"
	"github.com/TeXLuaCATS/manager/internal/repository"
	"github.com/TeXLuaCATS/manager/internal/subproject"
	"github.com/TeXLuaCATS/manager/internal/templating"
	"github.com/TeXLuaCATS/manager/internal/tools"
)

// Runtime is the state shared by the commands of one invocation.
type Runtime struct {
	Config   *config.Config
	Env      *subproject.Env
	Registry *subproject.Registry

	// runMu serializes runs; each run owns Env.Observer while it executes.
	runMu     sync.Mutex
	recorder  *metrics.PrometheusRecorder
	store     *eventstore.SQLiteStore
	publisher *eventstore.NATSPublisher
}

// NewRuntime binds the subprojects to the tools and credentials of cfg and
// opens the optional event store, event publisher and metrics recorder.
func NewRuntime(cfg *config.Config) (*Runtime, error) {
	env, err := newEnv(cfg)
	if err != nil {
		return nil, err
	}
	rt := &Runtime{
		Config:   cfg,
		Env:      env,
		Registry: subproject.NewDefaultRegistry(env),
	}

	if cfg.Metrics.File != "" {
		rt.recorder = metrics.NewPrometheusRecorder(nil)
	}
	if cfg.Events.Database != "" {
		store, err := eventstore.NewSQLiteStore(env.Layout.Resolve(cfg.Events.Database))
		if err != nil {
			return nil, err
		}
		rt.store = store
	}
	if cfg.Events.NATSURL != "" {
		publisher, err := eventstore.NewNATSPublisher(cfg.Events.NATSURL, cfg.Events.Subject)
		if err != nil {
			slog.Warn("Run events are not published", logfields.URL(cfg.Events.NATSURL), logfields.Error(err))
		} else {
			rt.publisher = publisher
		}
	}
	return rt, nil
}

func newEnv(cfg *config.Config) (*subproject.Env, error) {
	method, err := auth.CreateAuth(cfg.Git.Auth)
	if err != nil {
		return nil, err
	}
	layout := cfg.Layout()

	commits := maps.Clone(templating.DefaultCommits)
	maps.Copy(commits, cfg.Commits)

	return &subproject.Env{
		Layout:      layout,
		Fetcher:     fetch.NewWithPolicy(cfg.FetchTimeoutDuration(), cfg.RetryPolicy()),
		Formatter:   tools.Stylua{Binary: cfg.Tools.Stylua, ConfigPath: layout.StyluaConfig()},
		Highlighter: tools.Pygmentize{Binary: cfg.Tools.Pygmentize},
		Docs:        tools.SiteGenerator{EmmyLuaDoc: cfg.Tools.EmmyLuaDoc, MkDocs: cfg.Tools.MkDocs},
		Runner:      tools.TeXRunner{Timeout: cfg.ExampleTimeoutDuration(), LuaTeX: cfg.Tools.LuaTeX},
		RepoOptions: repository.Options{
			Auth:        method,
			AuthorName:  cfg.Git.AuthorName,
			AuthorEmail: cfg.Git.AuthorEmail,
		},
		Commits: commits,
		Out:     os.Stdout,
	}, nil
}

// Selection is the subproject name from the configuration.
func (r *Runtime) Selection() string { return r.Config.Subproject }

// Store is the run history, nil when no database is configured.
func (r *Runtime) Store() *eventstore.SQLiteStore { return r.store }

// Execute runs fn as one journaled run of command over projects. Stage
// reports go to the journal and the metrics recorder. Concurrent calls
// wait for the running one to finish.
func (r *Runtime) Execute(ctx context.Context, command string, projects []*subproject.Subproject, fn func(ctx context.Context) error) error {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	names := make([]string, 0, len(projects))
	for _, s := range projects {
		names = append(names, s.Name)
	}

	var store eventstore.Store
	if r.store != nil {
		store = r.store
	}
	var publisher eventstore.Publisher
	if r.publisher != nil {
		publisher = r.publisher
	}
	journal := eventstore.Begin(ctx, store, publisher, command, names)

	observers := subproject.Observers{journal}
	if r.recorder != nil {
		observers = append(observers, r.recorder)
	}
	r.Env.Observer = observers
	defer func() { r.Env.Observer = nil }()

	logger := slog.With(logfields.RunID(journal.RunID()), logfields.Command(command))
	logger.Info("Run started", logfields.Count(len(projects)))
	start := time.Now()

	err := fn(ctx)

	d := time.Since(start)
	journal.Finish(ctx, err)
	if r.recorder != nil {
		r.recorder.ObserveRun(command, d, err)
		if werr := r.recorder.WriteTextfile(r.Config.Metrics.File); werr != nil {
			logger.Warn("Unable to write metrics", logfields.Error(werr))
		}
	}
	if err != nil {
		logger.Error("Run failed", logfields.Duration(d), logfields.Error(err))
		return err
	}
	logger.Info("Run completed", logfields.Duration(d))
	return nil
}

// Step is the work a command does for one subproject.
type Step func(ctx context.Context, s *subproject.Subproject) error

// RunEach runs step for every selected subproject as one journaled run.
func (r *Runtime) RunEach(ctx context.Context, command string, step Step) error {
	projects, err := r.Registry.Selected(r.Selection())
	if err != nil {
		return err
	}
	return r.Execute(ctx, command, projects, func(ctx context.Context) error {
		for _, s := range projects {
			if err := step(ctx, s); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close releases the event store and the publisher.
func (r *Runtime) Close() error {
	var errs []error
	if r.publisher != nil {
		errs = append(errs, r.publisher.Close())
	}
	if r.store != nil {
		errs = append(errs, r.store.Close())
	}
	return errors.Join(errs...)
}

// runtimeFor loads the configuration and builds the runtime. The caller
// closes it.
func runtimeFor(root *CLI) (*Runtime, error) {
	cfg, err := root.LoadConfig()
	if err != nil {
		return nil, err
	}
	return NewRuntime(cfg)
}

// withRuntime runs fn with a fresh runtime and closes it afterwards.
func withRuntime(root *CLI, fn func(rt *Runtime) error) error {
	rt, err := runtimeFor(root)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rt.Close(); cerr != nil {
			slog.Warn("Unable to close runtime", logfields.Error(cerr))
		}
	}()
	return fn(rt)
}
