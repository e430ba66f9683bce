package commands

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TeXLuaCATS/manager/internal/config"
	derrors "github.com/TeXLuaCATS/manager/internal/errors"
	"github.com/TeXLuaCATS/manager/internal/eventstore"
	"github.com/TeXLuaCATS/manager/internal/subproject"
	"github.com/TeXLuaCATS/manager/internal/tools"
)

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.BasePath = base
	cfg.Events.Database = "events.db"
	cfg.Metrics.File = filepath.Join(base, "manager.prom")

	rt, err := NewRuntime(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })
	return rt
}

func history(t *testing.T, rt *Runtime) []eventstore.RunSummary {
	t.Helper()
	projection := eventstore.NewRunHistoryProjection(rt.Store(), 10)
	require.NoError(t, projection.Rebuild(context.Background()))
	return projection.History()
}

func TestNewRuntime(t *testing.T) {
	rt := newTestRuntime(t)

	assert.Equal(t, 13, rt.Registry.Len())
	assert.Equal(t, rt.Config.BasePath, rt.Env.Layout.Base)
	assert.Equal(t, tools.Stylua{Binary: "stylua", ConfigPath: filepath.Join(rt.Config.BasePath, "stylua.toml")}, rt.Env.Formatter)
	assert.Equal(t, tools.TeXRunner{Timeout: 30 * time.Second, LuaTeX: "luatex"}, rt.Env.Runner)
	assert.NotNil(t, rt.Store())
	assert.FileExists(t, filepath.Join(rt.Config.BasePath, "events.db"))
}

func TestNewRuntime_CommitOverrides(t *testing.T) {
	cfg := config.Default()
	cfg.BasePath = t.TempDir()
	cfg.Commits = map[string]string{"abcdef1": "abcdef1234567890abcdef1234567890abcdef12"}

	rt, err := NewRuntime(cfg)
	require.NoError(t, err)
	defer func() { _ = rt.Close() }()

	full, err := rt.Env.Commits.Resolve("abcdef1")
	require.NoError(t, err)
	assert.Equal(t, "abcdef1234567890abcdef1234567890abcdef12", full)
	assert.Nil(t, rt.Store())
}

func TestRuntime_Execute(t *testing.T) {
	rt := newTestRuntime(t)
	s, err := rt.Registry.Get("LuaTeX")
	require.NoError(t, err)

	err = rt.Execute(context.Background(), "merge", []*subproject.Subproject{s}, func(context.Context) error {
		require.NotNil(t, rt.Env.Observer)
		rt.Env.Observer.ObserveStage("LuaTeX", "merge", 5*time.Millisecond, nil)
		return nil
	})
	require.NoError(t, err)
	assert.Nil(t, rt.Env.Observer)

	runs := history(t, rt)
	require.Len(t, runs, 1)
	assert.Equal(t, "merge", runs[0].Command)
	assert.Equal(t, []string{"LuaTeX"}, runs[0].Subprojects)
	assert.Equal(t, eventstore.StatusSucceeded, runs[0].Status)
	assert.Equal(t, 1, runs[0].Stages)

	metrics, err := os.ReadFile(rt.Config.Metrics.File)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `texluacats_manager_stage_results_total{result="success",stage="merge",subproject="LuaTeX"} 1`)
}

func TestRuntime_ExecuteFailure(t *testing.T) {
	rt := newTestRuntime(t)
	boom := errors.New("boom")

	err := rt.Execute(context.Background(), "format", nil, func(context.Context) error {
		rt.Env.Observer.ObserveStage("lpeg", "format", time.Millisecond, boom)
		return boom
	})
	require.ErrorIs(t, err, boom)

	runs := history(t, rt)
	require.Len(t, runs, 1)
	assert.Equal(t, eventstore.StatusFailed, runs[0].Status)
	assert.Equal(t, "lpeg/format", runs[0].FailedStage)
	assert.Equal(t, "boom", runs[0].ErrorMessage)
}

func TestRuntime_RunEach(t *testing.T) {
	rt := newTestRuntime(t)
	rt.Config.Subproject = "lpeg"

	var visited []string
	err := rt.RunEach(context.Background(), "merge", func(_ context.Context, s *subproject.Subproject) error {
		visited = append(visited, s.Name)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"lpeg"}, visited)
}

func TestRuntime_RunEachStopsAtFirstError(t *testing.T) {
	rt := newTestRuntime(t)
	boom := errors.New("boom")

	calls := 0
	err := rt.RunEach(context.Background(), "merge", func(context.Context, *subproject.Subproject) error {
		calls++
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestRuntime_RunEachUnknownSubproject(t *testing.T) {
	rt := newTestRuntime(t)
	rt.Config.Subproject = "luajittex"

	err := rt.RunEach(context.Background(), "merge", func(context.Context, *subproject.Subproject) error {
		t.Fatal("step must not run")
		return nil
	})
	assert.ErrorIs(t, err, derrors.ErrUnknownSubproject)
	assert.Empty(t, history(t, rt))
}

func TestRuntime_ExecuteRunsOneAtATime(t *testing.T) {
	rt := newTestRuntime(t)

	var active, maxActive atomic.Int32
	run := func(ctx context.Context) error {
		return rt.Execute(ctx, "watch", nil, func(context.Context) error {
			if n := active.Add(1); n > maxActive.Load() {
				maxActive.Store(n)
			}
			defer active.Add(-1)
			time.Sleep(50 * time.Millisecond)
			rt.Env.Observer.ObserveStage("lpeg", "watch", time.Millisecond, nil)
			return nil
		})
	}

	var wg sync.WaitGroup
	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, run(context.Background()))
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, maxActive.Load())
	runs := history(t, rt)
	require.Len(t, runs, 3)
	for _, r := range runs {
		assert.Equal(t, 1, r.Stages)
	}
}
