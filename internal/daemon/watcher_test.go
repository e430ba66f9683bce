package daemon

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type changeRecorder struct {
	mu      sync.Mutex
	batches [][]string
}

func (r *changeRecorder) handle(_ context.Context, paths []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, paths)
}

func (r *changeRecorder) snapshot() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.batches...)
}

func TestLibraryWatcher_DebouncesLuaChanges(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "library")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	rec := &changeRecorder{}
	lw, err := NewLibraryWatcher([]string{root}, "lua", 200*time.Millisecond, rec.handle)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- lw.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	a := filepath.Join(sub, "a.lua")
	b := filepath.Join(sub, "b.lua")
	require.NoError(t, os.WriteFile(a, []byte("a = {}\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("b = {}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "notes.txt"), []byte("x"), 0o644))

	require.Eventually(t, func() bool { return len(rec.snapshot()) > 0 }, 5*time.Second, 20*time.Millisecond)
	batches := rec.snapshot()
	assert.Len(t, batches, 1)
	assert.Equal(t, []string{a, b}, batches[0])
}

func TestLibraryWatcher_BatchesDoNotOverlap(t *testing.T) {
	root := t.TempDir()

	var active, maxActive, batches atomic.Int32
	slow := func(context.Context, []string) {
		n := active.Add(1)
		for {
			m := maxActive.Load()
			if n <= m || maxActive.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(300 * time.Millisecond)
		active.Add(-1)
		batches.Add(1)
	}
	lw, err := NewLibraryWatcher([]string{root}, "lua", 30*time.Millisecond, slow)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- lw.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	path := filepath.Join(root, "node.lua")
	require.NoError(t, os.WriteFile(path, []byte("node = {}\n"), 0o644))
	require.Eventually(t, func() bool { return active.Load() == 1 }, 5*time.Second, 5*time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("node = { id = 1 }\n"), 0o644))

	require.Eventually(t, func() bool { return batches.Load() >= 2 }, 5*time.Second, 20*time.Millisecond)
	assert.EqualValues(t, 1, maxActive.Load())
}

func TestLibraryWatcher_MissingRoot(t *testing.T) {
	_, err := NewLibraryWatcher([]string{filepath.Join(t.TempDir(), "missing")}, "lua", 0, func(context.Context, []string) {})
	require.Error(t, err)
}
