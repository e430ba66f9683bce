package daemon

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	derrors "github.com/TeXLuaCATS/manager/internal/errors"
	"github.com/TeXLuaCATS/manager/internal/logfields"
)

// DefaultDebounce coalesces the burst of events an editor save produces.
const DefaultDebounce = 500 * time.Millisecond

// ChangeHandler receives the sorted, distinct paths that changed.
type ChangeHandler func(ctx context.Context, paths []string)

// LibraryWatcher reports changes of files with a given extension below a
// set of directories.
type LibraryWatcher struct {
	watcher   *fsnotify.Watcher
	extension string
	debounce  time.Duration
	handler   ChangeHandler

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer

	// flushing is held while the handler runs so batches never overlap.
	flushing sync.Mutex
}

// NewLibraryWatcher watches every directory below roots recursively.
// Directories created later are added while watching.
func NewLibraryWatcher(roots []string, extension string, debounce time.Duration, handler ChangeHandler) (*LibraryWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, derrors.InternalError("failed to create file watcher", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	lw := &LibraryWatcher{
		watcher:   watcher,
		extension: "." + strings.TrimPrefix(extension, "."),
		debounce:  debounce,
		handler:   handler,
		pending:   make(map[string]struct{}),
	}
	for _, root := range roots {
		if err := lw.addTree(root); err != nil {
			_ = watcher.Close()
			return nil, err
		}
	}
	return lw, nil
}

func (lw *LibraryWatcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return derrors.IOFailed("watch", path, err)
		}
		if !d.IsDir() {
			return nil
		}
		if err := lw.watcher.Add(path); err != nil {
			return derrors.IOFailed("watch", path, err)
		}
		slog.Debug("Watching directory", logfields.Path(path))
		return nil
	})
}

// Run processes events until ctx is done or the watcher is closed.
func (lw *LibraryWatcher) Run(ctx context.Context) error {
	defer func() { _ = lw.watcher.Close() }()
	for {
		select {
		case <-ctx.Done():
			lw.stopTimer()
			return nil
		case event, ok := <-lw.watcher.Events:
			if !ok {
				return nil
			}
			lw.handle(ctx, event)
		case err, ok := <-lw.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("File watcher error", logfields.Error(err))
		}
	}
}

func (lw *LibraryWatcher) handle(ctx context.Context, event fsnotify.Event) {
	if event.Has(fsnotify.Create) && isDir(event.Name) {
		if err := lw.addTree(event.Name); err != nil {
			slog.Warn("Unable to watch new directory", logfields.Path(event.Name), logfields.Error(err))
		}
		return
	}
	if filepath.Ext(event.Name) != lw.extension {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	slog.Debug("Library change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))

	lw.mu.Lock()
	defer lw.mu.Unlock()
	lw.pending[event.Name] = struct{}{}
	if lw.timer != nil {
		lw.timer.Stop()
	}
	lw.timer = time.AfterFunc(lw.debounce, func() { lw.flush(ctx) })
}

func (lw *LibraryWatcher) flush(ctx context.Context) {
	lw.flushing.Lock()
	defer lw.flushing.Unlock()

	lw.mu.Lock()
	paths := make([]string, 0, len(lw.pending))
	for path := range lw.pending {
		paths = append(paths, path)
	}
	lw.pending = make(map[string]struct{})
	lw.mu.Unlock()

	if len(paths) == 0 || ctx.Err() != nil {
		return
	}
	sort.Strings(paths)
	lw.handler(ctx, paths)
}

func (lw *LibraryWatcher) stopTimer() {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	if lw.timer != nil {
		lw.timer.Stop()
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
