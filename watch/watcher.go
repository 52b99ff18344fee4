package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/willibrandon/csprojsync/observability"
)

// ErrWatcherFailed indicates the filesystem watcher failed to initialize.
var ErrWatcherFailed = errors.New("failed to initialize filesystem watcher")

// Watcher watches a directory tree and keeps the manifests inside it in step with
// file creations, deletions and moves.
type Watcher struct {
	root    string
	ignore  map[string]bool
	fs      *fsnotify.Watcher
	batcher *Batcher
	syncer  *Syncer
	logger  observability.Logger
}

// New creates a Watcher for the tree rooted at root. Nothing is watched until Run.
func New(root string, locator Locator, editor Editor, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving watch root: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatcherFailed, err)
	}

	o := newOptions(opts)
	w := &Watcher{
		root:   abs,
		ignore: o.ignore,
		fs:     fw,
		syncer: NewSyncer(locator, editor, opts...),
		logger: o.logger,
	}
	w.syncer.watchDir = w.addDir
	w.batcher = NewBatcher(o.debounce, w.syncer.Apply)
	return w, nil
}

// Root returns the absolute path of the watched tree.
func (w *Watcher) Root() string {
	return w.root
}

// Run watches the tree until ctx is cancelled. Pending events are applied before it
// returns. The underlying watcher is closed on return, so Run may be called once.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.fs.Close() }()

	if err := w.addTree(w.root); err != nil {
		return err
	}
	w.logger.Info("Watching {Root} ({Count} directories)", w.root, len(w.fs.WatchList()))

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.batcher.Run(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, ev)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Filesystem watcher error: {Error}", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, fev fsnotify.Event) {
	ev, ok := fromFsnotify(fev)
	if !ok || w.ignored(ev.Path) {
		return
	}
	observability.RecordWatchEvent(ev.Op.String())
	w.logger.Verbose("Filesystem event {Op} {Path}", ev.Op, ev.Path)
	w.batcher.Push(ctx, ev)
}

// ignored reports whether path lies in an ignored directory below the root.
func (w *Watcher) ignored(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	dir := rel
	for dir != "." && dir != string(filepath.Separator) && dir != "" {
		if w.ignore[filepath.Base(dir)] {
			return true
		}
		dir = filepath.Dir(dir)
	}
	return false
}

// addTree watches root and every directory below it that is not ignored.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("watching %s: %w", root, err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.ignore[d.Name()] {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			if path == root {
				return fmt.Errorf("watching %s: %w", root, err)
			}
			w.logger.Warn("Cannot watch {Path}: {Error}", path, err)
		}
		return nil
	})
}

func (w *Watcher) addDir(path string) {
	if err := w.fs.Add(path); err != nil {
		w.logger.Warn("Cannot watch {Path}: {Error}", path, err)
		return
	}
	w.logger.Verbose("Watching new directory {Path}", path)
}
