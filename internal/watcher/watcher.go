package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Excluder filters watched paths.
type Excluder interface {
	IsExcluded(path string, extras ...string) bool
}

// Options configures the watcher behavior.
type Options struct {
	// DebounceWindow is the time to wait before emitting coalesced
	// events. Default: 200ms.
	DebounceWindow time.Duration
}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{DebounceWindow: 200 * time.Millisecond}
}

// Watcher observes a directory tree recursively via fsnotify.
type Watcher struct {
	fsw       *fsnotify.Watcher
	debouncer *Debouncer
	excluder  Excluder
	errs      chan error
}

// New creates a watcher. The excluder keeps ignored directories
// (node_modules, .git, ...) out of the watch set.
func New(opts Options, excluder Excluder) (*Watcher, error) {
	if opts.DebounceWindow <= 0 {
		opts.DebounceWindow = DefaultOptions().DebounceWindow
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		fsw:       fsw,
		debouncer: NewDebouncer(opts.DebounceWindow),
		excluder:  excluder,
		errs:      make(chan error, 10),
	}, nil
}

// Start watches root recursively until the context is cancelled.
// Newly created directories are added to the watch set as they appear.
func (w *Watcher) Start(ctx context.Context, root string) error {
	if err := w.addRecursive(root); err != nil {
		return err
	}

	go w.loop(ctx)
	return nil
}

// Batches returns the channel of debounced event batches.
func (w *Watcher) Batches() <-chan []FileEvent {
	return w.debouncer.Output()
}

// Errors returns the channel of non-fatal watcher errors.
func (w *Watcher) Errors() <-chan error {
	return w.errs
}

// loop translates fsnotify events into debounced FileEvents.
func (w *Watcher) loop(ctx context.Context) {
	defer w.debouncer.Stop()
	defer func() { _ = w.fsw.Close() }()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			default:
			}
		}
	}
}

// handle converts one fsnotify event.
func (w *Watcher) handle(event fsnotify.Event) {
	path := event.Name
	if w.excluder != nil && w.excluder.IsExcluded(path) {
		return
	}

	var op Operation
	switch {
	case event.Has(fsnotify.Create):
		op = OpCreate
		// New directories must join the watch set.
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.addRecursive(path); err != nil {
				slog.Warn("failed to watch new directory",
					slog.String("path", path),
					slog.String("error", err.Error()))
			}
		}
	case event.Has(fsnotify.Write):
		op = OpModify
	case event.Has(fsnotify.Remove):
		op = OpDelete
	case event.Has(fsnotify.Rename):
		op = OpRename
	default:
		return
	}

	w.debouncer.Add(FileEvent{
		Path:      path,
		Operation: op,
		Timestamp: time.Now(),
	})
}

// addRecursive adds a directory and all non-excluded subdirectories to
// the watch set.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Inaccessible entries are skipped, not fatal.
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.excluder != nil && path != root && w.excluder.IsExcluded(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}
