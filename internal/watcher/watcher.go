// Package watcher reports changes to the SQLite database behind `reconcile serve`
// so read caches can be dropped when another process imports records.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jinhealth/reconcile/internal/log"
)

// DefaultDebounce coalesces bursts of writes from one transaction.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches one database file and its WAL and journal siblings.
type Watcher struct {
	fsw      *fsnotify.Watcher
	dbPath   string
	debounce time.Duration
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// New watches the directory holding dbPath. The file itself need not exist yet.
func New(dbPath string, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	w := &Watcher{fsw: fsw, dbPath: filepath.Clean(dbPath), debounce: DefaultDebounce}
	for _, opt := range opts {
		opt(w)
	}

	dir := filepath.Dir(w.dbPath)
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watching directory %s: %w", dir, err)
	}
	return w, nil
}

// Run calls onChange once per debounced burst of writes until ctx is done,
// then releases the fsnotify handle.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	defer func() { _ = w.fsw.Close() }()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			timer.Reset(w.debounce)

		case <-timer.C:
			log.Debug(log.CatWatcher, "Database changed", "path", w.dbPath)
			onChange()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			log.ErrorErr(log.CatWatcher, "Watch error", err, "path", w.dbPath)
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return false
	}
	switch filepath.Clean(ev.Name) {
	case w.dbPath, w.dbPath + "-wal", w.dbPath + "-journal":
		return true
	}
	return false
}
