// Package follow watches the diary database and calls back, debounced,
// after other processes write to it.
package follow

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Follower watches one database file and its WAL siblings.
type Follower struct {
	watcher  *fsnotify.Watcher
	names    map[string]bool
	debounce time.Duration
	log      *log.Logger
}

// New starts watching the directory holding dbPath. Changes are reported
// once per quiet period of length debounce.
func New(dbPath string, debounce time.Duration, logger *log.Logger) (*Follower, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	dir := filepath.Dir(dbPath)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	base := filepath.Base(dbPath)
	return &Follower{
		watcher: w,
		names: map[string]bool{
			base:              true,
			base + "-wal":     true,
			base + "-journal": true,
		},
		debounce: debounce,
		log:      logger,
	}, nil
}

// Close stops watching.
func (f *Follower) Close() error {
	return f.watcher.Close()
}

// Run calls onChange after each burst of writes until ctx is done or
// onChange fails. Watcher errors are logged and do not stop the loop.
func (f *Follower) Run(ctx context.Context, onChange func() error) error {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-f.watcher.Events:
			if !ok {
				return nil
			}
			if !f.relevant(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(f.debounce)
			} else {
				timer.Reset(f.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			if err := onChange(); err != nil {
				return err
			}
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return nil
			}
			f.log.Printf("file watcher error: %v", err)
		}
	}
}

func (f *Follower) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return false
	}
	return f.names[filepath.Base(ev.Name)]
}
