package storage

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/existflow/ohm/internal/logger"
	"github.com/fsnotify/fsnotify"
)

// watchDebounce collapses the burst of events a single SQLite commit produces
const watchDebounce = 200 * time.Millisecond

// Watch reports writes to the database file at path (and its journal files)
// until ctx is cancelled. onChange runs at most once per quiet period.
func Watch(ctx context.Context, path string, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	if err := w.Add(dir); err != nil {
		return err
	}
	logger.Debug("Store watcher started", logger.F("path", path))

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Debug("Store watcher stopped")
			return nil

		case <-fire:
			fire = nil
			onChange()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !strings.HasPrefix(filepath.Base(ev.Name), base) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			fire = timer.C

		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Store watcher error", logger.Err(werr))
		}
	}
}
