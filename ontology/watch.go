package ontology

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceDelay = 500 * time.Millisecond

// Watch reloads the knowledge bases whenever one of them changes on disk,
// until ctx is cancelled. Directories are watched rather than files so that
// editors replacing a file by rename are still noticed.
func (r *Resolver) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	tracked := make(map[string]struct{}, len(r.paths))
	dirs := make(map[string]struct{})
	for _, path := range r.paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			watcher.Close()
			return err
		}
		tracked[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	r.logger.Info("watching knowledge bases", "files", len(tracked))
	go r.watchLoop(ctx, watcher, tracked)
	return nil
}

func (r *Resolver) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, tracked map[string]struct{}) {
	defer watcher.Close()

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			r.logger.Debug("stopping knowledge base watcher")
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			if _, ok := tracked[abs]; !ok {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceDelay)
			} else {
				timer.Reset(debounceDelay)
			}
			pending = timer.C

		case <-pending:
			pending = nil
			if err := r.Reload(); err != nil {
				r.logger.Error("reload failed, keeping previous knowledge", "err", err)
				continue
			}
			r.logger.Info("knowledge bases reloaded", "entities", r.Len())

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			r.logger.Error("watcher error", "err", err)
		}
	}
}
