// Package watcher re-runs work when certificate files in a folder change.
package watcher

import (
	"context"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"certificate-validator/internal/logger"
)

// DefaultDebounce is how long a folder must stay quiet before a re-run.
const DefaultDebounce = 500 * time.Millisecond

// FolderWatcher watches one folder (not recursively) for certificate changes.
type FolderWatcher struct {
	folder   string
	match    func(name string) bool
	debounce time.Duration
	watcher  *fsnotify.Watcher
}

// New starts watching folder. match selects relevant file names; nil
// matches everything. Call Run to receive changes.
func New(folder string, match func(name string) bool, debounce time.Duration) (*FolderWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(folder); err != nil {
		w.Close()
		return nil, err
	}
	if match == nil {
		match = func(string) bool { return true }
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	logger.Info("watching folder", logger.String("folder", folder))
	return &FolderWatcher{
		folder:   folder,
		match:    match,
		debounce: debounce,
		watcher:  w,
	}, nil
}

// Run calls onChange with the sorted names of changed files each time the
// folder settles after matching creates, writes, removes or renames.
// onChange runs on the Run goroutine; changes seen meanwhile trigger another
// call afterwards. Run returns when ctx is done and closes the watcher.
func (fw *FolderWatcher) Run(ctx context.Context, onChange func(ctx context.Context, changed []string)) error {
	defer fw.Close()

	timer := time.NewTimer(fw.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	pending := make(map[string]struct{})
	for {
		select {
		case <-ctx.Done():
			logger.Debug("folder watcher stopped", logger.String("folder", fw.folder))
			return nil

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return nil
			}
			if !fw.relevant(event) {
				continue
			}
			pending[filepath.Base(event.Name)] = struct{}{}
			timer.Reset(fw.debounce)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("folder watcher error", logger.String("folder", fw.folder), logger.Err(err))

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for name := range pending {
				changed = append(changed, name)
			}
			sort.Strings(changed)
			pending = make(map[string]struct{})

			logger.Info("certificate folder changed",
				logger.String("folder", fw.folder),
				logger.Int("files", len(changed)))
			onChange(ctx, changed)
		}
	}
}

// Close stops watching. It is safe to call more than once.
func (fw *FolderWatcher) Close() error {
	return fw.watcher.Close()
}

func (fw *FolderWatcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	return fw.match(filepath.Base(event.Name))
}
