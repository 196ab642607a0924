package inventory

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce coalesces bursts of events, such as an editor's write-rename-chmod.
const debounce = 200 * time.Millisecond

// Watch calls onChange whenever the file at path is written, replaced or
// removed, until ctx is done. The parent directory is watched so editors
// that save through a rename are still seen.
func Watch(ctx context.Context, path string, onChange func()) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}

	go runWatcher(ctx, watcher, abs, onChange)

	slog.Info("inventory watcher started", "file", abs)
	return nil
}

// runWatcher is the main loop for the fsnotify watcher.
func runWatcher(ctx context.Context, watcher *fsnotify.Watcher, file string, onChange func()) {
	defer watcher.Close()

	var debounceMu sync.Mutex
	var pending *time.Timer

	trigger := func() {
		debounceMu.Lock()
		defer debounceMu.Unlock()

		if pending != nil {
			pending.Stop()
		}
		pending = time.AfterFunc(debounce, func() {
			debounceMu.Lock()
			pending = nil
			debounceMu.Unlock()

			slog.Debug("inventory watcher: file changed", "file", file)
			if onChange != nil {
				onChange()
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			debounceMu.Lock()
			if pending != nil {
				pending.Stop()
			}
			debounceMu.Unlock()
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != file {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				trigger()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("inventory watcher error", "err", err)
		}
	}
}
