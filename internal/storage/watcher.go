package storage

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// KeyCallback is called with the key whose file changed.
type KeyCallback func(key string)

// Watch observes an FS root and reports changed keys until ctx is
// cancelled. Bursts of events for the same key within the debounce window
// are reported once. Temp files written by Set are ignored.
func Watch(ctx context.Context, root string, debounce time.Duration, logger *slog.Logger, cb KeyCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(root); err != nil {
		return err
	}
	if debounce <= 0 {
		debounce = 50 * time.Millisecond
	}

	logger.Info("storage watcher: started", slog.String("root", root))

	dirty := make(map[string]struct{})
	var flushTimer *time.Timer
	var flushCh <-chan time.Time

	schedule := func() {
		if flushTimer == nil {
			flushTimer = time.NewTimer(debounce)
			flushCh = flushTimer.C
		} else {
			flushTimer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if flushTimer != nil {
				flushTimer.Stop()
			}
			logger.Info("storage watcher: stopped")
			return nil

		case <-flushCh:
			for key := range dirty {
				delete(dirty, key)
				logger.Debug("storage watcher: key changed", slog.String("key", key))
				if cb != nil {
					cb(key)
				}
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			key := filepath.Base(ev.Name)
			if strings.HasPrefix(key, tmpPrefix) || validKey(key) != nil {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			dirty[key] = struct{}{}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("storage watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
