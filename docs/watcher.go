package docs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches the docs folder and reports changed transcript files
// after a debounce window. Editors fire several events per save, so events
// for the same path are coalesced.
type Watcher struct {
	watcher       *fsnotify.Watcher
	basePath      string
	eventChan     chan string
	debounceDelay time.Duration

	mu         sync.Mutex
	cancel     context.CancelFunc
	isWatching bool
}

// NewWatcher creates a watcher for the given folder.
func NewWatcher(basePath string, debounce time.Duration) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if debounce == 0 {
		debounce = 500 * time.Millisecond
	}

	return &Watcher{
		watcher:       watcher,
		basePath:      basePath,
		eventChan:     make(chan string, 100),
		debounceDelay: debounce,
	}, nil
}

// Start begins watching. The returned channel yields paths of changed
// transcript files until Stop is called or the context is cancelled.
func (w *Watcher) Start(ctx context.Context) (<-chan string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isWatching {
		return w.eventChan, nil
	}

	if err := w.watcher.Add(w.basePath); err != nil {
		return nil, err
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.isWatching = true

	go w.watchEvents(ctx)

	slog.Info("Started docs watcher", "path", w.basePath)
	return w.eventChan, nil
}

// Stop stops watching.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.isWatching {
		return nil
	}

	w.cancel()
	w.isWatching = false

	if err := w.watcher.Close(); err != nil {
		return err
	}

	slog.Info("Stopped docs watcher", "path", w.basePath)
	return nil
}

// watchEvents debounces raw fsnotify events into per-file notifications.
// It owns eventChan: the channel closes when this goroutine exits, so Stop
// never closes a channel a send may still be racing against.
func (w *Watcher) watchEvents(ctx context.Context) {
	defer close(w.eventChan)

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounceDelay)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !SupportedFile(event.Name) {
				continue
			}
			pending[event.Name] = struct{}{}
			timer.Reset(w.debounceDelay)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Docs watcher error", "error", err)

		case <-timer.C:
			for path := range pending {
				select {
				case w.eventChan <- path:
				case <-ctx.Done():
					return
				}
			}
			pending = make(map[string]struct{})
		}
	}
}
