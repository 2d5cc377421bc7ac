package fs

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/boxpad/pkg/core"
)

// WatchDebounce is how long a key must stay quiet before its event is sent.
const WatchDebounce = 50 * time.Millisecond

// Watch reports changes made to board files by other processes: hand edits,
// git checkouts, a second boxpad instance. Writes made through this gateway
// are not reported. The channel closes when ctx ends.
func (g *Gateway) Watch(ctx context.Context) (<-chan core.Event, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(g.Path); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", g.Path, err)
	}

	events := make(chan core.Event, 16)
	g.setWatcherActive(true)

	lifecycle.Go(ctx, func(ctx context.Context) error {
		return g.watchLoop(ctx, watcher, events)
	}, lifecycle.WithErrorHandler(func(err error) {
		if g.config.ErrorHandler != nil {
			g.config.ErrorHandler(fmt.Errorf("watcher failed: %w", err))
			return
		}
		g.config.Logger.Error("watcher failed", "error", err)
	}))
	return events, nil
}

func (g *Gateway) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, events chan core.Event) (err error) {
	deb := newDebouncer(WatchDebounce)
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("watcher panic: %v", recovered)
			if g.config.Logger.Enabled(ctx, slog.LevelDebug) {
				g.config.Logger.Error("watcher panic", "error", err, "stack", string(debug.Stack()))
			} else {
				g.config.Logger.Error("watcher panic", "error", err)
			}
		}
		deb.stopAndWait()
		_ = watcher.Close()
		g.setWatcherActive(false)
		close(events)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			g.handle(ctx, deb, event, events)

		case wErr, ok := <-watcher.Errors:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			g.config.Logger.Error("fsnotify error", "error", wErr)
			if g.config.ErrorHandler != nil {
				g.config.ErrorHandler(wErr)
			}
		}
	}
}

func (g *Gateway) handle(ctx context.Context, deb *debouncer, event fsnotify.Event, out chan<- core.Event) {
	key, ok := g.keyFor(event.Name)
	if !ok {
		return
	}

	var t core.EventType
	switch {
	case event.Has(fsnotify.Create):
		t = core.EventCreate
	case event.Has(fsnotify.Write):
		t = core.EventModify
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		t = core.EventDelete
	default:
		return
	}
	g.config.Logger.Debug("file event", "key", key, "op", event.Op.String())

	path := event.Name
	deb.add(key, func() {
		if t != core.EventDelete && g.ownWrite(key, path) {
			return
		}
		select {
		case out <- core.Event{Type: t, ID: key, Timestamp: time.Now().UnixMilli()}:
		case <-ctx.Done():
		}
	})
}

// debouncer runs only the last callback registered for a key once the key
// has been quiet for the delay.
type debouncer struct {
	delay   time.Duration
	mu      sync.Mutex
	timers  map[string]*time.Timer
	wg      sync.WaitGroup
	stopped bool
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{delay: delay, timers: make(map[string]*time.Timer)}
}

func (d *debouncer) add(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if t, ok := d.timers[key]; ok && t.Stop() {
		d.wg.Done()
	}
	d.wg.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(d.delay, func() {
		defer d.wg.Done()
		d.mu.Lock()
		stopped := d.stopped
		if d.timers[key] == timer {
			delete(d.timers, key)
		}
		d.mu.Unlock()
		if !stopped {
			fn()
		}
	})
	d.timers[key] = timer
}

// stopAndWait cancels pending callbacks and waits for running ones.
func (d *debouncer) stopAndWait() {
	d.mu.Lock()
	d.stopped = true
	for key, t := range d.timers {
		if t.Stop() {
			d.wg.Done()
		}
		delete(d.timers, key)
	}
	d.mu.Unlock()
	d.wg.Wait()
}
