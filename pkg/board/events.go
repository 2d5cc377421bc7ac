package board

import (
	"context"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/boxpad/pkg/core"
)

// Watch subscribes to board changes. Events carry the note or snapshot id
// (empty for whole-board changes). The channel is buffered; a subscriber that
// falls behind loses events rather than stalling the board. It is closed when
// ctx ends or the board is closed.
func (b *Board) Watch(ctx context.Context) <-chan core.Event {
	ch := make(chan core.Event, b.eventBuffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch
	}
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	lifecycle.Go(ctx, func(ctx context.Context) error {
		select {
		case <-ctx.Done():
		case <-b.done:
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		return nil
	})
	return ch
}

func (b *Board) emitLocked(t core.EventType, id string) {
	if len(b.subs) == 0 {
		return
	}
	e := core.Event{Type: t, ID: id, Timestamp: b.now().UnixMilli()}
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
			b.logger.Debug("dropping board event for slow subscriber", "event", e.String())
		}
	}
}

// Follow reloads the board each time w reports that another process changed
// one of the board keys, until ctx ends or the board is closed. It returns
// once the watch is established.
func (b *Board) Follow(ctx context.Context, w core.Watchable) error {
	events, err := w.Watch(ctx)
	if err != nil {
		return err
	}

	lifecycle.Go(ctx, func(ctx context.Context) error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-b.done:
				return nil
			case e, ok := <-events:
				if !ok {
					return nil
				}
				switch e.ID {
				case KeyNotes, KeyHistory, KeySettings, KeySession:
				default:
					continue
				}
				b.logger.Info("board changed on disk, reloading", "key", e.ID, "op", string(e.Type))
				if err := b.Reload(ctx); err != nil {
					b.logger.Warn("reload failed", "error", err)
				}
			}
		}
	})
	return nil
}
