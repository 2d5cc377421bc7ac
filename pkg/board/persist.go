package board

import (
	"context"
	"time"

	"github.com/aretw0/boxpad/pkg/core"
)

// persistNotesLocked writes the full note sequence. Any debounced write is
// superseded, since this one carries the same or newer state.
func (b *Board) persistNotesLocked(ctx context.Context) error {
	b.stopPendingLocked()
	b.notesDirty = false
	b.pendingReason = ""
	if err := b.notesStore.Save(ctx, b.notes); err != nil {
		b.logger.Error("failed to persist notes", "error", err)
		return err
	}
	return nil
}

// scheduleNotesLocked persists now, or after the debounce window when one is
// configured. Each call pushes the deadline out, so only the settled state
// of a burst is written.
func (b *Board) scheduleNotesLocked(ctx context.Context) error {
	if b.debounce <= 0 {
		return b.persistNotesLocked(ctx)
	}

	b.notesDirty = true
	if reason, _ := ctx.Value(core.ChangeReasonKey).(string); reason != "" {
		b.pendingReason = reason
	}
	if b.pending != nil {
		b.pending.Reset(b.debounce)
		return nil
	}
	gen := b.pendingGen
	b.pending = time.AfterFunc(b.debounce, func() { b.flushPending(gen) })
	return nil
}

func (b *Board) flushPending(gen uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// A timer stopped too late to cancel still fires; its generation is stale.
	if gen != b.pendingGen || !b.notesDirty {
		return
	}
	b.pending = nil
	_ = b.persistNotesLocked(b.pendingContext(context.Background()))
}

// pendingContext carries the reason recorded when the debounced write was
// scheduled, unless ctx brings its own.
func (b *Board) pendingContext(ctx context.Context) context.Context {
	if reason, _ := ctx.Value(core.ChangeReasonKey).(string); reason != "" {
		return ctx
	}
	return core.WithChangeReason(ctx, b.pendingReason)
}

func (b *Board) stopPendingLocked() {
	b.pendingGen++
	if b.pending != nil {
		b.pending.Stop()
		b.pending = nil
	}
}

// Flush writes any debounced change immediately.
func (b *Board) Flush(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.notesDirty {
		b.stopPendingLocked()
		return nil
	}
	return b.persistNotesLocked(b.pendingContext(ctx))
}

// Pending reports whether a debounced write is waiting.
func (b *Board) Pending() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.notesDirty
}

func (b *Board) persistHistoryLocked(ctx context.Context) error {
	if err := b.historyStore.Save(ctx, b.history); err != nil {
		b.logger.Error("failed to persist history", "error", err)
		return err
	}
	return nil
}

// persistSessionLocked writes the current snapshot pointer when it changed.
func (b *Board) persistSessionLocked(ctx context.Context) error {
	session := Session{CurrentSnapshotID: b.currentSnapshotID}
	if session == b.savedSession {
		return nil
	}
	if err := b.sessionStore.Save(ctx, session); err != nil {
		b.logger.Error("failed to persist session", "error", err)
		return err
	}
	b.savedSession = session
	return nil
}
