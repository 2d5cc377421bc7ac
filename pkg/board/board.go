// Package board is the spatial note board engine.
//
// A Board is the explicit context every operation runs against: the ordered
// note sequence, the snapshot history, the current snapshot pointer, the
// layout settings and the persistence stores. Operations are serialized by an
// internal mutex, so the engine keeps its run-to-completion semantics even
// when driven from several goroutines (HTTP handlers, debounce timers).
package board

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/boxpad/pkg/core"
	"github.com/aretw0/boxpad/pkg/layout"
	"github.com/aretw0/boxpad/pkg/typed"
)

// Settings are the persisted board-wide toggles.
type Settings struct {
	PageExpanded bool `json:"pageExpanded"`
	Locked       bool `json:"locked"`
	Snap         bool `json:"snap"`
}

// Board is the board context.
type Board struct {
	mu sync.Mutex

	notes             []core.Note
	history           []core.Snapshot
	currentSnapshotID string
	settings          Settings
	viewport          layout.Viewport
	drags             map[string]*Drag

	notesStore    *typed.Store[[]core.Note]
	historyStore  *typed.Store[[]core.Snapshot]
	settingsStore *typed.Store[Settings]
	sessionStore  *typed.Store[Session]
	savedSession  Session

	logger      *slog.Logger
	now         func() time.Time
	newID       func() string
	debounce    time.Duration
	pending     *time.Timer
	pendingGen  uint64
	notesDirty  bool
	// pendingReason is the change reason of the debounced write.
	pendingReason string
	eventBuffer   int
	subs          map[chan core.Event]struct{}
	done          chan struct{}
	closed        bool
}

// Option configures a Board.
type Option func(*Board)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Board) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(b *Board) {
		if now != nil {
			b.now = now
		}
	}
}

// WithIDGenerator replaces the UUID generator used for notes and snapshots.
func WithIDGenerator(fn func() string) Option {
	return func(b *Board) {
		if fn != nil {
			b.newID = fn
		}
	}
}

// WithViewport sets the initial viewport.
func WithViewport(vp layout.Viewport) Option {
	return func(b *Board) {
		b.viewport = vp.Normalize()
	}
}

// WithResizeDebounce coalesces size-change writes that arrive closer than d.
// Zero (the default) writes on every tick.
func WithResizeDebounce(d time.Duration) Option {
	return func(b *Board) {
		b.debounce = d
	}
}

// WithEventBuffer sets the per-subscriber event buffer. Zero means default (100).
func WithEventBuffer(size int) Option {
	return func(b *Board) {
		if size > 0 {
			b.eventBuffer = size
		}
	}
}

// New creates an empty board persisted through gw. Call Load to read the
// stored state.
func New(gw core.Gateway, opts ...Option) *Board {
	b := &Board{
		notes:       []core.Note{},
		history:     []core.Snapshot{},
		viewport:    layout.DefaultViewport(),
		drags:       make(map[string]*Drag),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:         time.Now,
		newID:       uuid.NewString,
		eventBuffer: 100,
		subs:        make(map[chan core.Event]struct{}),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}

	b.notesStore = typed.NewStore(gw, NotesKey(), b.logger)
	b.historyStore = typed.NewStore(gw, HistoryKey(), b.logger)
	b.settingsStore = typed.NewStore(gw, SettingsKey(), b.logger)
	b.sessionStore = typed.NewStore(gw, SessionKey(), b.logger)
	return b
}

// Load reads notes, history and settings. Missing or malformed payloads load
// as empty; only gateway I/O failures are reported.
func (b *Board) Load(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loadLocked(ctx)
}

// Reload re-reads the stored state, typically after another process changed
// it. A debounced note write is persisted first so the settled local state is
// not lost. Active drags are revoked. The current snapshot pointer survives
// only if the entry still exists.
func (b *Board) Reload(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var flushErr error
	if b.notesDirty {
		flushErr = b.persistNotesLocked(b.pendingContext(ctx))
	}
	b.revokeAllLocked()
	b.stopPendingLocked()
	err := b.loadLocked(ctx)
	b.emitLocked(core.EventModify, "")
	return errors.Join(flushErr, err)
}

func (b *Board) loadLocked(ctx context.Context) error {
	notes, nErr := b.notesStore.Load(ctx)
	history, hErr := b.historyStore.Load(ctx)
	settings, sErr := b.settingsStore.Load(ctx)
	session, cErr := b.sessionStore.Load(ctx)

	b.notes = normalizeNotes(notes)
	b.history = normalizeHistory(history)
	b.settings = settings
	b.savedSession = session
	b.currentSnapshotID = session.CurrentSnapshotID
	if b.snapshotIndexLocked(b.currentSnapshotID) < 0 {
		b.currentSnapshotID = ""
	}

	b.logger.Debug("board loaded", "notes", len(b.notes), "snapshots", len(b.history), "current", b.currentSnapshotID)
	return errors.Join(nErr, hErr, sErr, cErr)
}

// Close flushes any debounced write and closes event subscriptions.
func (b *Board) Close(ctx context.Context) error {
	err := b.Flush(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
	if !b.closed {
		b.closed = true
		close(b.done)
	}
	return err
}

// Viewport returns the effective viewport: the configured window with the
// scroll height raised to the page extent.
func (b *Board) Viewport() layout.Viewport {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.viewportLocked()
}

func (b *Board) viewportLocked() layout.Viewport {
	vp := b.viewport.Normalize()
	page := float64(layout.BoardHeight)
	if b.settings.PageExpanded {
		page = layout.ExpandedBoardHeight
	}
	if vp.ScrollHeight < page {
		vp.ScrollHeight = page
	}
	return vp
}

// SetViewport records the visible window used by the allocator.
func (b *Board) SetViewport(vp layout.Viewport) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.viewport = vp.Normalize()
}

// Settings returns the persisted toggles.
func (b *Board) Settings() Settings {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.settings
}

// SetPageExpanded switches the board extent between 4000 and 8000 pixels.
func (b *Board) SetPageExpanded(ctx context.Context, expanded bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.settings.PageExpanded = expanded
	return b.saveSettingsLocked(ctx)
}

// SetDragEnabled is the "lock layout" switch. Disabling it blocks new drags
// without touching any note or drag already in flight.
func (b *Board) SetDragEnabled(ctx context.Context, enabled bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.settings.Locked = !enabled
	return b.saveSettingsLocked(ctx)
}

// DragEnabled reports whether new drags may start.
func (b *Board) DragEnabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.settings.Locked
}

// SetSnapEnabled toggles grid snapping of drag moves.
func (b *Board) SetSnapEnabled(ctx context.Context, enabled bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.settings.Snap = enabled
	return b.saveSettingsLocked(ctx)
}

// SnapEnabled reports whether drag moves snap to the grid.
func (b *Board) SnapEnabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.settings.Snap
}

func (b *Board) saveSettingsLocked(ctx context.Context) error {
	if err := b.settingsStore.Save(ctx, b.settings); err != nil {
		b.logger.Error("failed to persist settings", "error", err)
		return err
	}
	return nil
}

func (b *Board) stamp() core.Timestamp {
	return core.At(b.now())
}
