package board

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/boxpad/pkg/core"
)

// DefaultName is the board name used when no Rectangle carries a topic.
func DefaultName(t time.Time) string {
	return "Saved Board " + t.Format("1/2/2006")
}

// boardNameLocked picks the first non-empty Rectangle topic.
func (b *Board) boardNameLocked() string {
	for _, n := range b.notes {
		if n.Type == core.VariantRectangle && n.TopicName != "" {
			return n.TopicName
		}
	}
	return DefaultName(b.now())
}

// CaptureSnapshot copies the live board into History. When the board was
// loaded from (or last captured into) an entry that still exists, that entry
// is replaced in place and keeps its position; otherwise a new entry is
// appended. The captured entry becomes the current snapshot.
func (b *Board) CaptureSnapshot(ctx context.Context) (core.Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.captureLocked(ctx)
}

func (b *Board) captureLocked(ctx context.Context) (core.Snapshot, error) {
	snap := core.Snapshot{
		Name:    b.boardNameLocked(),
		SavedAt: b.stamp(),
		Notes:   core.CloneNotes(b.notes),
	}

	event := core.EventCreate
	if i := b.snapshotIndexLocked(b.currentSnapshotID); b.currentSnapshotID != "" && i >= 0 {
		snap.ID = b.currentSnapshotID
		b.history[i] = snap
		event = core.EventModify
	} else {
		snap.ID = b.newID()
		b.history = append(b.history, snap)
	}
	b.currentSnapshotID = snap.ID
	b.logger.Debug("snapshot captured", "id", snap.ID, "name", snap.Name, "notes", len(snap.Notes))

	err := errors.Join(b.persistHistoryLocked(ctx), b.persistSessionLocked(ctx))
	b.emitLocked(event, snap.ID)
	return snap.Clone(), err
}

// SaveBoard captures the board and then starts a fresh, empty one.
func (b *Board) SaveBoard(ctx context.Context) (core.Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.notes) == 0 {
		return core.Snapshot{}, core.ErrNothingToSave
	}
	snap, err := b.captureLocked(ctx)
	if err != nil {
		return snap, err
	}

	b.clearLocked()
	err = errors.Join(b.persistNotesLocked(ctx), b.persistSessionLocked(ctx))
	b.emitLocked(core.EventDelete, "")
	return snap, err
}

// RestoreSnapshot replaces the live board with a copy of the entry. The first
// Rectangle takes the entry name as its topic.
func (b *Board) RestoreSnapshot(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.snapshotIndexLocked(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", core.ErrSnapshotNotFound, id)
	}
	entry := b.history[i]

	b.revokeAllLocked()
	notes := core.CloneNotes(entry.Notes)
	if r := core.FirstRectangle(notes); r >= 0 && entry.Name != "" {
		notes[r].TopicName = entry.Name
	}
	b.notes = notes
	b.currentSnapshotID = id
	b.logger.Debug("snapshot restored", "id", id, "notes", len(notes))

	err := errors.Join(b.persistNotesLocked(ctx), b.persistSessionLocked(ctx))
	b.emitLocked(core.EventModify, "")
	return err
}

// RenameSnapshot sets an entry name. A blank name falls back to the default
// name for the day the entry was saved. The first Rectangle in the stored
// copy takes the new name as its topic.
func (b *Board) RenameSnapshot(ctx context.Context, id, name string) (core.Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.snapshotIndexLocked(id)
	if i < 0 {
		return core.Snapshot{}, fmt.Errorf("%w: %s", core.ErrSnapshotNotFound, id)
	}
	entry := &b.history[i]

	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName(entry.SavedAt.Time)
	}
	entry.Name = name
	if r := core.FirstRectangle(entry.Notes); r >= 0 {
		entry.Notes[r].TopicName = name
	}

	err := b.persistHistoryLocked(ctx)
	b.emitLocked(core.EventModify, id)
	return entry.Clone(), err
}

// DeleteSnapshot removes an entry. The live board is not touched.
func (b *Board) DeleteSnapshot(ctx context.Context, id string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.snapshotIndexLocked(id)
	if i < 0 {
		return false, nil
	}
	b.history = append(b.history[:i], b.history[i+1:]...)
	if b.currentSnapshotID == id {
		b.currentSnapshotID = ""
	}

	err := errors.Join(b.persistHistoryLocked(ctx), b.persistSessionLocked(ctx))
	b.emitLocked(core.EventDelete, id)
	return true, err
}

// History returns the entries in capture order.
func (b *Board) History() []core.Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]core.Snapshot, len(b.history))
	for i, s := range b.history {
		out[i] = s.Clone()
	}
	return out
}

// Timeline returns the entries most recent first, as a history panel lists them.
func (b *Board) Timeline() []core.Snapshot {
	out := b.History()
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Snapshot returns a copy of one entry.
func (b *Board) Snapshot(id string) (core.Snapshot, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.snapshotIndexLocked(id)
	if i < 0 {
		return core.Snapshot{}, false
	}
	return b.history[i].Clone(), true
}

// CurrentSnapshotID is the entry the live board was restored from or last
// captured into, or "".
func (b *Board) CurrentSnapshotID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentSnapshotID
}

func (b *Board) snapshotIndexLocked(id string) int {
	if id == "" {
		return -1
	}
	for i, s := range b.history {
		if s.ID == id {
			return i
		}
	}
	return -1
}
