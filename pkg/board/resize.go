package board

import (
	"context"

	"github.com/aretw0/boxpad/pkg/core"
	"github.com/aretw0/boxpad/pkg/layout"
)

// OnGeometryChanged records a new rendered size for a note. The size goes into
// the slot currently displayed: the normal one, or the expanded one while the
// note is expanded. Writes go through the resize debouncer. Negative or
// non-finite sizes are ignored.
func (b *Board) OnGeometryChanged(ctx context.Context, id string, size layout.Size) (bool, error) {
	if !layout.Finite(size.Width, size.Height) || size.Width < 0 || size.Height < 0 {
		return false, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.noteIndexLocked(id)
	if i < 0 {
		return false, nil
	}
	n := &b.notes[i]
	w, h := core.Pixels(size.Width), core.Pixels(size.Height)
	if n.Expanded {
		if n.ExpandedWidth == w && n.ExpandedHeight == h {
			return true, nil
		}
		n.ExpandedWidth, n.ExpandedHeight = w, h
	} else {
		if n.Width == w && n.Height == h {
			return true, nil
		}
		n.Width, n.Height = w, h
	}
	n.UpdatedAt = b.stamp()

	err := b.scheduleNotesLocked(ctx)
	b.emitLocked(core.EventModify, id)
	return true, err
}

// ToggleExpanded swaps the displayed geometry slot. The expanded slot starts
// at 600×400 the first time it is used.
func (b *Board) ToggleExpanded(ctx context.Context, id string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.noteIndexLocked(id)
	if i < 0 {
		return false, nil
	}
	n := &b.notes[i]
	n.Expanded = !n.Expanded
	if n.Expanded && (n.ExpandedWidth <= 0 || n.ExpandedHeight <= 0) {
		n.ExpandedWidth, n.ExpandedHeight = ExpandedWidth, ExpandedHeight
	}
	n.UpdatedAt = b.stamp()

	err := b.persistNotesLocked(ctx)
	b.emitLocked(core.EventModify, id)
	return true, err
}
