package board

import (
	"context"

	"github.com/aretw0/boxpad/pkg/core"
	"github.com/aretw0/boxpad/pkg/layout"
)

// Region is the part of a note a pointer press landed on.
type Region int

const (
	// RegionChrome is the frame and title bar. Presses here start drags.
	RegionChrome Region = iota
	// RegionContent is the editable text. Presses here never start drags.
	RegionContent
)

// Point is a pointer position in board coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DragState is the coordinator state of one note.
type DragState int

const (
	Idle DragState = iota
	Dragging
)

func (s DragState) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// Drag is the token of an in-flight drag. It stays valid until Release, or
// until the board revokes it because the note went away.
type Drag struct {
	board   *Board
	id      string
	offset  Point
	live    layout.Position
	revoked bool
}

// BeginDrag moves a note from Idle to Dragging. It refuses when dragging is
// locked, the press is inside the text region, the pointer is not a finite
// position or the note does not exist. A press on a note that is already
// Dragging revokes the earlier token, whose release was lost, and starts over.
func (b *Board) BeginDrag(id string, pointer Point, region Region) (*Drag, bool) {
	if region != RegionChrome || !layout.Finite(pointer.X, pointer.Y) {
		return nil, false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.settings.Locked {
		return nil, false
	}
	i := b.noteIndexLocked(id)
	if i < 0 {
		return nil, false
	}
	b.revokeLocked(id)

	n := b.notes[i]
	d := &Drag{
		board:  b,
		id:     id,
		offset: Point{X: pointer.X - float64(n.Left), Y: pointer.Y - float64(n.Top)},
		live:   layout.Position{X: float64(n.Left), Y: float64(n.Top)},
	}
	b.drags[id] = d
	b.logger.Debug("drag started", "id", id)
	return d, true
}

// NoteID is the note the token is bound to.
func (d *Drag) NoteID() string { return d.id }

// Move updates the live, unsaved position from the pointer. It returns false
// once the token is revoked. A non-finite pointer leaves the position as is.
func (d *Drag) Move(pointer Point) (layout.Position, bool) {
	b := d.board
	b.mu.Lock()
	defer b.mu.Unlock()

	if d.revoked {
		return d.live, false
	}
	if !layout.Finite(pointer.X, pointer.Y) {
		return d.live, true
	}
	x, y := pointer.X-d.offset.X, pointer.Y-d.offset.Y
	if b.settings.Snap {
		x, y = layout.Snap(x), layout.Snap(y)
	}
	d.live = layout.Position{X: x, Y: y}
	return d.live, true
}

// Live returns the last position computed by Move.
func (d *Drag) Live() layout.Position {
	d.board.mu.Lock()
	defer d.board.mu.Unlock()
	return d.live
}

// Release commits the live position and returns the note to Idle. A revoked
// token, or a note deleted behind its back, makes this a no-op.
func (d *Drag) Release(ctx context.Context) (bool, error) {
	b := d.board
	b.mu.Lock()
	defer b.mu.Unlock()

	if d.revoked {
		return false, nil
	}
	d.revoked = true
	delete(b.drags, d.id)

	i := b.noteIndexLocked(d.id)
	if i < 0 {
		return false, nil
	}
	n := &b.notes[i]
	n.Left, n.Top = core.Pixels(d.live.X), core.Pixels(d.live.Y)
	n.UpdatedAt = b.stamp()

	err := b.persistNotesLocked(ctx)
	b.emitLocked(core.EventModify, d.id)
	return true, err
}

// Revoked reports whether the token can no longer commit.
func (d *Drag) Revoked() bool {
	d.board.mu.Lock()
	defer d.board.mu.Unlock()
	return d.revoked
}

// DragState reports whether a note is being dragged.
func (b *Board) DragState(id string) DragState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.drags[id]; ok {
		return Dragging
	}
	return Idle
}

func (b *Board) revokeLocked(id string) {
	if d, ok := b.drags[id]; ok {
		d.revoked = true
		delete(b.drags, id)
		b.logger.Debug("drag revoked", "id", id)
	}
}

func (b *Board) revokeAllLocked() {
	for id := range b.drags {
		b.revokeLocked(id)
	}
}
