package board

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/boxpad/pkg/core"
	"github.com/aretw0/boxpad/pkg/layout"
)

// Geometry defaults per variant.
const (
	FreeformWidth       = 220
	FreeformHeight      = 140
	RectangleHeight     = 480
	RectangleLines      = 20
	NotepadLineHeight   = 24
	NotepadChrome       = 40
	DefaultNotepadLines = 20
	ExpandedWidth       = 600
	ExpandedHeight      = 400

	// FreeformPlaceholder seeds new Freeform notes.
	FreeformPlaceholder = "Type your note..."
)

// NoteParams are the creation inputs a caller controls.
type NoteParams struct {
	// Color defaults to core.DefaultColor.
	Color string
	// LineCount applies to Notepad notes. Values below 1 mean DefaultNotepadLines.
	LineCount int
}

// Patch edits a note in place. Nil fields are left alone.
type Patch struct {
	Content   *string
	TopicName *string
	Color     *string
}

// WithContent returns p with Content set.
func (p Patch) WithContent(s string) Patch { p.Content = &s; return p }

// WithTopic returns p with TopicName set.
func (p Patch) WithTopic(s string) Patch { p.TopicName = &s; return p }

// WithColor returns p with Color set.
func (p Patch) WithColor(s string) Patch { p.Color = &s; return p }

// Predicate selects notes in List.
type Predicate func(core.Note) bool

// Confirmer answers blocking yes/no questions before destructive actions.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool { return f(ctx, prompt) }

// ClearPrompt is the question asked before ClearAll.
const ClearPrompt = "Delete all notes?"

// AddNote places a new note of the given variant, appends it on top of the
// board and persists.
func (b *Board) AddNote(ctx context.Context, variant core.Variant, params NoteParams) (core.Note, error) {
	if !variant.Valid() {
		return core.Note{}, fmt.Errorf("%w: %q", core.ErrUnknownVariant, variant)
	}
	color := params.Color
	if color == "" {
		color = core.DefaultColor
	}
	if !core.ValidColor(color) {
		return core.Note{}, fmt.Errorf("%w: %s", core.ErrUnknownColor, color)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	note := b.newNoteLocked(variant, color, params.LineCount)
	b.notes = append(b.notes, note)
	b.logger.Debug("note added", "id", note.ID, "type", note.Type, "left", note.Left, "top", note.Top)

	err := b.persistNotesLocked(ctx)
	b.emitLocked(core.EventCreate, note.ID)
	return note.Clone(), err
}

func (b *Board) newNoteLocked(variant core.Variant, color string, lines int) core.Note {
	vp := b.viewportLocked()
	note := core.Note{
		ID:        b.newID(),
		Type:      variant,
		Color:     color,
		UpdatedAt: b.stamp(),
	}

	req := layout.Request{Viewport: vp}
	switch variant {
	case core.VariantRectangle:
		req.Mode = layout.FullWidth
		req.Size = layout.Size{Width: layout.FullWidthSpan(vp), Height: RectangleHeight}
		note.Content = strings.Repeat("\n", RectangleLines-1)
	case core.VariantNotepad:
		if lines < 1 {
			lines = DefaultNotepadLines
		}
		req.Mode = layout.FullWidth
		req.Size = layout.Size{Width: layout.FullWidthSpan(vp), Height: float64(lines*NotepadLineHeight + NotepadChrome)}
		note.Content = strings.Repeat("\n", lines-1)
		note.NumLines = lines
	default:
		req.Mode = layout.Centered
		req.Size = layout.Size{Width: FreeformWidth, Height: FreeformHeight}
		note.Content = FreeformPlaceholder
	}

	pos := layout.Place(b.rectsLocked(), req)
	note.Left, note.Top = core.Pixels(pos.X), core.Pixels(pos.Y)
	note.Width, note.Height = core.Pixels(req.Size.Width), core.Pixels(req.Size.Height)
	return note
}

// rectsLocked returns the displayed bounding box of every note.
func (b *Board) rectsLocked() []layout.Rect {
	rects := make([]layout.Rect, len(b.notes))
	for i, n := range b.notes {
		w, h := n.ActiveSize()
		rects[i] = layout.Rect{Left: float64(n.Left), Top: float64(n.Top), Width: w, Height: h}
	}
	return rects
}

// UpdateNote applies p. It returns false when the note no longer exists.
func (b *Board) UpdateNote(ctx context.Context, id string, p Patch) (bool, error) {
	if p.Color != nil && !core.ValidColor(*p.Color) {
		return false, fmt.Errorf("%w: %s", core.ErrUnknownColor, *p.Color)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.noteIndexLocked(id)
	if i < 0 {
		b.logger.Debug("update ignored for missing note", "id", id)
		return false, nil
	}
	n := &b.notes[i]
	if p.Content != nil && *p.Content != n.Content {
		n.Content = *p.Content
		n.UpdatedAt = b.stamp()
	}
	if p.TopicName != nil {
		n.TopicName = *p.TopicName
	}
	if p.Color != nil {
		n.Color = *p.Color
	}

	err := b.persistNotesLocked(ctx)
	b.emitLocked(core.EventModify, id)
	return true, err
}

// RemoveNote deletes a note and revokes its drag token.
func (b *Board) RemoveNote(ctx context.Context, id string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.revokeLocked(id)
	i := b.noteIndexLocked(id)
	if i < 0 {
		return false, nil
	}
	b.notes = append(b.notes[:i], b.notes[i+1:]...)

	err := b.persistNotesLocked(ctx)
	b.emitLocked(core.EventDelete, id)
	return true, err
}

// ClearAll empties the board after c confirms. A nil confirmer or a "no"
// leaves everything as it was and returns false.
func (b *Board) ClearAll(ctx context.Context, c Confirmer) (bool, error) {
	if c == nil || !c.Confirm(ctx, ClearPrompt) {
		return false, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.clearLocked()
	err := errors.Join(b.persistNotesLocked(ctx), b.persistSessionLocked(ctx))
	b.emitLocked(core.EventDelete, "")
	return true, err
}

func (b *Board) clearLocked() {
	b.revokeAllLocked()
	b.notes = []core.Note{}
	b.currentSnapshotID = ""
}

// List returns copies of the notes matching pred, in board order. A nil
// predicate matches everything.
func (b *Board) List(pred Predicate) []core.Note {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]core.Note, 0, len(b.notes))
	for _, n := range b.notes {
		if pred == nil || pred(n) {
			out = append(out, n.Clone())
		}
	}
	return out
}

// Get returns a copy of one note.
func (b *Board) Get(id string) (core.Note, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.noteIndexLocked(id)
	if i < 0 {
		return core.Note{}, false
	}
	return b.notes[i].Clone(), true
}

// Len is the number of notes on the board.
func (b *Board) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.notes)
}

func (b *Board) noteIndexLocked(id string) int {
	for i, n := range b.notes {
		if n.ID == id {
			return i
		}
	}
	return -1
}
