// Package core holds the board domain: notes, snapshots, events and the
// persistence port every adapter implements.
package core

import (
	"fmt"
	"strings"
)

// Variant tags the kind of box a Note renders as.
type Variant string

const (
	// VariantFreeform is the small sticky note. Legacy records without a tag load as Freeform.
	VariantFreeform Variant = "note"
	// VariantRectangle is the full-width ruled box whose topic names the board.
	VariantRectangle Variant = "rectangle"
	// VariantNotepad is the full-width ruled box with a configurable line count.
	VariantNotepad Variant = "notepad"
)

// ParseVariant maps user input ("note", "freeform", "rect", ...) to a Variant.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "note", "freeform":
		return VariantFreeform, nil
	case "rectangle", "rect":
		return VariantRectangle, nil
	case "notepad", "pad":
		return VariantNotepad, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownVariant, s)
}

// Valid reports whether v is one of the known variants.
func (v Variant) Valid() bool {
	switch v {
	case VariantFreeform, VariantRectangle, VariantNotepad:
		return true
	}
	return false
}

// FullWidth reports whether the variant spans the viewport instead of sitting centered.
func (v Variant) FullWidth() bool {
	return v == VariantRectangle || v == VariantNotepad
}

// Palette is the fixed set of background colours a note may take.
var Palette = []string{
	"#fffbe6",
	"#fde68a",
	"#fecaca",
	"#bbf7d0",
	"#bfdbfe",
	"#e9d5ff",
}

// DefaultColor is the first palette swatch.
var DefaultColor = Palette[0]

// ValidColor reports whether c belongs to Palette.
func ValidColor(c string) bool {
	for _, p := range Palette {
		if strings.EqualFold(p, c) {
			return true
		}
	}
	return false
}

// Note is one positioned, resizable, content-bearing box on the board.
type Note struct {
	ID             string    `json:"id"`
	Type           Variant   `json:"type"`
	Content        string    `json:"content"`
	Color          string    `json:"color"`
	Left           Pixels    `json:"left"`
	Top            Pixels    `json:"top"`
	Width          Pixels    `json:"width"`
	Height         Pixels    `json:"height"`
	ExpandedWidth  Pixels    `json:"expandedWidth,omitempty"`
	ExpandedHeight Pixels    `json:"expandedHeight,omitempty"`
	Expanded       bool      `json:"expanded"`
	TopicName      string    `json:"topicName"`
	NumLines       int       `json:"numLines,omitempty"`
	UpdatedAt      Timestamp `json:"updatedAt"`
}

// ActiveSize returns the size of the slot currently displayed.
func (n Note) ActiveSize() (w, h float64) {
	if n.Expanded {
		return float64(n.ExpandedWidth), float64(n.ExpandedHeight)
	}
	return float64(n.Width), float64(n.Height)
}

// Clone returns an independent copy. Note has no reference fields today, but
// callers go through Clone so that stays an implementation detail.
func (n Note) Clone() Note {
	return n
}

// CloneNotes deep-copies a note sequence. A nil input yields an empty, non-nil slice.
func CloneNotes(notes []Note) []Note {
	out := make([]Note, len(notes))
	for i, n := range notes {
		out[i] = n.Clone()
	}
	return out
}

// FirstRectangle returns the index of the first Rectangle note, or -1.
func FirstRectangle(notes []Note) int {
	for i, n := range notes {
		if n.Type == VariantRectangle {
			return i
		}
	}
	return -1
}

// Snapshot is a named, timestamped copy of an entire board.
type Snapshot struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	SavedAt Timestamp `json:"savedAt"`
	Notes   []Note    `json:"notes"`
}

// Clone returns a snapshot whose notes share nothing with s.
func (s Snapshot) Clone() Snapshot {
	s.Notes = CloneNotes(s.Notes)
	return s
}

// EventType represents the kind of change observed on a board or store.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change. ID is a note id, a snapshot id or a store key
// depending on the emitter.
type Event struct {
	Type      EventType
	ID        string
	Timestamp int64 // Unix milliseconds
}

// String implements lifecycle.Event.
func (e Event) String() string {
	return fmt.Sprintf("%s %s", e.Type, e.ID)
}
