package board

import (
	"github.com/aretw0/introspection"
)

// BoardState exposes internal state for observability.
type BoardState struct {
	Notes             int      `json:"notes"`
	Snapshots         int      `json:"snapshots"`
	CurrentSnapshotID string   `json:"current_snapshot_id,omitempty"`
	Settings          Settings `json:"settings"`
	ActiveDrags       []string `json:"active_drags,omitempty"`
	PendingWrite      bool     `json:"pending_write"`
	Subscribers       int      `json:"subscribers"`
}

// State implements introspection.Introspectable.
func (b *Board) State() any {
	b.mu.Lock()
	defer b.mu.Unlock()

	drags := make([]string, 0, len(b.drags))
	for id := range b.drags {
		drags = append(drags, id)
	}
	return BoardState{
		Notes:             len(b.notes),
		Snapshots:         len(b.history),
		CurrentSnapshotID: b.currentSnapshotID,
		Settings:          b.settings,
		ActiveDrags:       drags,
		PendingWrite:      b.notesDirty,
		Subscribers:       len(b.subs),
	}
}

// ComponentType implements introspection.Component.
func (b *Board) ComponentType() string {
	return "board"
}

var _ introspection.Introspectable = (*Board)(nil)
var _ introspection.Component = (*Board)(nil)
