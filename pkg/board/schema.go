package board

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/boxpad/pkg/core"
	"github.com/aretw0/boxpad/pkg/typed"
)

// Store keys.
const (
	KeyNotes    = "notes"
	KeyHistory  = "history"
	KeySettings = "settings"
	KeySession  = "session"
)

// SchemaVersion is the current version of the notes and history payloads.
// Version 1 is the bare JSON array written before envelopes existed.
const SchemaVersion = 2

// NotesKey describes the persisted note sequence.
func NotesKey() typed.Key[[]core.Note] {
	return typed.Key[[]core.Note]{
		Name:    KeyNotes,
		Version: SchemaVersion,
		Default: func() []core.Note { return []core.Note{} },
		Migrate: migrateNotes,
	}
}

// HistoryKey describes the persisted snapshot sequence.
func HistoryKey() typed.Key[[]core.Snapshot] {
	return typed.Key[[]core.Snapshot]{
		Name:    KeyHistory,
		Version: SchemaVersion,
		Default: func() []core.Snapshot { return []core.Snapshot{} },
		Migrate: migrateHistory,
	}
}

// SettingsKey describes the persisted board settings.
func SettingsKey() typed.Key[Settings] {
	return typed.Key[Settings]{
		Name:    KeySettings,
		Version: 1,
	}
}

// Session is the persisted editing session: which history entry the live
// board was last loaded from or saved into. It survives process restarts so
// repeated captures from the command line keep upserting one entry.
type Session struct {
	CurrentSnapshotID string `json:"currentSnapshotId,omitempty"`
}

// SessionKey describes the persisted session.
func SessionKey() typed.Key[Session] {
	return typed.Key[Session]{
		Name:    KeySession,
		Version: 1,
	}
}

func migrateNotes(from int, items json.RawMessage) (json.RawMessage, error) {
	if from != typed.LegacyVersion {
		return nil, fmt.Errorf("no migration from v%d", from)
	}
	var raw []map[string]any
	if err := json.Unmarshal(items, &raw); err != nil {
		return nil, err
	}
	for _, n := range raw {
		upgradeLegacyNote(n)
	}
	return json.Marshal(raw)
}

func migrateHistory(from int, items json.RawMessage) (json.RawMessage, error) {
	if from != typed.LegacyVersion {
		return nil, fmt.Errorf("no migration from v%d", from)
	}
	var raw []map[string]any
	if err := json.Unmarshal(items, &raw); err != nil {
		return nil, err
	}
	for _, entry := range raw {
		notes, _ := entry["notes"].([]any)
		for _, n := range notes {
			if m, ok := n.(map[string]any); ok {
				upgradeLegacyNote(m)
			}
		}
		if notes == nil {
			entry["notes"] = []any{}
		}
	}
	return json.Marshal(raw)
}

// upgradeLegacyNote tags untyped records as Freeform and gives legacy
// notepads their default line count. Pixel strings are left to core.Pixels.
func upgradeLegacyNote(n map[string]any) {
	t, _ := n["type"].(string)
	if t == "" {
		n["type"] = string(core.VariantFreeform)
	}
	if t == string(core.VariantNotepad) {
		if lines, ok := n["numLines"].(float64); !ok || lines < 1 {
			n["numLines"] = DefaultNotepadLines
		}
	}
}

// normalizeNotes repairs records that decode but break invariants.
func normalizeNotes(notes []core.Note) []core.Note {
	if notes == nil {
		return []core.Note{}
	}
	for i := range notes {
		n := &notes[i]
		if !n.Type.Valid() {
			n.Type = core.VariantFreeform
		}
		if n.Type == core.VariantNotepad && n.NumLines < 1 {
			n.NumLines = DefaultNotepadLines
		}
		if n.Color == "" {
			n.Color = core.DefaultColor
		}
	}
	return notes
}

func normalizeHistory(history []core.Snapshot) []core.Snapshot {
	if history == nil {
		return []core.Snapshot{}
	}
	for i := range history {
		history[i].Notes = normalizeNotes(history[i].Notes)
	}
	return history
}
