// Package boxpad is the composition root of the boxpad note board.
//
// A board is a scrollable surface holding free-form sticky notes and
// full-width ruled sheets. New notes are placed where they do not overlap
// anything already on screen; notes are dragged by their chrome and resized
// in place. The whole board can be captured into a history of named
// snapshots and restored later.
//
// Storage is pluggable through core.Gateway: plain files (JSON or YAML,
// optionally versioned with git), SQLite, or memory.
//
// Usage:
//
//	rt, err := boxpad.Open(ctx, "./board",
//		boxpad.WithAutoInit(true),
//		boxpad.WithLogger(logger),
//	)
//	if err != nil {
//		return err
//	}
//	defer rt.Close(ctx)
//
//	note, err := rt.Board.AddNote(ctx, boxpad.Freeform, board.NoteParams{})
package boxpad
