package core

import "errors"

// Common errors.
var (
	ErrReadOnly         = errors.New("store is in read-only mode")
	ErrNotFound         = errors.New("key not found")
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrNothingToSave    = errors.New("nothing to save")
	ErrUnknownColor     = errors.New("colour is not in the palette")
	ErrUnknownVariant   = errors.New("unknown note variant")
)
