package core

import "context"

// Gateway is the persistence port: a synchronous key → JSON value store.
// Adhering to this interface keeps the board independent of the storage
// mechanism (plain files, SQLite, memory).
type Gateway interface {
	// Load returns the raw JSON stored under key, or ErrNotFound.
	Load(ctx context.Context, key string) ([]byte, error)

	// Save replaces the value stored under key.
	Save(ctx context.Context, key string, data []byte) error

	// Initialize ensures the underlying storage is ready (directories, schema, git init).
	Initialize(ctx context.Context) error
}

// Watchable is implemented by gateways that can report changes made by other processes.
type Watchable interface {
	// Watch emits an EventModify with the store key each time a value changes on disk.
	Watch(ctx context.Context) (<-chan Event, error)
}

// Closer is implemented by gateways holding resources (database handles).
type Closer interface {
	Close() error
}

type contextKey string

// ChangeReasonKey is the context key for passing a change reason (commit message)
// to versioned gateways during Save.
const ChangeReasonKey contextKey = "change_reason"

// WithChangeReason attaches a change reason to ctx. Blank reasons leave ctx untouched.
func WithChangeReason(ctx context.Context, reason string) context.Context {
	if reason == "" {
		return ctx
	}
	return context.WithValue(ctx, ChangeReasonKey, reason)
}
