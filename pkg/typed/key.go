// Package typed gives type-safe, versioned access to values held in a core.Gateway.
//
// Values are wrapped in an envelope carrying a schema version:
//
//	{"version": 2, "items": [...]}
//
// Payloads written before the envelope existed (a bare JSON array) are read as
// version 1. A Key's Migrate hook upgrades older payloads before decoding.
package typed

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// LegacyVersion is the implicit version of a payload that has no envelope.
const LegacyVersion = 1

// Envelope is the on-wire shape of every versioned value.
type Envelope struct {
	Version int             `json:"version"`
	Items   json.RawMessage `json:"items"`
}

// Migration upgrades items written at version `from` to the next version.
// It is called repeatedly until the payload reaches Key.Version.
type Migration func(from int, items json.RawMessage) (json.RawMessage, error)

// Key describes one stored value: where it lives, its schema version and how
// to fill it when nothing usable is stored.
type Key[T any] struct {
	Name    string
	Version int
	Default func() T
	Migrate Migration
}

func (k Key[T]) zero() T {
	if k.Default != nil {
		return k.Default()
	}
	var v T
	return v
}

// Encode wraps v in an envelope at the key's current version.
func (k Key[T]) Encode(v T) ([]byte, error) {
	items, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", k.Name, err)
	}
	return json.Marshal(Envelope{Version: k.Version, Items: items})
}

// Decode unwraps data, migrating it forward when needed. It returns the
// version the payload was stored at.
func (k Key[T]) Decode(data []byte) (T, int, error) {
	env, err := unwrap(data)
	if err != nil {
		return k.zero(), 0, fmt.Errorf("invalid %s payload: %w", k.Name, err)
	}
	stored := env.Version

	if env.Version > k.Version {
		return k.zero(), stored, fmt.Errorf("%s payload version %d is newer than supported %d", k.Name, env.Version, k.Version)
	}

	items := env.Items
	for v := env.Version; v < k.Version; v++ {
		if k.Migrate == nil {
			break
		}
		items, err = k.Migrate(v, items)
		if err != nil {
			return k.zero(), stored, fmt.Errorf("failed to migrate %s from v%d: %w", k.Name, v, err)
		}
	}

	out := k.zero()
	if len(bytes.TrimSpace(items)) == 0 || bytes.Equal(bytes.TrimSpace(items), []byte("null")) {
		return out, stored, nil
	}
	if err := json.Unmarshal(items, &out); err != nil {
		return k.zero(), stored, fmt.Errorf("failed to unmarshal %s: %w", k.Name, err)
	}
	return out, stored, nil
}

func unwrap(data []byte) (Envelope, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Envelope{}, fmt.Errorf("empty payload")
	}

	if trimmed[0] == '[' {
		if !json.Valid(trimmed) {
			return Envelope{}, fmt.Errorf("malformed legacy array")
		}
		return Envelope{Version: LegacyVersion, Items: trimmed}, nil
	}

	var env Envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return Envelope{}, err
	}
	if env.Version == 0 {
		return Envelope{}, fmt.Errorf("envelope has no version")
	}
	return env, nil
}
