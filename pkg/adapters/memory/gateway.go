// Package memory is an in-process core.Gateway, used by tests and by the
// "memory" adapter for throwaway boards.
package memory

import (
	"context"
	"sync"

	"github.com/aretw0/introspection"

	"github.com/aretw0/boxpad/pkg/core"
)

// Gateway keeps values in a map. Saves are counted so callers can observe
// write amplification.
type Gateway struct {
	mu     sync.RWMutex
	values map[string][]byte
	writes map[string]int
	// FailSave, when set, is returned by every Save.
	FailSave error
}

// New creates an empty gateway.
func New() *Gateway {
	return &Gateway{
		values: make(map[string][]byte),
		writes: make(map[string]int),
	}
}

// Initialize is a no-op.
func (g *Gateway) Initialize(ctx context.Context) error { return nil }

// Load returns a copy of the stored bytes.
func (g *Gateway) Load(ctx context.Context, key string) ([]byte, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	v, ok := g.values[key]
	if !ok {
		return nil, core.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Save stores a copy of data.
func (g *Gateway) Save(ctx context.Context, key string, data []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.FailSave != nil {
		return g.FailSave
	}
	g.values[key] = append([]byte(nil), data...)
	g.writes[key]++
	return nil
}

// Put seeds a raw value without counting it as a write.
func (g *Gateway) Put(key string, data []byte) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.values[key] = append([]byte(nil), data...)
}

// Writes reports how many times key was saved.
func (g *Gateway) Writes(key string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.writes[key]
}

// GatewayState exposes internal state for observability.
type GatewayState struct {
	Keys   int            `json:"keys"`
	Writes map[string]int `json:"writes"`
}

// State implements introspection.Introspectable.
func (g *Gateway) State() any {
	g.mu.RLock()
	defer g.mu.RUnlock()

	writes := make(map[string]int, len(g.writes))
	for k, v := range g.writes {
		writes[k] = v
	}
	return GatewayState{Keys: len(g.values), Writes: writes}
}

// ComponentType implements introspection.Component.
func (g *Gateway) ComponentType() string {
	return "memory-gateway"
}

var _ core.Gateway = (*Gateway)(nil)
var _ introspection.Introspectable = (*Gateway)(nil)
var _ introspection.Component = (*Gateway)(nil)
