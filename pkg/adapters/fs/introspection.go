package fs

import (
	"time"

	"github.com/aretw0/introspection"
)

// GatewayState exposes internal state for observability.
type GatewayState struct {
	Path          string     `json:"path"`
	SystemDir     string     `json:"system_dir"`
	Format        string     `json:"format"`
	Gitless       bool       `json:"gitless"`
	ReadOnly      bool       `json:"read_only"`
	WatcherActive bool       `json:"watcher_active"`
	Commits       int        `json:"commits"`
	LastCommit    *time.Time `json:"last_commit,omitempty"`
}

// State implements introspection.Introspectable.
func (g *Gateway) State() any {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return GatewayState{
		Path:          g.Path,
		SystemDir:     g.config.SystemDir,
		Format:        g.serializer.Ext(),
		Gitless:       g.config.Gitless,
		ReadOnly:      g.config.ReadOnly,
		WatcherActive: g.watcherActive,
		Commits:       g.commits,
		LastCommit:    g.lastCommit,
	}
}

// ComponentType implements introspection.Component.
func (g *Gateway) ComponentType() string {
	return "fs-gateway"
}

var _ introspection.Introspectable = (*Gateway)(nil)
var _ introspection.Component = (*Gateway)(nil)

func (g *Gateway) setWatcherActive(active bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.watcherActive = active
}
