package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	adapter "github.com/aretw0/boxpad/pkg/adapters/lifecycle"
	"github.com/aretw0/boxpad/pkg/core"
)

type eventPayload struct {
	Type      core.EventType `json:"type"`
	ID        string         `json:"id,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

// Events streams board changes as server-sent events until the client leaves.
// ?types=CREATE,DELETE limits the stream to those event types.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	var types []core.EventType
	for _, t := range strings.Split(r.URL.Query().Get("types"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, core.EventType(strings.ToUpper(t)))
		}
	}
	src := adapter.NewSource(h.board.Watch(ctx), adapter.WithTypes(types...), adapter.WithBuffer(h.cfg.EventBuffer))
	if err := src.Start(ctx); err != nil {
		h.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	for ev := range src.Events() {
		e, ok := ev.(core.Event)
		if !ok {
			continue
		}
		data, err := json.Marshal(eventPayload{Type: e.Type, ID: e.ID, Timestamp: e.Timestamp})
		if err != nil {
			continue
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type, data); err != nil {
			return
		}
		flusher.Flush()
	}
}
