package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/boxpad/pkg/board"
	"github.com/aretw0/boxpad/pkg/core"
	"github.com/aretw0/boxpad/pkg/layout"
	"github.com/aretw0/boxpad/pkg/query"
)

type addNoteRequest struct {
	Type  string `json:"type"`
	Color string `json:"color"`
	Lines int    `json:"lines"`
}

type patchNoteRequest struct {
	Content   *string `json:"content"`
	TopicName *string `json:"topicName"`
	Color     *string `json:"color"`
}

type pointRequest struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Region string  `json:"region"`
}

type settingsRequest struct {
	PageExpanded *bool `json:"pageExpanded"`
	Locked       *bool `json:"locked"`
	Snap         *bool `json:"snap"`
}

type renameRequest struct {
	Name string `json:"name"`
}

type dragResponse struct {
	Drag     string          `json:"drag"`
	NoteID   string          `json:"noteId"`
	Position layout.Position `json:"position"`
}

func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	pred, err := query.Where(r.URL.Query().Get("where"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, h.board.List(pred))
}

func (h *Handler) AddNote(w http.ResponseWriter, r *http.Request) {
	var req addNoteRequest
	if !decode(w, r, &req) {
		return
	}
	variant, err := core.ParseVariant(req.Type)
	if err != nil {
		h.fail(w, err)
		return
	}
	n, err := h.board.AddNote(r.Context(), variant, board.NoteParams{Color: req.Color, LineCount: req.Lines})
	if err != nil && n.ID == "" {
		h.fail(w, err)
		return
	}
	h.warnPersist(err)
	writeJSON(w, http.StatusCreated, n)
}

func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	n, ok := h.board.Get(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "note not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var req patchNoteRequest
	if !decode(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	ok, err := h.board.UpdateNote(r.Context(), id, board.Patch{
		Content:   req.Content,
		TopicName: req.TopicName,
		Color:     req.Color,
	})
	h.noteResult(w, id, ok, err)
}

func (h *Handler) RemoveNote(w http.ResponseWriter, r *http.Request) {
	ok, err := h.board.RemoveNote(r.Context(), chi.URLParam(r, "id"))
	if !h.check(w, ok, err, "note not found") {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearNotes needs ?confirm=true; the query flag plays the role of the
// interactive prompt.
func (h *Handler) ClearNotes(w http.ResponseWriter, r *http.Request) {
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	cleared, err := h.board.ClearAll(r.Context(), board.ConfirmFunc(func(context.Context, string) bool {
		return confirmed
	}))
	if err != nil && !cleared {
		h.fail(w, err)
		return
	}
	if !cleared {
		http.Error(w, "confirmation required: "+board.ClearPrompt, http.StatusConflict)
		return
	}
	h.warnPersist(err)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Resize(w http.ResponseWriter, r *http.Request) {
	var size layout.Size
	if !decode(w, r, &size) {
		return
	}
	id := chi.URLParam(r, "id")
	ok, err := h.board.OnGeometryChanged(r.Context(), id, size)
	h.noteResult(w, id, ok, err)
}

func (h *Handler) ToggleExpanded(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ok, err := h.board.ToggleExpanded(r.Context(), id)
	h.noteResult(w, id, ok, err)
}

func (h *Handler) BeginDrag(w http.ResponseWriter, r *http.Request) {
	var req pointRequest
	if !decode(w, r, &req) {
		return
	}
	region := board.RegionChrome
	if req.Region == "content" {
		region = board.RegionContent
	}
	d, ok := h.board.BeginDrag(chi.URLParam(r, "id"), board.Point{X: req.X, Y: req.Y}, region)
	if !ok {
		http.Error(w, "drag not started", http.StatusConflict)
		return
	}

	h.mu.Lock()
	h.pruneLocked()
	h.seq++
	token := fmt.Sprintf("drag-%d", h.seq)
	h.drags[token] = d
	h.mu.Unlock()

	writeJSON(w, http.StatusCreated, dragResponse{Drag: token, NoteID: d.NoteID(), Position: d.Live()})
}

func (h *Handler) MoveDrag(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "drag")
	d, ok := h.drag(token, false)
	if !ok {
		http.Error(w, "drag not found", http.StatusNotFound)
		return
	}
	var req pointRequest
	if !decode(w, r, &req) {
		return
	}
	pos, ok := d.Move(board.Point{X: req.X, Y: req.Y})
	if !ok {
		h.drag(token, true)
		http.Error(w, "drag revoked", http.StatusGone)
		return
	}
	writeJSON(w, http.StatusOK, dragResponse{Drag: token, NoteID: d.NoteID(), Position: pos})
}

func (h *Handler) ReleaseDrag(w http.ResponseWriter, r *http.Request) {
	d, ok := h.drag(chi.URLParam(r, "drag"), true)
	if !ok {
		http.Error(w, "drag not found", http.StatusNotFound)
		return
	}
	committed, err := d.Release(r.Context())
	if !committed {
		http.Error(w, "drag revoked", http.StatusGone)
		return
	}
	h.warnPersist(err)
	n, _ := h.board.Get(d.NoteID())
	writeJSON(w, http.StatusOK, n)
}

func (h *Handler) drag(token string, remove bool) (*board.Drag, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	d, ok := h.drags[token]
	if ok && remove {
		delete(h.drags, token)
	}
	h.pruneLocked()
	return d, ok
}

// pruneLocked forgets tokens the board revoked: deleted notes, cleared or
// restored boards and drags superseded by a new press.
func (h *Handler) pruneLocked() {
	for token, d := range h.drags {
		if d.Revoked() {
			delete(h.drags, token)
		}
	}
}

func (h *Handler) activeDrags() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pruneLocked()
	return len(h.drags)
}

func (h *Handler) GetViewport(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.board.Viewport())
}

func (h *Handler) SetViewport(w http.ResponseWriter, r *http.Request) {
	var vp layout.Viewport
	if !decode(w, r, &vp) {
		return
	}
	h.board.SetViewport(vp)
	writeJSON(w, http.StatusOK, h.board.Viewport())
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.board.Settings())
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if !decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	var errs []error
	if req.PageExpanded != nil {
		errs = append(errs, h.board.SetPageExpanded(ctx, *req.PageExpanded))
	}
	if req.Locked != nil {
		errs = append(errs, h.board.SetDragEnabled(ctx, !*req.Locked))
	}
	if req.Snap != nil {
		errs = append(errs, h.board.SetSnapEnabled(ctx, *req.Snap))
	}
	h.warnPersist(errors.Join(errs...))
	writeJSON(w, http.StatusOK, h.board.Settings())
}

// ListSnapshots lists history in capture order, or most recent first with
// ?order=timeline. ?match filters names by glob.
func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	entries := h.board.History()
	if r.URL.Query().Get("order") == "timeline" {
		entries = h.board.Timeline()
	}
	entries, err := query.Snapshots(entries, r.URL.Query().Get("match"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) CaptureSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.board.CaptureSnapshot(r.Context())
	h.warnPersist(err)
	writeJSON(w, http.StatusCreated, snap)
}

func (h *Handler) SaveBoard(w http.ResponseWriter, r *http.Request) {
	snap, err := h.board.SaveBoard(r.Context())
	if errors.Is(err, core.ErrNothingToSave) {
		h.fail(w, err)
		return
	}
	h.warnPersist(err)
	writeJSON(w, http.StatusCreated, snap)
}

func (h *Handler) CurrentSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.board.Snapshot(h.board.CurrentSnapshotID())
	if !ok {
		http.Error(w, "no current snapshot", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.board.Snapshot(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "snapshot not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) RenameSnapshot(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if !decode(w, r, &req) {
		return
	}
	snap, err := h.board.RenameSnapshot(r.Context(), chi.URLParam(r, "id"), req.Name)
	if errors.Is(err, core.ErrSnapshotNotFound) {
		h.fail(w, err)
		return
	}
	h.warnPersist(err)
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) DeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	ok, err := h.board.DeleteSnapshot(r.Context(), chi.URLParam(r, "id"))
	if !h.check(w, ok, err, "snapshot not found") {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	err := h.board.RestoreSnapshot(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, core.ErrSnapshotNotFound) {
		h.fail(w, err)
		return
	}
	h.warnPersist(err)
	writeJSON(w, http.StatusOK, h.board.List(nil))
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	text, err := h.board.ExportJSON()
	if err != nil {
		h.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="board.json"`)
	_, _ = w.Write([]byte(text))
}

func (h *Handler) Backup(w http.ResponseWriter, r *http.Request) {
	if !h.board.CopyBackup(r.Context(), h.cfg.Sink) {
		http.Error(w, "backup failed", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.board.State())
}

// noteResult answers with the updated note, 404 when the id was stale.
func (h *Handler) noteResult(w http.ResponseWriter, id string, ok bool, err error) {
	if !h.check(w, ok, err, "note not found") {
		return
	}
	n, _ := h.board.Get(id)
	writeJSON(w, http.StatusOK, n)
}

// check handles the (applied, error) pair every mutation returns. A
// persistence failure after an applied change is logged, not surfaced: the
// in-memory board already holds the change.
func (h *Handler) check(w http.ResponseWriter, ok bool, err error, missing string) bool {
	if !ok {
		if err != nil {
			h.fail(w, err)
		} else {
			http.Error(w, missing, http.StatusNotFound)
		}
		return false
	}
	h.warnPersist(err)
	return true
}

func (h *Handler) warnPersist(err error) {
	if err != nil {
		h.logger.Warn("board change not persisted", "error", err)
	}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "error", err)
	}
	http.Error(w, err.Error(), status)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrSnapshotNotFound), errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrUnknownColor), errors.Is(err, core.ErrUnknownVariant):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNothingToSave):
		return http.StatusConflict
	case errors.Is(err, core.ErrReadOnly):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
