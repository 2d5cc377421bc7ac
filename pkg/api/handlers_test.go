package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/boxpad/pkg/adapters/memory"
	"github.com/aretw0/boxpad/pkg/board"
	"github.com/aretw0/boxpad/pkg/core"
)

func TestDragTokensArePruned(t *testing.T) {
	ctx := context.Background()
	b := board.New(memory.New())
	require.NoError(t, b.Load(ctx))
	h := newHandler(b, Config{})
	router := h.routes()

	begin := func(id string) {
		t.Helper()
		body, _ := json.Marshal(map[string]float64{"x": 20, "y": 20})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/notes/"+id+"/drag", bytes.NewReader(body)))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	var ids []string
	for range 3 {
		n, err := b.AddNote(ctx, core.VariantFreeform, board.NoteParams{})
		require.NoError(t, err)
		ids = append(ids, n.ID)
		begin(n.ID)
	}
	assert.Equal(t, 3, h.activeDrags())

	_, err := b.RemoveNote(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, 2, h.activeDrags(), "deleting a note drops its token")

	begin(ids[1])
	assert.Equal(t, 2, h.activeDrags(), "a superseded token is dropped")

	ok, err := b.ClearAll(ctx, board.ConfirmFunc(func(context.Context, string) bool { return true }))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Zero(t, h.activeDrags())
}
