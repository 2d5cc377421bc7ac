package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/boxpad/pkg/adapters/sqlite"
	"github.com/aretw0/boxpad/pkg/board"
	"github.com/aretw0/boxpad/pkg/core"
)

func setup(t *testing.T) *sqlite.Gateway {
	t.Helper()
	gw := sqlite.NewGateway(sqlite.Config{Path: t.TempDir()})
	require.NoError(t, gw.Initialize(context.Background()))
	t.Cleanup(func() { _ = gw.Close() })
	return gw
}

func TestGateway(t *testing.T) {
	ctx := context.Background()
	gw := setup(t)
	assert.Equal(t, sqlite.DefaultFile, filepath.Base(gw.Path))

	_, err := gw.Load(ctx, "notes")
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, gw.Save(ctx, "notes", []byte(`[1]`)))
	require.NoError(t, gw.Save(context.WithValue(ctx, core.ChangeReasonKey, "restore"), "notes", []byte(`[2]`)))

	got, err := gw.Load(ctx, "notes")
	require.NoError(t, err)
	assert.Equal(t, `[2]`, string(got))

	reason, err := gw.Reason(ctx, "notes")
	require.NoError(t, err)
	assert.Equal(t, "restore", reason)

	state := gw.State().(sqlite.GatewayState)
	assert.True(t, state.Open)
	assert.Equal(t, 2, state.Writes)
}

func TestGateway_NotInitialized(t *testing.T) {
	gw := sqlite.NewGateway(sqlite.Config{Path: filepath.Join(t.TempDir(), "x.db")})
	_, err := gw.Load(context.Background(), "notes")
	assert.Error(t, err)
	assert.NoError(t, gw.Close())
}

func TestGateway_ReadOnly(t *testing.T) {
	gw := sqlite.NewGateway(sqlite.Config{Path: filepath.Join(t.TempDir(), "ro.db"), ReadOnly: true})
	require.NoError(t, gw.Initialize(context.Background()))
	defer gw.Close()
	assert.ErrorIs(t, gw.Save(context.Background(), "notes", []byte(`[]`)), core.ErrReadOnly)
}

func TestGateway_PersistsBoard(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "board.db")

	gw := sqlite.NewGateway(sqlite.Config{Path: path})
	require.NoError(t, gw.Initialize(ctx))
	b := board.New(gw)
	require.NoError(t, b.Load(ctx))
	n, err := b.AddNote(ctx, core.VariantFreeform, board.NoteParams{})
	require.NoError(t, err)
	_, err = b.CaptureSnapshot(ctx)
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	reopened := sqlite.NewGateway(sqlite.Config{Path: path})
	require.NoError(t, reopened.Initialize(ctx))
	defer reopened.Close()
	again := board.New(reopened)
	require.NoError(t, again.Load(ctx))

	got, ok := again.Get(n.ID)
	require.True(t, ok)
	assert.Equal(t, n, got)
	assert.Len(t, again.History(), 1)
}
