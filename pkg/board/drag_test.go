package board_test

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/boxpad/pkg/adapters/memory"
	"github.com/aretw0/boxpad/pkg/board"
	"github.com/aretw0/boxpad/pkg/core"
	"github.com/aretw0/boxpad/pkg/layout"
)

func TestDrag(t *testing.T) {
	ctx := context.Background()

	newNote := func(t *testing.T) (fixture, core.Note) {
		f := setup(t)
		n, err := f.board.AddNote(ctx, core.VariantFreeform, board.NoteParams{})
		require.NoError(t, err)
		return f, n
	}

	t.Run("Move Then Release Commits", func(t *testing.T) {
		f, n := newNote(t)
		writes := f.gw.Writes(board.KeyNotes)

		d, ok := f.board.BeginDrag(n.ID, board.Point{X: 310, Y: 40}, board.RegionChrome)
		require.True(t, ok)
		assert.Equal(t, board.Dragging, f.board.DragState(n.ID))

		pos, ok := d.Move(board.Point{X: 457, Y: 123})
		require.True(t, ok)
		assert.Equal(t, layout.Position{X: 447, Y: 113}, pos)

		// Live geometry is not stored until release.
		got, _ := f.board.Get(n.ID)
		assert.Equal(t, core.Pixels(300), got.Left)
		assert.Equal(t, writes, f.gw.Writes(board.KeyNotes))

		f.clock.Advance(time.Second)
		ok, err := d.Release(ctx)
		require.NoError(t, err)
		assert.True(t, ok)

		got, _ = f.board.Get(n.ID)
		assert.Equal(t, core.Pixels(447), got.Left)
		assert.Equal(t, core.Pixels(113), got.Top)
		assert.True(t, got.UpdatedAt.Equal(epoch.Add(time.Second)))
		assert.Equal(t, writes+1, f.gw.Writes(board.KeyNotes))
		assert.Equal(t, board.Idle, f.board.DragState(n.ID))

		ok, err = d.Release(ctx)
		require.NoError(t, err)
		assert.False(t, ok, "second release must be a no-op")
	})

	t.Run("Snap", func(t *testing.T) {
		f, n := newNote(t)
		require.NoError(t, f.board.SetSnapEnabled(ctx, true))

		d, ok := f.board.BeginDrag(n.ID, board.Point{X: 310, Y: 40}, board.RegionChrome)
		require.True(t, ok)
		pos, ok := d.Move(board.Point{X: 457, Y: 123})
		require.True(t, ok)
		assert.Equal(t, layout.Position{X: 450, Y: 120}, pos)
		assert.Equal(t, pos, d.Live())
	})

	t.Run("Text Region Never Starts A Drag", func(t *testing.T) {
		f, n := newNote(t)
		_, ok := f.board.BeginDrag(n.ID, board.Point{X: 310, Y: 40}, board.RegionContent)
		assert.False(t, ok)
		assert.Equal(t, board.Idle, f.board.DragState(n.ID))
	})

	t.Run("New Press Replaces Lost Drag", func(t *testing.T) {
		f, n := newNote(t)
		lost, ok := f.board.BeginDrag(n.ID, board.Point{}, board.RegionChrome)
		require.True(t, ok)

		d, ok := f.board.BeginDrag(n.ID, board.Point{X: 310, Y: 40}, board.RegionChrome)
		require.True(t, ok)
		assert.True(t, lost.Revoked())
		assert.False(t, d.Revoked())
		assert.Equal(t, board.Dragging, f.board.DragState(n.ID))

		_, ok = lost.Move(board.Point{X: 900, Y: 900})
		assert.False(t, ok)
		committed, err := lost.Release(ctx)
		require.NoError(t, err)
		assert.False(t, committed)
		assert.Equal(t, board.Dragging, f.board.DragState(n.ID), "a stale release leaves the new drag alone")

		_, ok = d.Move(board.Point{X: 340, Y: 70})
		require.True(t, ok)
		committed, err = d.Release(ctx)
		require.NoError(t, err)
		assert.True(t, committed)
		got, _ := f.board.Get(n.ID)
		assert.Equal(t, n.Left+30, got.Left)
		assert.Equal(t, board.Idle, f.board.DragState(n.ID))
	})

	t.Run("Non-Finite Pointer", func(t *testing.T) {
		f, n := newNote(t)
		_, ok := f.board.BeginDrag(n.ID, board.Point{X: math.NaN(), Y: 0}, board.RegionChrome)
		assert.False(t, ok)

		d, ok := f.board.BeginDrag(n.ID, board.Point{X: 310, Y: 40}, board.RegionChrome)
		require.True(t, ok)
		before := d.Live()
		pos, ok := d.Move(board.Point{X: math.Inf(1), Y: math.NaN()})
		assert.True(t, ok)
		assert.Equal(t, before, pos)

		committed, err := d.Release(ctx)
		require.NoError(t, err)
		assert.True(t, committed)
		_, err = f.board.CaptureSnapshot(ctx)
		assert.NoError(t, err, "the board still serializes")
	})

	t.Run("Unknown Note", func(t *testing.T) {
		f := setup(t)
		_, ok := f.board.BeginDrag("missing", board.Point{}, board.RegionChrome)
		assert.False(t, ok)
	})

	t.Run("Lock Layout", func(t *testing.T) {
		f, n := newNote(t)
		inFlight, ok := f.board.BeginDrag(n.ID, board.Point{X: 300, Y: 30}, board.RegionChrome)
		require.True(t, ok)

		require.NoError(t, f.board.SetDragEnabled(ctx, false))
		before := f.board.List(nil)

		other, err := f.board.AddNote(ctx, core.VariantFreeform, board.NoteParams{})
		require.NoError(t, err)
		_, ok = f.board.BeginDrag(other.ID, board.Point{}, board.RegionChrome)
		assert.False(t, ok)
		assert.Equal(t, before[0], f.board.List(nil)[0], "locking leaves stored geometry alone")

		// A drag that was already running finishes normally.
		_, ok = inFlight.Move(board.Point{X: 330, Y: 60})
		require.True(t, ok)
		ok, err = inFlight.Release(ctx)
		require.NoError(t, err)
		assert.True(t, ok)

		require.NoError(t, f.board.SetDragEnabled(ctx, true))
		_, ok = f.board.BeginDrag(other.ID, board.Point{}, board.RegionChrome)
		assert.True(t, ok)
	})

	t.Run("Delete Revokes Token", func(t *testing.T) {
		f, n := newNote(t)
		d, ok := f.board.BeginDrag(n.ID, board.Point{X: 300, Y: 30}, board.RegionChrome)
		require.True(t, ok)

		_, err := f.board.RemoveNote(ctx, n.ID)
		require.NoError(t, err)
		writes := f.gw.Writes(board.KeyNotes)

		assert.True(t, d.Revoked())
		_, ok = d.Move(board.Point{X: 500, Y: 500})
		assert.False(t, ok)
		ok, err = d.Release(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, writes, f.gw.Writes(board.KeyNotes))
		assert.Zero(t, f.board.Len())
	})

	t.Run("Release After Restore And Delete", func(t *testing.T) {
		f, n := newNote(t)
		snap, err := f.board.CaptureSnapshot(ctx)
		require.NoError(t, err)

		d, ok := f.board.BeginDrag(n.ID, board.Point{X: 300, Y: 30}, board.RegionChrome)
		require.True(t, ok)
		_, _ = d.Move(board.Point{X: 700, Y: 900})

		require.NoError(t, f.board.RestoreSnapshot(ctx, snap.ID))
		_, err = f.board.RemoveNote(ctx, n.ID)
		require.NoError(t, err)
		before := f.board.List(nil)

		ok, err = d.Release(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, before, f.board.List(nil))
	})

	t.Run("Restore Revokes Even When The Id Survives", func(t *testing.T) {
		f, n := newNote(t)
		snap, err := f.board.CaptureSnapshot(ctx)
		require.NoError(t, err)

		d, ok := f.board.BeginDrag(n.ID, board.Point{X: 300, Y: 30}, board.RegionChrome)
		require.True(t, ok)
		_, _ = d.Move(board.Point{X: 700, Y: 900})
		require.NoError(t, f.board.RestoreSnapshot(ctx, snap.ID))

		ok, err = d.Release(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
		got, _ := f.board.Get(n.ID)
		assert.Equal(t, core.Pixels(300), got.Left)
	})

	t.Run("Reload Revokes", func(t *testing.T) {
		f, n := newNote(t)
		d, ok := f.board.BeginDrag(n.ID, board.Point{}, board.RegionChrome)
		require.True(t, ok)
		require.NoError(t, f.board.Reload(ctx))
		assert.True(t, d.Revoked())
		assert.Equal(t, board.Idle, f.board.DragState(n.ID))
	})
}

func TestOnGeometryChanged(t *testing.T) {
	ctx := context.Background()

	t.Run("Normal Slot", func(t *testing.T) {
		f := setup(t)
		n, _ := f.board.AddNote(ctx, core.VariantFreeform, board.NoteParams{})
		f.clock.Advance(time.Second)

		ok, err := f.board.OnGeometryChanged(ctx, n.ID, layout.Size{Width: 260, Height: 200})
		require.NoError(t, err)
		require.True(t, ok)

		stored := storedNotes(t, f.gw)[0]
		assert.Equal(t, core.Pixels(260), stored.Width)
		assert.Equal(t, core.Pixels(200), stored.Height)
		assert.Zero(t, stored.ExpandedWidth)
		assert.True(t, stored.UpdatedAt.Equal(epoch.Add(time.Second)))
	})

	t.Run("Non-Finite Size Is Ignored", func(t *testing.T) {
		f := setup(t)
		n, _ := f.board.AddNote(ctx, core.VariantFreeform, board.NoteParams{})
		writes := f.gw.Writes(board.KeyNotes)

		for _, size := range []layout.Size{
			{Width: math.NaN(), Height: 100},
			{Width: 100, Height: math.Inf(1)},
			{Width: math.Inf(-1), Height: 100},
		} {
			ok, err := f.board.OnGeometryChanged(ctx, n.ID, size)
			require.NoError(t, err)
			assert.False(t, ok)
		}
		assert.Equal(t, writes, f.gw.Writes(board.KeyNotes))
		got, _ := f.board.Get(n.ID)
		assert.Equal(t, n.Width, got.Width)

		_, err := f.board.AddNote(ctx, core.VariantRectangle, board.NoteParams{})
		require.NoError(t, err)
		_, err = f.board.CaptureSnapshot(ctx)
		require.NoError(t, err)
	})

	t.Run("Expanded Slot", func(t *testing.T) {
		f := setup(t)
		n, _ := f.board.AddNote(ctx, core.VariantFreeform, board.NoteParams{})

		ok, err := f.board.ToggleExpanded(ctx, n.ID)
		require.NoError(t, err)
		require.True(t, ok)
		got, _ := f.board.Get(n.ID)
		assert.True(t, got.Expanded)
		assert.Equal(t, core.Pixels(board.ExpandedWidth), got.ExpandedWidth)
		assert.Equal(t, core.Pixels(board.ExpandedHeight), got.ExpandedHeight)

		_, err = f.board.OnGeometryChanged(ctx, n.ID, layout.Size{Width: 700, Height: 500})
		require.NoError(t, err)
		got, _ = f.board.Get(n.ID)
		assert.Equal(t, core.Pixels(700), got.ExpandedWidth)
		assert.Equal(t, core.Pixels(220), got.Width, "normal slot untouched")

		_, err = f.board.ToggleExpanded(ctx, n.ID)
		require.NoError(t, err)
		_, err = f.board.ToggleExpanded(ctx, n.ID)
		require.NoError(t, err)
		got, _ = f.board.Get(n.ID)
		assert.Equal(t, core.Pixels(700), got.ExpandedWidth, "expanded slot kept between toggles")
		assert.Equal(t, core.Pixels(500), got.ExpandedHeight)
	})

	t.Run("Stale Id", func(t *testing.T) {
		f := setup(t)
		ok, err := f.board.OnGeometryChanged(ctx, "gone", layout.Size{Width: 1, Height: 1})
		require.NoError(t, err)
		assert.False(t, ok)
		ok, err = f.board.ToggleExpanded(ctx, "gone")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Unchanged Size Skips Write", func(t *testing.T) {
		f := setup(t)
		n, _ := f.board.AddNote(ctx, core.VariantFreeform, board.NoteParams{})
		writes := f.gw.Writes(board.KeyNotes)
		ok, err := f.board.OnGeometryChanged(ctx, n.ID, layout.Size{Width: 220, Height: 140})
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, writes, f.gw.Writes(board.KeyNotes))
	})
}

func TestResizeDebounce(t *testing.T) {
	ctx := context.Background()

	t.Run("Flush Writes Settled State Once", func(t *testing.T) {
		f := setup(t, board.WithResizeDebounce(time.Hour))
		n, _ := f.board.AddNote(ctx, core.VariantFreeform, board.NoteParams{})
		writes := f.gw.Writes(board.KeyNotes)

		for w := 221; w <= 240; w++ {
			_, err := f.board.OnGeometryChanged(ctx, n.ID, layout.Size{Width: float64(w), Height: 140})
			require.NoError(t, err)
		}
		assert.True(t, f.board.Pending())
		assert.Equal(t, writes, f.gw.Writes(board.KeyNotes))

		require.NoError(t, f.board.Flush(ctx))
		assert.False(t, f.board.Pending())
		assert.Equal(t, writes+1, f.gw.Writes(board.KeyNotes))
		assert.Equal(t, core.Pixels(240), storedNotes(t, f.gw)[0].Width)
	})

	t.Run("Other Mutations Carry Pending Size", func(t *testing.T) {
		f := setup(t, board.WithResizeDebounce(time.Hour))
		n, _ := f.board.AddNote(ctx, core.VariantFreeform, board.NoteParams{})

		_, err := f.board.OnGeometryChanged(ctx, n.ID, layout.Size{Width: 300, Height: 300})
		require.NoError(t, err)
		_, err = f.board.UpdateNote(ctx, n.ID, board.Patch{}.WithContent("x"))
		require.NoError(t, err)

		assert.False(t, f.board.Pending())
		assert.Equal(t, core.Pixels(300), storedNotes(t, f.gw)[0].Width)
	})

	t.Run("Timer Fires", func(t *testing.T) {
		f := setup(t, board.WithResizeDebounce(20*time.Millisecond))
		n, _ := f.board.AddNote(ctx, core.VariantFreeform, board.NoteParams{})

		for _, w := range []float64{250, 260, 270} {
			_, err := f.board.OnGeometryChanged(ctx, n.ID, layout.Size{Width: w, Height: 140})
			require.NoError(t, err)
		}
		require.Eventually(t, func() bool { return !f.board.Pending() }, time.Second, 5*time.Millisecond)
		assert.Equal(t, core.Pixels(270), storedNotes(t, f.gw)[0].Width)
	})

	t.Run("Reload Keeps Pending Size", func(t *testing.T) {
		f := setup(t, board.WithResizeDebounce(time.Hour))
		n, _ := f.board.AddNote(ctx, core.VariantFreeform, board.NoteParams{})
		_, err := f.board.OnGeometryChanged(ctx, n.ID, layout.Size{Width: 500, Height: 500})
		require.NoError(t, err)

		// Another process touches only the history key.
		f.gw.Put(board.KeyHistory, []byte(`[]`))
		require.NoError(t, f.board.Reload(ctx))
		require.NoError(t, f.board.Flush(ctx))

		got, _ := f.board.Get(n.ID)
		assert.Equal(t, core.Pixels(500), got.Width)
		assert.Equal(t, core.Pixels(500), storedNotes(t, f.gw)[0].Width)
		assert.False(t, f.board.Pending())
	})

	t.Run("Timer Keeps Change Reason", func(t *testing.T) {
		gw := &reasonGateway{Gateway: memory.New()}
		b := board.New(gw, board.WithResizeDebounce(20*time.Millisecond))
		require.NoError(t, b.Load(ctx))
		n, err := b.AddNote(ctx, core.VariantFreeform, board.NoteParams{})
		require.NoError(t, err)

		_, err = b.OnGeometryChanged(core.WithChangeReason(ctx, "resize from ui"), n.ID, layout.Size{Width: 280, Height: 140})
		require.NoError(t, err)
		require.Eventually(t, func() bool { return !b.Pending() }, time.Second, 5*time.Millisecond)
		assert.Equal(t, "resize from ui", gw.last(board.KeyNotes))
	})

	t.Run("Close Flushes", func(t *testing.T) {
		f := setup(t, board.WithResizeDebounce(time.Hour))
		n, _ := f.board.AddNote(ctx, core.VariantFreeform, board.NoteParams{})
		_, err := f.board.OnGeometryChanged(ctx, n.ID, layout.Size{Width: 333, Height: 140})
		require.NoError(t, err)

		require.NoError(t, f.board.Close(ctx))
		assert.Equal(t, core.Pixels(333), storedNotes(t, f.gw)[0].Width)
	})
}

// reasonGateway records the change reason of every save.
type reasonGateway struct {
	*memory.Gateway
	mu      sync.Mutex
	reasons map[string]string
}

func (g *reasonGateway) Save(ctx context.Context, key string, data []byte) error {
	reason, _ := ctx.Value(core.ChangeReasonKey).(string)
	g.mu.Lock()
	if g.reasons == nil {
		g.reasons = make(map[string]string)
	}
	g.reasons[key] = reason
	g.mu.Unlock()
	return g.Gateway.Save(ctx, key, data)
}

func (g *reasonGateway) last(key string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.reasons[key]
}
