package layout_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/aretw0/boxpad/pkg/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnap(t *testing.T) {
	cases := map[float64]float64{
		0:   0,
		14:  0,
		15:  30,
		16:  30,
		290: 300,
		-20: -30,
		496: 510,
	}
	for in, want := range cases {
		assert.Equal(t, want, layout.Snap(in), "Snap(%v)", in)
	}
}

func TestRect_Overlaps(t *testing.T) {
	a := layout.Rect{Left: 0, Top: 0, Width: 100, Height: 100}

	t.Run("Disjoint", func(t *testing.T) {
		assert.False(t, a.Overlaps(layout.Rect{Left: 101, Top: 0, Width: 10, Height: 10}))
		assert.False(t, a.Overlaps(layout.Rect{Left: 0, Top: 101, Width: 10, Height: 10}))
		assert.False(t, a.Overlaps(layout.Rect{Left: -20, Top: 0, Width: 10, Height: 10}))
	})

	t.Run("Touching Edges Overlap", func(t *testing.T) {
		assert.True(t, a.Overlaps(layout.Rect{Left: 100, Top: 0, Width: 10, Height: 10}))
		assert.True(t, a.Overlaps(layout.Rect{Left: 0, Top: 100, Width: 10, Height: 10}))
	})

	t.Run("Contained", func(t *testing.T) {
		assert.True(t, a.Overlaps(layout.Rect{Left: 10, Top: 10, Width: 10, Height: 10}))
	})
}

func TestAllocate_EmptyBoardFreeform(t *testing.T) {
	vp := layout.DefaultViewport()

	pos := layout.Allocate(nil, layout.Request{
		Size:     layout.Size{Width: 220, Height: 140},
		Mode:     layout.Centered,
		Viewport: vp,
	})

	// 800/2 - 110 = 290 snaps to 300; the padded start 16 snaps to 30.
	assert.Equal(t, layout.Position{X: 300, Y: 30}, pos)
}

func TestAllocate_StacksRectangleBelowExisting(t *testing.T) {
	vp := layout.DefaultViewport()
	existing := []layout.Rect{{Left: 16, Top: 16, Width: 768, Height: 480}}

	pos := layout.Allocate(existing, layout.Request{
		Size:     layout.Size{Width: 768, Height: 480},
		Mode:     layout.FullWidth,
		Viewport: vp,
	})

	assert.Equal(t, float64(layout.Padding), pos.X)
	assert.Equal(t, float64(510), pos.Y)
	assert.False(t, layout.Rect{Left: pos.X, Top: pos.Y, Width: 768, Height: 480}.Overlaps(existing[0]))
}

func TestAllocate_ChecksAllVariants(t *testing.T) {
	// A centred freeform box sits in the full-width column too.
	vp := layout.DefaultViewport()
	existing := []layout.Rect{{Left: 300, Top: 30, Width: 220, Height: 140}}

	pos := layout.Allocate(existing, layout.Request{
		Size:     layout.Size{Width: 768, Height: 480},
		Mode:     layout.FullWidth,
		Viewport: vp,
	})

	assert.Equal(t, float64(180), pos.Y)
}

func TestAllocate_BoundedFallback(t *testing.T) {
	vp := layout.DefaultViewport()
	// One box covering the whole scrollable area: every candidate collides.
	existing := []layout.Rect{{Left: 0, Top: 0, Width: 800, Height: layout.BoardHeight}}

	pos := layout.Allocate(existing, layout.Request{
		Size:     layout.Size{Width: 220, Height: 140},
		Mode:     layout.Centered,
		Viewport: vp,
	})

	assert.Equal(t, layout.Position{X: 300, Y: 30}, pos)
}

func TestAllocate_FallbackAfterMaxAttempts(t *testing.T) {
	vp := layout.DefaultViewport()
	vp.ScrollHeight = 20000
	// Dense column: 100 steps of 30px all collide, the 101st would not.
	existing := []layout.Rect{{Left: 0, Top: 0, Width: 800, Height: layout.MaxAttempts * layout.GridUnit}}

	pos := layout.Allocate(existing, layout.Request{
		Size:     layout.Size{Width: 220, Height: 140},
		Mode:     layout.Centered,
		Viewport: vp,
	})

	assert.Equal(t, float64(30), pos.Y)
}

func TestAllocate_StartsAtScrolledViewport(t *testing.T) {
	vp := layout.DefaultViewport()
	vp.ScrollTop = 1000

	pos := layout.Allocate(nil, layout.Request{
		Size:     layout.Size{Width: 220, Height: 140},
		Mode:     layout.Centered,
		Viewport: vp,
	})

	assert.Equal(t, layout.Snap(1016), pos.Y)
}

func TestPlace_ClampsIntoBoard(t *testing.T) {
	vp := layout.Viewport{Width: 800, Height: 600, ScrollWidth: 800, ScrollHeight: 600}
	vp.ScrollTop = 590

	pos := layout.Place(nil, layout.Request{
		Size:     layout.Size{Width: 220, Height: 140},
		Mode:     layout.Centered,
		Viewport: vp,
	})

	assert.Equal(t, float64(600-140-layout.Padding), pos.Y)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, float64(layout.Padding), layout.Clamp(-50, 100, 800))
	assert.Equal(t, float64(684), layout.Clamp(900, 100, 800))
	assert.Equal(t, float64(layout.Padding), layout.Clamp(100, 900, 800), "box wider than board pins to padding")
}

// Property: whenever some candidate in the bounded column is free, Allocate returns a free one.
func TestAllocate_CollisionAvoidanceProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	vp := layout.DefaultViewport()

	for iter := 0; iter < 500; iter++ {
		var existing []layout.Rect
		for i := rng.Intn(12); i > 0; i-- {
			existing = append(existing, layout.Rect{
				Left:   float64(rng.Intn(700)),
				Top:    float64(rng.Intn(1500)),
				Width:  float64(50 + rng.Intn(400)),
				Height: float64(50 + rng.Intn(300)),
			})
		}
		size := layout.Size{Width: float64(50 + rng.Intn(300)), Height: float64(50 + rng.Intn(200))}
		mode := layout.Mode(rng.Intn(2))
		if mode == layout.FullWidth {
			size.Width = layout.FullWidthSpan(vp)
		}

		pos := layout.Allocate(existing, layout.Request{Size: size, Mode: mode, Viewport: vp})
		box := layout.Rect{Left: pos.X, Top: pos.Y, Width: size.Width, Height: size.Height}

		if freeCandidateExists(existing, pos.X, size, vp) {
			for _, r := range existing {
				require.False(t, box.Overlaps(r), "iteration %d: %+v overlaps %+v", iter, box, r)
			}
		}
	}
}

func freeCandidateExists(existing []layout.Rect, x float64, size layout.Size, vp layout.Viewport) bool {
	y := layout.Snap(vp.ScrollTop + layout.Padding)
	if y < layout.Padding {
		y = layout.Padding
	}
	for i := 0; i < layout.MaxAttempts && y <= vp.ScrollHeight-size.Height-layout.Padding; i++ {
		free := true
		for _, r := range existing {
			if (layout.Rect{Left: x, Top: y, Width: size.Width, Height: size.Height}).Overlaps(r) {
				free = false
				break
			}
		}
		if free {
			return true
		}
		y += layout.GridUnit
	}
	return false
}

func TestFinite(t *testing.T) {
	assert.True(t, layout.Finite())
	assert.True(t, layout.Finite(0, -16, 1e300))
	assert.False(t, layout.Finite(1, math.NaN()))
	assert.False(t, layout.Finite(math.Inf(1)))
	assert.False(t, layout.Finite(0, math.Inf(-1)))
}
