// Package layout computes where new boxes go on the board.
//
// Everything here is a pure function over geometry: the allocator reads the
// rectangles of existing notes and never mutates them.
package layout

import "math"

const (
	// GridUnit is the snap increment and the step of the placement search.
	GridUnit = 30
	// Padding keeps boxes off the board edges.
	Padding = 16
	// MaxAttempts bounds the downward search.
	MaxAttempts = 100

	// BoardHeight is the scrollable extent of a collapsed page.
	BoardHeight = 4000
	// ExpandedBoardHeight is the scrollable extent once the page is expanded.
	ExpandedBoardHeight = 8000
)

// Mode selects the column a box is placed in.
type Mode int

const (
	// Centered puts the box in a single column at the horizontal centre of the viewport.
	Centered Mode = iota
	// FullWidth pins the box to the left padding and spans the viewport.
	FullWidth
)

// Position is a top-left corner.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a width/height pair.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect is an axis-aligned bounding box.
type Rect struct {
	Left, Top, Width, Height float64
}

// Right edge.
func (r Rect) Right() float64 { return r.Left + r.Width }

// Bottom edge.
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// Overlaps is the separating-axis test. Touching edges count as overlap.
func (r Rect) Overlaps(o Rect) bool {
	return !(r.Right() < o.Left || r.Left > o.Right() ||
		r.Bottom() < o.Top || r.Top > o.Bottom())
}

// Viewport describes the visible window onto the scrollable board.
type Viewport struct {
	ScrollLeft   float64 `json:"scrollLeft" yaml:"scroll_left"`
	ScrollTop    float64 `json:"scrollTop" yaml:"scroll_top"`
	Width        float64 `json:"width" yaml:"width"`
	Height       float64 `json:"height" yaml:"height"`
	ScrollWidth  float64 `json:"scrollWidth" yaml:"scroll_width"`
	ScrollHeight float64 `json:"scrollHeight" yaml:"scroll_height"`
}

// DefaultViewport is an 800×600 window at the top of a collapsed page.
func DefaultViewport() Viewport {
	return Viewport{
		Width:        800,
		Height:       600,
		ScrollWidth:  800,
		ScrollHeight: BoardHeight,
	}
}

// Normalize fills a zero scroll extent from the visible size.
func (v Viewport) Normalize() Viewport {
	if v.ScrollWidth < v.Width {
		v.ScrollWidth = v.Width
	}
	if v.ScrollHeight < v.Height {
		v.ScrollHeight = v.Height
	}
	return v
}

// Finite reports whether every value is a real number (not NaN or ±Inf).
func Finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Snap rounds v to the nearest grid line.
func Snap(v float64) float64 {
	return math.Round(v/GridUnit) * GridUnit
}

// Clamp bounds v into [Padding, extent-size-Padding]. When the box does not fit
// the lower bound wins.
func Clamp(v, size, extent float64) float64 {
	return math.Max(Padding, math.Min(v, extent-size-Padding))
}

// FullWidthSpan is the width of a FullWidth box in vp.
func FullWidthSpan(vp Viewport) float64 {
	return math.Max(0, vp.Width-2*Padding)
}

// Request describes the box to place.
type Request struct {
	Size     Size
	Mode     Mode
	Viewport Viewport
}

// Allocate returns the first position, scanning down the column one grid unit
// at a time, whose box does not overlap any of existing. When the bounded
// search finds nothing it returns the starting candidate and the caller
// accepts the overlap.
func Allocate(existing []Rect, req Request) Position {
	vp := req.Viewport.Normalize()
	w, h := req.Size.Width, req.Size.Height

	var x float64
	switch req.Mode {
	case FullWidth:
		x = Padding
	default:
		x = Clamp(Snap(vp.ScrollLeft+vp.Width/2-w/2), w, vp.ScrollWidth)
	}

	startY := Snap(vp.ScrollTop + Padding)
	if startY < Padding {
		startY = Padding
	}
	maxY := vp.ScrollHeight - h - Padding

	y := startY
	for i := 0; i < MaxAttempts; i++ {
		if y > maxY {
			break
		}
		if !occupied(existing, Rect{Left: x, Top: y, Width: w, Height: h}) {
			return Position{X: x, Y: y}
		}
		y += GridUnit
	}
	return Position{X: x, Y: startY}
}

// Place allocates and then clamps the result into the scrollable board.
func Place(existing []Rect, req Request) Position {
	vp := req.Viewport.Normalize()
	pos := Allocate(existing, req)
	pos.X = Clamp(pos.X, req.Size.Width, vp.ScrollWidth)
	pos.Y = Clamp(pos.Y, req.Size.Height, vp.ScrollHeight)
	return pos
}

func occupied(existing []Rect, candidate Rect) bool {
	for _, r := range existing {
		if candidate.Overlaps(r) {
			return true
		}
	}
	return false
}
