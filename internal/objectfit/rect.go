package objectfit

import (
	"image"
	"math"
)

// Rect is an axis-aligned rectangle in unitless (pixel) coordinates.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"width"`
	H float64 `json:"height"`
}

// NewRect builds a Rect from its offset and size, in that order.
func NewRect(x, y, w, h float64) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

// Empty reports whether the rectangle covers no area.
func (r Rect) Empty() bool {
	return !(r.W > 0 && r.H > 0)
}

// IsFinite reports whether every field is a finite number.
func (r Rect) IsFinite() bool {
	for _, v := range [...]float64{r.X, r.Y, r.W, r.H} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Image rounds r to the nearest integer pixel rectangle. Edges are rounded
// independently so adjacent rectangles stay adjacent.
func (r Rect) Image() image.Rectangle {
	return image.Rect(
		int(math.Round(r.X)),
		int(math.Round(r.Y)),
		int(math.Round(r.X+r.W)),
		int(math.Round(r.Y+r.H)),
	)
}
