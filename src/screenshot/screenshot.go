package screenshot

import (
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

// Point is a screen coordinate relative to the overlay origin.
type Point struct {
	X int
	Y int
}

// Min returns the component-wise minimum of p and o.
func (p Point) Min(o Point) Point {
	return Point{X: min(p.X, o.X), Y: min(p.Y, o.Y)}
}

// Max returns the component-wise maximum of p and o.
func (p Point) Max(o Point) Point {
	return Point{X: max(p.X, o.X), Y: max(p.Y, o.Y)}
}

// Region represents a screen region to capture
type Region struct {
	X      int
	Y      int
	Width  int
	Height int
}

// RegionFromPoints normalizes a drag between two points into a region.
// The result does not depend on drag direction and its size is never negative.
func RegionFromPoints(a, b Point) Region {
	lo := a.Min(b)
	hi := a.Max(b)
	return Region{X: lo.X, Y: lo.Y, Width: hi.X - lo.X, Height: hi.Y - lo.Y}
}

// Right is the exclusive right edge.
func (r Region) Right() int { return r.X + r.Width }

// Bottom is the exclusive bottom edge.
func (r Region) Bottom() int { return r.Y + r.Height }

// Empty reports whether r covers no pixels.
func (r Region) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Rect converts r to an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.Right(), r.Bottom())
}

// CaptureBounds clamps r to bounds and widens any zero-sized axis to one
// pixel, so a click without a drag still yields a readable 1x1 block.
func (r Region) CaptureBounds(bounds Region) Region {
	if bounds.Empty() {
		return Region{X: bounds.X, Y: bounds.Y}
	}
	x0 := clampInt(r.X, bounds.X, bounds.Right()-1)
	y0 := clampInt(r.Y, bounds.Y, bounds.Bottom()-1)
	x1 := clampInt(r.Right(), x0, bounds.Right())
	y1 := clampInt(r.Bottom(), y0, bounds.Bottom())

	out := Region{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
	if out.Width < 1 {
		out.Width = 1
	}
	if out.Height < 1 {
		out.Height = 1
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Capture takes the one-time snapshot of the given screen rectangle that the
// overlay shows as its frozen background.
func Capture(bounds image.Rectangle) (*image.RGBA, error) {
	if bounds.Empty() {
		return nil, fmt.Errorf("invalid capture bounds: %v", bounds)
	}

	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return nil, fmt.Errorf("failed to capture screen: %w", err)
	}
	return img, nil
}
