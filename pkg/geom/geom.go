// Package geom provides the integer geometry primitives shared by the
// capture, matching, and region layers: points and axis-aligned
// rectangles with overflow-safe comparisons.
package geom

import "fmt"

// Point is an integer screen or image coordinate.
type Point struct {
	X, Y int32
}

// Add returns p translated by (dx, dy).
func (p Point) Add(dx, dy int32) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// Rectangle is an axis-aligned rectangle with unsigned extent. Width
// and height are stored unsigned because a rectangle can never have
// negative size; all comparisons against origin-derived bounds widen
// to int64 first to avoid wraparound when w/h is large and x/y is
// negative (virtual-screen origins can be negative).
type Rectangle struct {
	X, Y          int32
	Width, Height uint32
}

// NewRectangle builds a Rectangle from origin and extent.
func NewRectangle(x, y int32, w, h uint32) Rectangle {
	return Rectangle{X: x, Y: y, Width: w, Height: h}
}

// Right returns the exclusive right edge, widened to int64 to avoid
// overflow when X is near the int32 boundary.
func (r Rectangle) Right() int64 {
	return int64(r.X) + int64(r.Width)
}

// Bottom returns the exclusive bottom edge.
func (r Rectangle) Bottom() int64 {
	return int64(r.Y) + int64(r.Height)
}

// String formats the rectangle as "x,y WxH".
func (r Rectangle) String() string {
	return fmt.Sprintf("%d,%d %dx%d", r.X, r.Y, r.Width, r.Height)
}

// IsEmpty reports whether the rectangle has zero area.
func (r Rectangle) IsEmpty() bool {
	return r.Width == 0 || r.Height == 0
}

// Center returns the integer center point, rounding down.
func (r Rectangle) Center() Point {
	return Point{
		X: r.X + int32(r.Width/2),
		Y: r.Y + int32(r.Height/2),
	}
}

// Contains reports whether p lies within the rectangle (right/bottom
// edges are exclusive).
func (r Rectangle) Contains(p Point) bool {
	if r.IsEmpty() {
		return false
	}
	return int64(p.X) >= int64(r.X) && int64(p.X) < r.Right() &&
		int64(p.Y) >= int64(r.Y) && int64(p.Y) < r.Bottom()
}

// Intersection returns the overlapping rectangle of r and o. The
// result IsEmpty when there is no overlap. Intersection is commutative
// and associative since it reduces to independent min/max on each axis.
func (r Rectangle) Intersection(o Rectangle) Rectangle {
	x0 := max64(int64(r.X), int64(o.X))
	y0 := max64(int64(r.Y), int64(o.Y))
	x1 := min64(r.Right(), o.Right())
	y1 := min64(r.Bottom(), o.Bottom())

	if x1 <= x0 || y1 <= y0 {
		return Rectangle{}
	}
	return Rectangle{
		X:      int32(x0),
		Y:      int32(y0),
		Width:  uint32(x1 - x0),
		Height: uint32(y1 - y0),
	}
}

// Overlaps reports whether r and o share any area.
func (r Rectangle) Overlaps(o Rectangle) bool {
	return !r.Intersection(o).IsEmpty()
}

// Offset returns r translated by (dx, dy).
func (r Rectangle) Offset(dx, dy int32) Rectangle {
	r.X += dx
	r.Y += dy
	return r
}

// Grow returns r expanded by n pixels on every side, n may be negative
// to shrink. Width/height never go below zero.
func (r Rectangle) Grow(n int32) Rectangle {
	w := int64(r.Width) + 2*int64(n)
	h := int64(r.Height) + 2*int64(n)
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return Rectangle{
		X:      r.X - n,
		Y:      r.Y - n,
		Width:  uint32(w),
		Height: uint32(h),
	}
}

// Clamp restricts r to lie within bounds, returning the intersection.
func (r Rectangle) Clamp(bounds Rectangle) Rectangle {
	return r.Intersection(bounds)
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
