// Package geometry holds the bounding-box type that crosses the boundary
// between element detection and layout scoring.
//
// # Coordinate System
//
// Coordinates are integer pixels with the origin at the top-left corner,
// X increasing rightward and Y increasing downward. A Box covers the pixels
// X1 <= x < X2 and Y1 <= y < Y2, so Width is X2-X1 and Height is Y2-Y1.
//
// Box is a value type. Slices of boxes are handed from the detector to the
// scorer and are treated as read-only from then on.
package geometry

import "fmt"

// Point is an integer pixel position.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// FPoint is a sub-pixel position, used for box centers.
type FPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Box is an axis-aligned bounding box. (X1, Y1) is inclusive and (X2, Y2)
// is exclusive.
type Box struct {
	X1 int `json:"x1"` // Left edge (inclusive)
	Y1 int `json:"y1"` // Top edge (inclusive)
	X2 int `json:"x2"` // Right edge (exclusive)
	Y2 int `json:"y2"` // Bottom edge (exclusive)
}

// NewBox builds a box from a top-left corner and a size.
func NewBox(x, y, width, height int) Box {
	return Box{X1: x, Y1: y, X2: x + width, Y2: y + height}
}

// Width returns X2-X1.
func (b Box) Width() int { return b.X2 - b.X1 }

// Height returns Y2-Y1.
func (b Box) Height() int { return b.Y2 - b.Y1 }

// Area returns the box area in square pixels, or 0 for an empty box.
func (b Box) Area() int {
	if b.Empty() {
		return 0
	}
	return b.Width() * b.Height()
}

// Empty reports whether the box has no interior.
func (b Box) Empty() bool {
	return b.X2 <= b.X1 || b.Y2 <= b.Y1
}

// AspectRatio returns width/height. An empty box has ratio 0.
func (b Box) AspectRatio() float64 {
	if b.Empty() {
		return 0
	}
	return float64(b.Width()) / float64(b.Height())
}

// Center returns the geometric center of the box.
func (b Box) Center() FPoint {
	return FPoint{
		X: float64(b.X1+b.X2) / 2,
		Y: float64(b.Y1+b.Y2) / 2,
	}
}

// Within reports whether the box is non-empty and lies inside a
// width×height image anchored at the origin.
func (b Box) Within(width, height int) bool {
	return !b.Empty() && b.X1 >= 0 && b.Y1 >= 0 && b.X2 <= width && b.Y2 <= height
}

// Intersect returns the overlapping region of two boxes. The result is
// empty (zero value) when they do not overlap.
func (b Box) Intersect(o Box) Box {
	r := Box{
		X1: maxInt(b.X1, o.X1),
		Y1: maxInt(b.Y1, o.Y1),
		X2: minInt(b.X2, o.X2),
		Y2: minInt(b.Y2, o.Y2),
	}
	if r.Empty() {
		return Box{}
	}
	return r
}

// Union returns the smallest box containing both boxes.
func (b Box) Union(o Box) Box {
	return Box{
		X1: minInt(b.X1, o.X1),
		Y1: minInt(b.Y1, o.Y1),
		X2: maxInt(b.X2, o.X2),
		Y2: maxInt(b.Y2, o.Y2),
	}
}

// Overlaps reports whether the two boxes share at least one pixel.
func (b Box) Overlaps(o Box) bool {
	return b.X1 < o.X2 && b.X2 > o.X1 && b.Y1 < o.Y2 && b.Y2 > o.Y1
}

// IoU returns the intersection-over-union of two boxes in [0, 1].
func IoU(a, b Box) float64 {
	inter := a.Intersect(b).Area()
	if inter == 0 {
		return 0
	}
	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// Bounds returns the union of all boxes, or the zero Box for an empty list.
func Bounds(boxes []Box) Box {
	if len(boxes) == 0 {
		return Box{}
	}
	r := boxes[0]
	for _, b := range boxes[1:] {
		r = r.Union(b)
	}
	return r
}

func (b Box) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", b.X1, b.Y1, b.X2, b.Y2)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
