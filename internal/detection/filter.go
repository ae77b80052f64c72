package detection

import (
	"github.com/wjojarth123/uicheck/internal/apperr"
	"github.com/wjojarth123/uicheck/internal/geometry"
)

// DefaultMinArea is the smallest box area, in square pixels, kept by default.
const DefaultMinArea = 100

// FilterOptions bounds the boxes kept after contour tracing. A zero upper
// bound (MaxArea, MaxAspect) means unbounded.
type FilterOptions struct {
	MinArea   int     `json:"min_area"`
	MaxArea   int     `json:"max_area"`
	MinWidth  int     `json:"min_width"`
	MinHeight int     `json:"min_height"`
	MinAspect float64 `json:"min_aspect"` // width/height
	MaxAspect float64 `json:"max_aspect"`
}

// DefaultFilterOptions keeps boxes of at least DefaultMinArea with any shape.
func DefaultFilterOptions() FilterOptions {
	return FilterOptions{MinArea: DefaultMinArea}
}

// Validate reports inconsistent bounds.
func (o FilterOptions) Validate() error {
	switch {
	case o.MinArea < 0 || o.MaxArea < 0:
		return apperr.InvalidInputf("area bounds must be non-negative (min %d, max %d)", o.MinArea, o.MaxArea)
	case o.MaxArea > 0 && o.MaxArea < o.MinArea:
		return apperr.InvalidInputf("max area %d is below min area %d", o.MaxArea, o.MinArea)
	case o.MinWidth < 0 || o.MinHeight < 0:
		return apperr.InvalidInputf("minimum width/height must be non-negative (%d, %d)", o.MinWidth, o.MinHeight)
	case o.MinAspect < 0 || o.MaxAspect < 0:
		return apperr.InvalidInputf("aspect bounds must be non-negative (min %g, max %g)", o.MinAspect, o.MaxAspect)
	case o.MaxAspect > 0 && o.MaxAspect < o.MinAspect:
		return apperr.InvalidInputf("max aspect %g is below min aspect %g", o.MaxAspect, o.MinAspect)
	}
	return nil
}

// Keep reports whether b satisfies every bound.
func (o FilterOptions) Keep(b geometry.Box) bool {
	if b.Empty() {
		return false
	}
	area := b.Area()
	if area < o.MinArea || (o.MaxArea > 0 && area > o.MaxArea) {
		return false
	}
	if b.Width() < o.MinWidth || b.Height() < o.MinHeight {
		return false
	}
	aspect := b.AspectRatio()
	if aspect < o.MinAspect || (o.MaxAspect > 0 && aspect > o.MaxAspect) {
		return false
	}
	return true
}

// FilterBoxes returns the boxes that pass opts, in their original order.
func FilterBoxes(boxes []geometry.Box, opts FilterOptions) []geometry.Box {
	kept := make([]geometry.Box, 0, len(boxes))
	for _, b := range boxes {
		if opts.Keep(b) {
			kept = append(kept, b)
		}
	}
	return kept
}
