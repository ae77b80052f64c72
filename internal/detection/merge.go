package detection

import (
	"math"
	"sort"

	"github.com/wjojarth123/uicheck/internal/geometry"
)

// DefaultOverlapThreshold is the IoU at or above which boxes are merged.
const DefaultOverlapThreshold = 0.5

// MergeOverlapping replaces any pair of boxes with IoU >= threshold by
// their union until no such pair remains. threshold should lie in (0, 1].
//
// The scan always takes the first qualifying pair (i, j) in list order,
// stores the union at i and removes j, so the result is deterministic.
// Each merge removes one box, so the loop terminates. Running it again on
// its own output returns the same list.
func MergeOverlapping(boxes []geometry.Box, threshold float64) []geometry.Box {
	out := append([]geometry.Box(nil), boxes...)
	for {
		i, j, found := firstOverlappingPair(out, threshold)
		if !found {
			return out
		}
		out[i] = out[i].Union(out[j])
		out = append(out[:j], out[j+1:]...)
	}
}

func firstOverlappingPair(boxes []geometry.Box, threshold float64) (int, int, bool) {
	for i := 0; i < len(boxes); i++ {
		for j := i + 1; j < len(boxes); j++ {
			if geometry.IoU(boxes[i], boxes[j]) >= threshold {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

// TextLineOptions tunes MergeTextLines. Tolerances are fractions.
type TextLineOptions struct {
	// HeightTolerance: heights match when min/max >= 1-HeightTolerance.
	HeightTolerance float64 `json:"height_tolerance"`
	// VerticalTolerance: vertical centers may differ by this fraction of
	// the taller box.
	VerticalTolerance float64 `json:"vertical_tolerance"`
	// GapRatio: the horizontal gap may be at most GapRatio × the taller height.
	GapRatio float64 `json:"gap_ratio"`
}

// DefaultTextLineOptions returns the word-joining defaults.
func DefaultTextLineOptions() TextLineOptions {
	return TextLineOptions{HeightTolerance: 0.3, VerticalTolerance: 0.5, GapRatio: 1.0}
}

// MergeTextLines joins boxes that look like words on one text line: similar
// heights, vertically aligned centers and a small horizontal gap.
func MergeTextLines(boxes []geometry.Box, opts TextLineOptions) []geometry.Box {
	return mergeGreedy(boxes, func(b, line, last geometry.Box) bool {
		maxH := float64(max(b.Height(), last.Height()))
		if heightRatio(b, last) < 1-opts.HeightTolerance {
			return false
		}
		if math.Abs(b.Center().Y-last.Center().Y) > opts.VerticalTolerance*maxH {
			return false
		}
		return float64(axisGap(b.X1, b.X2, line.X1, line.X2)) <= opts.GapRatio*maxH
	})
}

// ParagraphOptions tunes MergeParagraphs.
type ParagraphOptions struct {
	// LeftTolerance: left edges may differ by this fraction of the wider box.
	LeftTolerance float64 `json:"left_tolerance"`
	// HeightTolerance: heights match when min/max >= 1-HeightTolerance.
	HeightTolerance float64 `json:"height_tolerance"`
	// GapRatio: the vertical gap may be at most GapRatio × the taller height.
	GapRatio float64 `json:"gap_ratio"`
}

// DefaultParagraphOptions returns the line-joining defaults.
func DefaultParagraphOptions() ParagraphOptions {
	return ParagraphOptions{LeftTolerance: 0.1, HeightTolerance: 0.4, GapRatio: 0.5}
}

// MergeParagraphs joins stacked text lines that share a left edge and line
// height into paragraph blocks.
func MergeParagraphs(boxes []geometry.Box, opts ParagraphOptions) []geometry.Box {
	return mergeGreedy(boxes, func(b, block, last geometry.Box) bool {
		maxW := float64(max(b.Width(), last.Width()))
		maxH := float64(max(b.Height(), last.Height()))
		if math.Abs(float64(b.X1-block.X1)) > opts.LeftTolerance*maxW {
			return false
		}
		if heightRatio(b, last) < 1-opts.HeightTolerance {
			return false
		}
		return float64(axisGap(b.Y1, b.Y2, block.Y1, block.Y2)) <= opts.GapRatio*maxH
	})
}

// mergeGroup is an accumulated union plus the member most recently added.
type mergeGroup struct {
	union geometry.Box
	last  geometry.Box
}

// mergeGreedy visits boxes top to bottom and folds each into the first
// group it matches. match receives the candidate, the group's union and the
// group's latest member, so size checks compare like with like while gap
// checks see the whole group. Passes repeat until the count stops falling;
// in later passes each group is a single box.
func mergeGreedy(boxes []geometry.Box, match func(b, union, last geometry.Box) bool) []geometry.Box {
	cur := append([]geometry.Box(nil), boxes...)
	for {
		sort.SliceStable(cur, func(i, j int) bool {
			if cur[i].Y1 != cur[j].Y1 {
				return cur[i].Y1 < cur[j].Y1
			}
			return cur[i].X1 < cur[j].X1
		})

		groups := make([]mergeGroup, 0, len(cur))
		for _, b := range cur {
			joined := false
			for i, g := range groups {
				if match(b, g.union, g.last) {
					groups[i] = mergeGroup{union: g.union.Union(b), last: b}
					joined = true
					break
				}
			}
			if !joined {
				groups = append(groups, mergeGroup{union: b, last: b})
			}
		}

		merged := make([]geometry.Box, len(groups))
		for i, g := range groups {
			merged[i] = g.union
		}
		if len(merged) == len(cur) {
			return merged
		}
		cur = merged
	}
}

func heightRatio(a, b geometry.Box) float64 {
	hi := max(a.Height(), b.Height())
	if hi <= 0 {
		return 0
	}
	return float64(min(a.Height(), b.Height())) / float64(hi)
}

// axisGap returns the empty span between intervals [a1,a2) and [b1,b2),
// or 0 when they overlap or touch.
func axisGap(a1, a2, b1, b2 int) int {
	switch {
	case a2 <= b1:
		return b1 - a2
	case b2 <= a1:
		return a1 - b2
	}
	return 0
}
