package layout

import (
	"math"
	"sort"

	"github.com/wjojarth123/uicheck/internal/geometry"
)

// movementDecay converts mean edge movement in pixels into a consistency
// score: exp(-movementDecay × movement).
const movementDecay = 0.1

// Equalization is the result of snapping boxes onto their alignment groups.
type Equalization struct {
	Boxes []geometry.Box `json:"boxes"`

	// TotalMovement sums the displacement of all four edges of every box.
	TotalMovement float64 `json:"total_movement"`
	// MeanMovement is TotalMovement per edge.
	MeanMovement float64 `json:"mean_movement"`
	// Consistency is exp(-0.1 × MeanMovement), or 0 when there are no groups.
	Consistency float64 `json:"consistency"`
}

// Equalize moves each box so it sits exactly on its alignment groups,
// keeping its size, and reports how far boxes had to travel. A layout whose
// aligned elements are already pixel-exact has Consistency 1.
//
// Horizontal kinds (Left, Right, CenterX) and vertical kinds (Top, Bottom,
// CenterY) are handled independently. On each axis, groups are visited
// largest first (ties: kind order, then position) and each box is moved at
// most once, to place its coordinate of the group's kind at the group's
// mean rounded to the nearest pixel.
func Equalize(boxes []geometry.Box, groups []Group) Equalization {
	out := Equalization{Boxes: append([]geometry.Box(nil), boxes...)}
	if len(boxes) == 0 {
		return out
	}

	for _, vertical := range []bool{true, false} {
		axis := make([]Group, 0, len(groups))
		for _, g := range groups {
			if g.Kind.Vertical() == vertical {
				axis = append(axis, g)
			}
		}
		sort.SliceStable(axis, func(i, j int) bool {
			if axis[i].Size() != axis[j].Size() {
				return axis[i].Size() > axis[j].Size()
			}
			if axis[i].Kind != axis[j].Kind {
				return axis[i].Kind < axis[j].Kind
			}
			return axis[i].Position < axis[j].Position
		})

		moved := make(map[int]bool)
		for _, g := range axis {
			target := math.Round(g.Position)
			for _, m := range g.Members {
				if m < 0 || m >= len(boxes) || moved[m] {
					continue
				}
				moved[m] = true
				shift := int(math.Round(target - g.Kind.Value(boxes[m])))
				b := out.Boxes[m]
				if vertical {
					b.X1 += shift
					b.X2 += shift
				} else {
					b.Y1 += shift
					b.Y2 += shift
				}
				out.Boxes[m] = b
				out.TotalMovement += 2 * math.Abs(float64(shift))
			}
		}
	}

	out.MeanMovement = out.TotalMovement / float64(4*len(boxes))
	if len(groups) > 0 {
		out.Consistency = math.Exp(-movementDecay * out.MeanMovement)
	}
	return out
}
