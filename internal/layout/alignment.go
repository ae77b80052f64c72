package layout

import (
	"fmt"
	"sort"

	"github.com/wjojarth123/uicheck/internal/apperr"
	"github.com/wjojarth123/uicheck/internal/geometry"
)

// DefaultTolerance is the alignment tolerance in pixels.
const DefaultTolerance = 10

// Kind identifies the box coordinate an alignment group shares.
type Kind int

const (
	Top     Kind = iota // top edges (Y1)
	Bottom              // bottom edges (Y2)
	Left                // left edges (X1)
	Right               // right edges (X2)
	CenterX             // horizontal centers: boxes stacked in a column
	CenterY             // vertical centers: boxes side by side in a row
)

// Kinds lists every kind in output order.
var Kinds = []Kind{Top, Bottom, Left, Right, CenterX, CenterY}

var kindNames = [...]string{"top", "bottom", "left", "right", "center_x", "center_y"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(kindNames) {
		return nil, fmt.Errorf("unknown alignment kind %d", int(k))
	}
	return []byte(kindNames[k]), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(text []byte) error {
	for i, name := range kindNames {
		if name == string(text) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown alignment kind %q", text)
}

// Vertical reports whether groups of this kind are drawn as vertical lines
// (a shared x coordinate).
func (k Kind) Vertical() bool {
	return k == Left || k == Right || k == CenterX
}

// Value returns the coordinate of b that this kind compares.
func (k Kind) Value(b geometry.Box) float64 {
	switch k {
	case Top:
		return float64(b.Y1)
	case Bottom:
		return float64(b.Y2)
	case Left:
		return float64(b.X1)
	case Right:
		return float64(b.X2)
	case CenterX:
		return b.Center().X
	default:
		return b.Center().Y
	}
}

// Group is a set of at least two boxes sharing one coordinate within the
// tolerance.
type Group struct {
	Kind Kind `json:"kind"`
	// Reference is the smallest member coordinate.
	Reference float64 `json:"reference"`
	// Position is the mean member coordinate.
	Position float64 `json:"position"`
	// Members holds indices into the analysed box list, ascending.
	Members []int `json:"members"`
}

// Size returns the number of member boxes.
func (g Group) Size() int { return len(g.Members) }

// FindAlignments clusters the boxes' edges and centers into alignment
// groups.
//
// For each kind, the coordinates are sorted (ties broken by box index) and
// walked in order. A value joins the current group when it lies within
// tolerance of the previous value admitted to the group; otherwise it
// starts a new group. Groups with one member are dropped.
//
// Chaining means a group's span is not bounded by tolerance: tops stepping
// by 9px with tolerance 10 all join one group however far the chain runs.
// Size tolerance below the smallest gap meant to separate two rows or
// columns.
//
// Raising the tolerance only ever joins groups, and the groups depend on
// the coordinate values alone, not on the input order. A box is in at most
// one group per kind.
//
// Groups are returned ordered by kind (see Kinds), then by position.
func FindAlignments(boxes []geometry.Box, tolerance float64) ([]Group, error) {
	if tolerance < 0 {
		return nil, apperr.InvalidInputf("alignment tolerance must be non-negative, got %g", tolerance)
	}
	var groups []Group
	for _, k := range Kinds {
		groups = append(groups, clusterKind(boxes, k, tolerance)...)
	}
	return groups, nil
}

type coord struct {
	value float64
	index int
}

func clusterKind(boxes []geometry.Box, kind Kind, tolerance float64) []Group {
	if len(boxes) < 2 {
		return nil
	}
	coords := make([]coord, len(boxes))
	for i, b := range boxes {
		coords[i] = coord{value: kind.Value(b), index: i}
	}
	sort.Slice(coords, func(i, j int) bool {
		if coords[i].value != coords[j].value {
			return coords[i].value < coords[j].value
		}
		return coords[i].index < coords[j].index
	})

	var groups []Group
	run := []coord{coords[0]}
	flush := func() {
		if len(run) >= 2 {
			groups = append(groups, newGroup(kind, run))
		}
	}
	for _, c := range coords[1:] {
		if c.value-run[len(run)-1].value <= tolerance {
			run = append(run, c)
			continue
		}
		flush()
		run = []coord{c}
	}
	flush()
	return groups
}

func newGroup(kind Kind, run []coord) Group {
	g := Group{Kind: kind, Reference: run[0].value, Members: make([]int, len(run))}
	var sum float64
	for i, c := range run {
		sum += c.value
		g.Members[i] = c.index
	}
	g.Position = sum / float64(len(run))
	sort.Ints(g.Members)
	return g
}

// Coverage returns the indices of boxes that belong to at least one group,
// ascending.
func Coverage(groups []Group) []int {
	seen := make(map[int]bool)
	for _, g := range groups {
		for _, m := range g.Members {
			seen[m] = true
		}
	}
	out := make([]int, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	sort.Ints(out)
	return out
}
