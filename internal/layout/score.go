package layout

import (
	"sort"

	"github.com/wjojarth123/uicheck/internal/apperr"
	"github.com/wjojarth123/uicheck/internal/geometry"
)

// DefaultMinGroupSize is the cluster size below which a cluster counts as
// small. With 2, only singletons are small.
const DefaultMinGroupSize = 2

// Weights are the scoring policy. The first three weight positive factors
// and are normalized by their sum; the last two are subtracted directly.
type Weights struct {
	Alignment   float64 `yaml:"alignment" json:"alignment"`
	Grid        float64 `yaml:"grid" json:"grid"`
	Consistency float64 `yaml:"consistency" json:"consistency"`
	SmallGroups float64 `yaml:"small_groups" json:"small_groups"`
	Overlap     float64 `yaml:"overlap" json:"overlap"`
}

// DefaultWeights returns the default scoring policy.
func DefaultWeights() Weights {
	return Weights{
		Alignment:   0.5,
		Grid:        0.3,
		Consistency: 0.2,
		SmallGroups: 0.25,
		Overlap:     0.2,
	}
}

// Validate rejects negative weights and an all-zero positive side.
func (w Weights) Validate() error {
	for _, v := range []float64{w.Alignment, w.Grid, w.Consistency, w.SmallGroups, w.Overlap} {
		if v < 0 {
			return apperr.InvalidInputf("score weights must be non-negative, got %+v", w)
		}
	}
	if w.Alignment+w.Grid+w.Consistency == 0 {
		return apperr.InvalidInputf("at least one of the alignment, grid and consistency weights must be positive")
	}
	return nil
}

// ScoreOptions configures Score.
type ScoreOptions struct {
	Weights      Weights
	MinGroupSize int
}

// DefaultScoreOptions returns the default weights and small-group size.
func DefaultScoreOptions() ScoreOptions {
	return ScoreOptions{Weights: DefaultWeights(), MinGroupSize: DefaultMinGroupSize}
}

// Breakdown lists the factors behind a score.
type Breakdown struct {
	Boxes int `json:"boxes"`

	AlignmentCoverage float64 `json:"alignment_coverage"`
	GridCoverage      float64 `json:"grid_coverage"`
	Consistency       float64 `json:"consistency"`
	SmallGroupRatio   float64 `json:"small_group_ratio"`
	OverlapRatio      float64 `json:"overlap_ratio"`

	Groups        int         `json:"groups"`
	Singletons    int         `json:"singletons"`
	MeanGroupSize float64     `json:"mean_group_size"`
	MaxGroupSize  int         `json:"max_group_size"`
	GroupSizes    map[int]int `json:"group_sizes"` // size -> number of groups
	Grids         int         `json:"grids"`
}

// Score is the organization score of one layout.
type Score struct {
	Value float64 `json:"score"`
	// Degenerate is set when there were no boxes to score.
	Degenerate bool      `json:"degenerate"`
	Breakdown  Breakdown `json:"breakdown"`
}

// ComputeScore rates how organized a layout is, in [0, 1].
//
//	positive = (wA·alignment + wG·grid + wC·consistency) / (wA + wG + wC)
//	score    = clamp(positive − wS·smallGroups − wO·overlap, 0, 1)
//
// where
//   - alignment is the share of boxes in at least one alignment group,
//   - grid is the share of boxes in a grid,
//   - consistency is Equalize's movement score,
//   - smallGroups is the share of clusters (groups plus unaligned
//     singletons, over all six kinds) smaller than MinGroupSize,
//   - overlap is total pairwise intersection area over total box area,
//     capped at 1.
//
// An empty box list scores 0 and is flagged Degenerate. Sums run in
// box-list order.
func ComputeScore(boxes []geometry.Box, groups []Group, grids []Grid, opts ScoreOptions) (Score, error) {
	if err := opts.Weights.Validate(); err != nil {
		return Score{}, err
	}
	if opts.MinGroupSize < 2 {
		return Score{}, apperr.InvalidInputf("minimum group size must be at least 2, got %d", opts.MinGroupSize)
	}

	n := len(boxes)
	bd := Breakdown{Boxes: n, GroupSizes: map[int]int{}, Grids: len(grids)}
	if n == 0 {
		return Score{Degenerate: true, Breakdown: bd}, nil
	}

	bd.AlignmentCoverage = float64(len(Coverage(groups))) / float64(n)

	inGrid := make(map[int]bool)
	for _, g := range grids {
		for _, m := range g.Members {
			inGrid[m] = true
		}
	}
	bd.GridCoverage = float64(len(inGrid)) / float64(n)

	bd.Consistency = Equalize(boxes, groups).Consistency
	bd.OverlapRatio = overlapRatio(boxes)
	groupStats(&bd, groups, opts.MinGroupSize)

	w := opts.Weights
	positive := (w.Alignment*bd.AlignmentCoverage + w.Grid*bd.GridCoverage + w.Consistency*bd.Consistency) /
		(w.Alignment + w.Grid + w.Consistency)
	value := positive - w.SmallGroups*bd.SmallGroupRatio - w.Overlap*bd.OverlapRatio

	return Score{Value: clamp01(value), Breakdown: bd}, nil
}

// groupStats fills the group-size fields of bd. Per kind, every box not in
// a group of that kind is a singleton cluster.
func groupStats(bd *Breakdown, groups []Group, minGroupSize int) {
	perKind := make(map[Kind]int)
	small, total := 0, 0
	for _, g := range groups {
		size := g.Size()
		perKind[g.Kind] += size
		bd.GroupSizes[size]++
		total += size
		bd.MaxGroupSize = max(bd.MaxGroupSize, size)
		if size < minGroupSize {
			small++
		}
	}
	bd.Groups = len(groups)
	if bd.Groups > 0 {
		bd.MeanGroupSize = float64(total) / float64(bd.Groups)
	}

	for _, k := range Kinds {
		bd.Singletons += bd.Boxes - perKind[k]
	}
	small += bd.Singletons

	if clusters := bd.Groups + bd.Singletons; clusters > 0 {
		bd.SmallGroupRatio = float64(small) / float64(clusters)
	}
}

// overlapRatio sums pairwise intersection areas over the summed box area.
func overlapRatio(boxes []geometry.Box) float64 {
	var inter, area int
	for i, a := range boxes {
		area += a.Area()
		for _, b := range boxes[i+1:] {
			inter += a.Intersect(b).Area()
		}
	}
	if area == 0 {
		return 0
	}
	return min(1, float64(inter)/float64(area))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// SortedSizes returns the distinct group sizes in bd.GroupSizes, ascending.
func (bd Breakdown) SortedSizes() []int {
	sizes := make([]int, 0, len(bd.GroupSizes))
	for s := range bd.GroupSizes {
		sizes = append(sizes, s)
	}
	sort.Ints(sizes)
	return sizes
}
