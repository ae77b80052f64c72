package layout

import (
	"sort"

	"github.com/wjojarth123/uicheck/internal/apperr"
	"github.com/wjojarth123/uicheck/internal/geometry"
)

// DefaultMinGridBoxes is the smallest number of boxes reported as a grid.
const DefaultMinGridBoxes = 4

// Grid is a set of boxes arranged in at least two rows and two columns.
type Grid struct {
	RowKind Kind `json:"row_kind"` // Top or CenterY
	ColKind Kind `json:"col_kind"` // Left or CenterX

	Rows []float64 `json:"rows"` // row positions, ascending
	Cols []float64 `json:"cols"` // column positions, ascending

	Members []int        `json:"members"` // box indices, ascending
	Bounds  geometry.Box `json:"bounds"`

	// Fill is the share of row×column cells holding a box, in (0,1].
	Fill float64 `json:"fill"`
}

// Size returns the number of boxes in the grid.
func (g Grid) Size() int { return len(g.Members) }

var (
	rowKinds = []Kind{Top, CenterY}
	colKinds = []Kind{Left, CenterX}
)

// DetectGrids infers grid arrangements from alignment groups.
//
// # Algorithm
//
// For every pairing of a row kind (Top, CenterY) with a column kind (Left,
// CenterX):
//
//  1. Each box that belongs to a row group and a column group of those
//     kinds is placed in the (row, column) cell.
//  2. Boxes are split into connected sets, where two boxes connect when
//     they share a row or a column.
//  3. Within a set, rows and columns holding fewer than two of the set's
//     boxes are pruned, and the set is split again, until stable.
//  4. A set spanning at least two rows, two columns and minBoxes boxes is
//     a candidate.
//
// Candidates from all pairings are ranked by size (ties: lowest member
// index, then pairing order) and kept greedily, skipping any that shares a
// box with a grid already kept.
func DetectGrids(boxes []geometry.Box, groups []Group, minBoxes int) ([]Grid, error) {
	if minBoxes < DefaultMinGridBoxes {
		return nil, apperr.InvalidInputf("minimum grid size must be at least %d, got %d", DefaultMinGridBoxes, minBoxes)
	}
	if len(boxes) < minBoxes {
		return nil, nil
	}

	var candidates []Grid
	for _, rk := range rowKinds {
		for _, ck := range colKinds {
			candidates = append(candidates, gridCandidates(boxes, groups, rk, ck, minBoxes)...)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Size() != candidates[j].Size() {
			return candidates[i].Size() > candidates[j].Size()
		}
		return candidates[i].Members[0] < candidates[j].Members[0]
	})

	used := make(map[int]bool)
	var grids []Grid
	for _, c := range candidates {
		clash := false
		for _, m := range c.Members {
			if used[m] {
				clash = true
				break
			}
		}
		if clash {
			continue
		}
		for _, m := range c.Members {
			used[m] = true
		}
		grids = append(grids, c)
	}
	return grids, nil
}

// cell places a box in a row group and a column group.
type cell struct {
	box, row, col int
}

func gridCandidates(boxes []geometry.Box, groups []Group, rowKind, colKind Kind, minBoxes int) []Grid {
	rowOf := membership(len(boxes), groups, rowKind)
	colOf := membership(len(boxes), groups, colKind)

	var cells []cell
	for i := range boxes {
		if rowOf[i] >= 0 && colOf[i] >= 0 {
			cells = append(cells, cell{box: i, row: rowOf[i], col: colOf[i]})
		}
	}

	var out []Grid
	for _, set := range refine(cells) {
		rows, cols := distinct(set)
		if len(rows) < 2 || len(cols) < 2 || len(set) < minBoxes {
			continue
		}
		out = append(out, newGrid(boxes, groups, set, rowKind, colKind, rows, cols))
	}
	return out
}

// membership maps each box index to the index (into groups) of its group
// of the given kind, or -1.
func membership(n int, groups []Group, kind Kind) []int {
	of := make([]int, n)
	for i := range of {
		of[i] = -1
	}
	for gi, g := range groups {
		if g.Kind != kind {
			continue
		}
		for _, m := range g.Members {
			if m >= 0 && m < n {
				of[m] = gi
			}
		}
	}
	return of
}

// refine prunes sparse rows and columns and splits cells into connected
// sets until every set is stable.
func refine(cells []cell) [][]cell {
	var out [][]cell
	pending := components(cells)
	for len(pending) > 0 {
		set := pending[0]
		pending = pending[1:]

		pruned := prune(set)
		if len(pruned) == 0 {
			continue
		}
		parts := components(pruned)
		if len(parts) == 1 && len(pruned) == len(set) {
			out = append(out, pruned)
			continue
		}
		pending = append(pending, parts...)
	}
	return out
}

// prune drops cells whose row or column holds fewer than two cells,
// repeating until nothing changes.
func prune(set []cell) []cell {
	for {
		rowCount := make(map[int]int)
		colCount := make(map[int]int)
		for _, c := range set {
			rowCount[c.row]++
			colCount[c.col]++
		}
		kept := set[:0:0]
		for _, c := range set {
			if rowCount[c.row] >= 2 && colCount[c.col] >= 2 {
				kept = append(kept, c)
			}
		}
		if len(kept) == len(set) {
			return kept
		}
		set = kept
	}
}

// components splits cells into sets connected through shared rows or
// columns. Sets are ordered by their lowest box index.
func components(cells []cell) [][]cell {
	parent := make([]int, len(cells))
	for i := range parent {
		parent[i] = i
	}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			if ra < rb {
				parent[rb] = ra
			} else {
				parent[ra] = rb
			}
		}
	}

	firstInRow := make(map[int]int)
	firstInCol := make(map[int]int)
	for i, c := range cells {
		if j, ok := firstInRow[c.row]; ok {
			union(i, j)
		} else {
			firstInRow[c.row] = i
		}
		if j, ok := firstInCol[c.col]; ok {
			union(i, j)
		} else {
			firstInCol[c.col] = i
		}
	}

	byRoot := make(map[int][]cell)
	var roots []int
	for i, c := range cells {
		r := find(i)
		if _, ok := byRoot[r]; !ok {
			roots = append(roots, r)
		}
		byRoot[r] = append(byRoot[r], c)
	}
	out := make([][]cell, 0, len(roots))
	for _, r := range roots {
		out = append(out, byRoot[r])
	}
	return out
}

func distinct(set []cell) (rows, cols []int) {
	seenRow := make(map[int]bool)
	seenCol := make(map[int]bool)
	for _, c := range set {
		if !seenRow[c.row] {
			seenRow[c.row] = true
			rows = append(rows, c.row)
		}
		if !seenCol[c.col] {
			seenCol[c.col] = true
			cols = append(cols, c.col)
		}
	}
	return rows, cols
}

func newGrid(boxes []geometry.Box, groups []Group, set []cell, rowKind, colKind Kind, rows, cols []int) Grid {
	g := Grid{RowKind: rowKind, ColKind: colKind}

	members := make([]geometry.Box, 0, len(set))
	for _, c := range set {
		g.Members = append(g.Members, c.box)
		members = append(members, boxes[c.box])
	}
	sort.Ints(g.Members)
	g.Bounds = geometry.Bounds(members)

	for _, r := range rows {
		g.Rows = append(g.Rows, groups[r].Position)
	}
	for _, c := range cols {
		g.Cols = append(g.Cols, groups[c].Position)
	}
	sort.Float64s(g.Rows)
	sort.Float64s(g.Cols)

	g.Fill = float64(len(set)) / float64(len(rows)*len(cols))
	if g.Fill > 1 {
		// Overlapping boxes can share a cell.
		g.Fill = 1
	}
	return g
}
