package layout

import "github.com/wjojarth123/uicheck/internal/geometry"

// Options configures Analyze.
type Options struct {
	Tolerance    float64
	MinGridBoxes int
	Score        ScoreOptions
}

// DefaultOptions returns the default analysis settings.
func DefaultOptions() Options {
	return Options{
		Tolerance:    DefaultTolerance,
		MinGridBoxes: DefaultMinGridBoxes,
		Score:        DefaultScoreOptions(),
	}
}

// Analysis holds everything derived from one box list.
type Analysis struct {
	Groups []Group `json:"groups"`
	Grids  []Grid  `json:"grids"`
	Score  Score   `json:"score"`
}

// Analyze runs alignment clustering, grid detection and scoring over boxes.
// It accepts any box list, whatever produced it. boxes is not modified.
func Analyze(boxes []geometry.Box, opts Options) (*Analysis, error) {
	groups, err := FindAlignments(boxes, opts.Tolerance)
	if err != nil {
		return nil, err
	}
	grids, err := DetectGrids(boxes, groups, opts.MinGridBoxes)
	if err != nil {
		return nil, err
	}
	score, err := ComputeScore(boxes, groups, grids, opts.Score)
	if err != nil {
		return nil, err
	}
	if groups == nil {
		groups = []Group{}
	}
	if grids == nil {
		grids = []Grid{}
	}
	return &Analysis{Groups: groups, Grids: grids, Score: score}, nil
}
