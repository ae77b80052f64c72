package pipeline

import (
	"github.com/wjojarth123/uicheck/internal/geometry"
	"github.com/wjojarth123/uicheck/internal/layout"
)

// Report is the JSON view of a Result.
type Report struct {
	Image  string `json:"image,omitempty"`
	Width  int    `json:"width"`
	Height int    `json:"height"`

	Boxes  []geometry.Box `json:"boxes"`
	Groups []layout.Group `json:"groups"`
	Grids  []layout.Grid  `json:"grids"`

	Score      float64          `json:"score"`
	Breakdown  layout.Breakdown `json:"breakdown"`
	Degenerate bool             `json:"degenerate"`

	Detection *DetectionStats `json:"detection,omitempty"`

	RenderError string `json:"render_error,omitempty"`
	Error       string `json:"error,omitempty"`
	ElapsedMS   int64  `json:"elapsed_ms"`
}

// DetectionStats summarizes the pixel stages.
type DetectionStats struct {
	EdgePixels     int `json:"edge_pixels"`
	EnhancedPixels int `json:"enhanced_pixels"`
	Contours       int `json:"contours"`
	Filtered       int `json:"filtered"`
	Kept           int `json:"kept"`
}

// Report builds the JSON view of r. image labels the source and may be empty.
func (r *Result) Report(image string) Report {
	rep := Report{
		Image:      image,
		Width:      r.Width,
		Height:     r.Height,
		Boxes:      r.Boxes,
		Groups:     r.Analysis.Groups,
		Grids:      r.Analysis.Grids,
		Score:      r.Analysis.Score.Value,
		Breakdown:  r.Analysis.Score.Breakdown,
		Degenerate: r.Degenerate,
		ElapsedMS:  r.Elapsed.Milliseconds(),
	}
	if d := r.Detection; d != nil {
		stats := &DetectionStats{Contours: d.Contours, Filtered: d.Filtered, Kept: len(d.Boxes)}
		if d.Edges != nil {
			stats.EdgePixels = d.Edges.Count()
		}
		if d.Enhanced != nil {
			stats.EnhancedPixels = d.Enhanced.Count()
		}
		rep.Detection = stats
	}
	if r.RenderErr != nil {
		rep.RenderError = r.RenderErr.Error()
	}
	return rep
}
