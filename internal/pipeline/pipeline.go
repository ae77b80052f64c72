// Package pipeline runs detection and layout scoring for one screenshot,
// and fans that out over many screenshots in batch mode.
//
// Each run is independent: a Pipeline holds only its configuration and may
// be shared by concurrent goroutines.
package pipeline

import (
	"fmt"
	"image"
	"log"
	"time"

	"github.com/wjojarth123/uicheck/internal/apperr"
	"github.com/wjojarth123/uicheck/internal/config"
	"github.com/wjojarth123/uicheck/internal/detection"
	"github.com/wjojarth123/uicheck/internal/geometry"
	"github.com/wjojarth123/uicheck/internal/imaging"
	"github.com/wjojarth123/uicheck/internal/layout"
	"github.com/wjojarth123/uicheck/internal/visualize"
)

// Pipeline turns screenshots into scored layouts.
type Pipeline struct {
	cfg      config.Config
	detector detection.Detector
	logger   *log.Logger
	debug    bool
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for render failures and, with WithDebug,
// per-stage counts. Without a logger the pipeline is silent.
func WithLogger(l *log.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithDebug enables per-stage logging.
func WithDebug(debug bool) Option {
	return func(p *Pipeline) { p.debug = debug }
}

// WithDetector replaces the detector chosen by the configuration.
func WithDetector(d detection.Detector) Option {
	return func(p *Pipeline) { p.detector = d }
}

// New validates cfg and builds a pipeline.
func New(cfg config.Config, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{cfg: cfg}
	for _, opt := range opts {
		opt(p)
	}
	if p.detector == nil {
		d, err := detection.NewDetector(cfg.Detector, cfg.DetectionOptions())
		if err != nil {
			return nil, apperr.InvalidInputf("%v", err)
		}
		p.detector = d
	}
	return p, nil
}

// Config returns the configuration the pipeline was built with.
func (p *Pipeline) Config() config.Config { return p.cfg }

// Result is the outcome of one analysis.
type Result struct {
	Width  int
	Height int

	Boxes     []geometry.Box
	Detection *detection.Detection // nil when boxes were supplied directly
	Analysis  *layout.Analysis

	// Degenerate is set when there were no boxes. Score is then 0 and
	// there are no groups or grids.
	Degenerate bool

	// Annotated and Stages are filled when visualization is enabled and
	// rendering succeeds. Otherwise RenderErr says why they are missing.
	Annotated image.Image
	Stages    image.Image
	RenderErr error

	Elapsed time.Duration
}

// Score returns the organization score.
func (r *Result) Score() float64 { return r.Analysis.Score.Value }

// Analyze detects elements in img and scores their layout.
func (p *Pipeline) Analyze(img image.Image) (*Result, error) {
	start := time.Now()
	if img == nil {
		return nil, apperr.InvalidInputf("nil image")
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, apperr.InvalidInputf("image has zero dimensions (%dx%d)", b.Dx(), b.Dy())
	}

	det, err := p.detector.Detect(img)
	if err != nil {
		return nil, fmt.Errorf("detection failed: %w", err)
	}
	if det.Edges != nil {
		p.debugf("edges: %d pixels, %d after enhancement", det.Edges.Count(), det.Enhanced.Count())
	}
	p.debugf("contours: %d, kept after filter: %d, after merging: %d", det.Contours, det.Filtered, len(det.Boxes))

	res, err := p.score(det.Boxes, b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}
	res.Detection = det

	if p.cfg.Visualize {
		p.Render(img, res)
	}
	res.Elapsed = time.Since(start)
	return res, nil
}

// AnalyzeBoxes scores a box list produced elsewhere. bounds is the frame
// the boxes were measured in and may be empty when unknown; otherwise every
// box must lie inside it.
func (p *Pipeline) AnalyzeBoxes(boxes []geometry.Box, bounds image.Rectangle) (*Result, error) {
	start := time.Now()
	w, h := bounds.Dx(), bounds.Dy()
	for _, bx := range boxes {
		if bx.Empty() {
			return nil, apperr.InvalidInputf("box %v has no area", bx)
		}
		if w > 0 && h > 0 && !bx.Within(w, h) {
			return nil, apperr.InvalidInputf("box %v lies outside the %dx%d frame", bx, w, h)
		}
	}
	res, err := p.score(append([]geometry.Box(nil), boxes...), bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}
	res.Elapsed = time.Since(start)
	return res, nil
}

// AnalyzeFile decodes the screenshot at path and analyzes it. Unreadable
// files are reported as apperr.ErrInvalidInput.
func (p *Pipeline) AnalyzeFile(path string) (*Result, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrInvalidInput, err)
	}
	p.debugf("loaded %s (%dx%d)", path, img.Bounds().Dx(), img.Bounds().Dy())
	return p.Analyze(img)
}

func (p *Pipeline) score(boxes []geometry.Box, width, height int) (*Result, error) {
	analysis, err := layout.Analyze(boxes, p.cfg.LayoutOptions())
	if err != nil {
		return nil, fmt.Errorf("layout analysis failed: %w", err)
	}
	if boxes == nil {
		boxes = []geometry.Box{}
	}
	p.debugf("groups: %d, grids: %d, score: %.3f", len(analysis.Groups), len(analysis.Grids), analysis.Score.Value)
	return &Result{
		Width:      width,
		Height:     height,
		Boxes:      boxes,
		Analysis:   analysis,
		Degenerate: analysis.Score.Degenerate,
	}, nil
}

// Render draws the annotated image and the stage panel for res. Failures
// are stored on res.RenderErr and never change the score.
func (p *Pipeline) Render(img image.Image, res *Result) {
	annotated, err := visualize.Render(img, res.Boxes, res.Analysis.Groups, res.Analysis.Grids, visualize.DefaultOptions())
	if err != nil {
		p.renderFailed(res, err)
		return
	}
	res.Annotated = annotated

	var edges, enhanced image.Image
	if d := res.Detection; d != nil && d.Edges != nil {
		edges, enhanced = d.Edges.Gray(), d.Enhanced.Gray()
	}
	stages, err := visualize.RenderStages(img, edges, enhanced, annotated)
	if err != nil {
		p.renderFailed(res, err)
		return
	}
	res.Stages = stages
}

func (p *Pipeline) renderFailed(res *Result, err error) {
	res.RenderErr = err
	if p.logger != nil {
		p.logger.Printf("Visualization failed: %v", err)
	}
}

func (p *Pipeline) debugf(format string, args ...interface{}) {
	if p.debug && p.logger != nil {
		p.logger.Printf(format, args...)
	}
}
