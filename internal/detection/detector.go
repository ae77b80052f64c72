package detection

import (
	"fmt"
	"image"

	"github.com/wjojarth123/uicheck/internal/apperr"
	"github.com/wjojarth123/uicheck/internal/geometry"
	"github.com/wjojarth123/uicheck/internal/imaging"
)

// Detection is the output of a Detector. Stage fields are only filled by
// detectors that work from pixels.
type Detection struct {
	Boxes []geometry.Box

	Edges    *imaging.EdgeMap // Canny output
	Enhanced *imaging.EdgeMap // after closing and dilation

	Contours int // external contours traced
	Filtered int // boxes left after BoxFilter, before merging
}

// Detector produces element boxes from a screenshot.
type Detector interface {
	Detect(img image.Image) (*Detection, error)
}

// Options configures the contour detector.
type Options struct {
	BlurKernel int
	CannyLow   int
	CannyHigh  int
	Enhance    imaging.EnhanceOptions
	Filter     FilterOptions

	MergeBoxes       bool
	OverlapThreshold float64

	MergeTextLines bool
	TextLine       TextLineOptions

	MergeParagraphs bool
	Paragraph       ParagraphOptions

	// Boxes is the precomputed list served by the "static" variant.
	Boxes []geometry.Box
}

// DefaultOptions returns the detector defaults.
func DefaultOptions() Options {
	return Options{
		BlurKernel:       imaging.DefaultBlurKernel,
		CannyLow:         imaging.DefaultCannyLow,
		CannyHigh:        imaging.DefaultCannyHigh,
		Enhance:          imaging.DefaultEnhanceOptions(),
		Filter:           DefaultFilterOptions(),
		OverlapThreshold: DefaultOverlapThreshold,
		TextLine:         DefaultTextLineOptions(),
		Paragraph:        DefaultParagraphOptions(),
	}
}

// NewDetector creates a detector based on the specified variant.
func NewDetector(variant string, opts Options) (Detector, error) {
	switch variant {
	case "contour", "":
		return NewContourDetector(opts), nil
	case "static":
		return NewStaticDetector(opts.Boxes), nil
	default:
		return nil, fmt.Errorf("unknown detector variant: %s", variant)
	}
}

// ContourDetector finds elements by tracing closed outlines in the edge map.
type ContourDetector struct {
	opts Options
}

// NewContourDetector creates a contour detector with the given options.
// Options are validated on each Detect call.
func NewContourDetector(opts Options) *ContourDetector {
	return &ContourDetector{opts: opts}
}

// Detect runs the full detection chain on img:
//
//	Preprocess -> DetectEdges -> Enhance -> FindContours -> FilterBoxes
//	-> MergeOverlapping? -> MergeTextLines? -> MergeParagraphs?
//
// Errors wrap apperr.ErrInvalidInput. An image without elements yields an
// empty box list and no error.
func (d *ContourDetector) Detect(img image.Image) (*Detection, error) {
	o := d.opts
	if err := o.Filter.Validate(); err != nil {
		return nil, err
	}
	if o.MergeBoxes && (o.OverlapThreshold <= 0 || o.OverlapThreshold > 1) {
		return nil, apperr.InvalidInputf("overlap threshold must be in (0,1], got %g", o.OverlapThreshold)
	}

	gray, err := imaging.Preprocess(img, o.BlurKernel)
	if err != nil {
		return nil, fmt.Errorf("preprocess: %w", err)
	}
	edges, err := imaging.DetectEdges(gray, o.CannyLow, o.CannyHigh)
	if err != nil {
		return nil, fmt.Errorf("edge detection: %w", err)
	}
	enhanced, err := imaging.Enhance(edges, o.Enhance)
	if err != nil {
		return nil, fmt.Errorf("morphology: %w", err)
	}

	contours := FindContours(enhanced)
	raw := make([]geometry.Box, 0, len(contours))
	for _, c := range contours {
		raw = append(raw, c.Bounds())
	}
	boxes := FilterBoxes(raw, o.Filter)
	filtered := len(boxes)

	if o.MergeBoxes {
		boxes = MergeOverlapping(boxes, o.OverlapThreshold)
	}
	if o.MergeTextLines {
		boxes = MergeTextLines(boxes, o.TextLine)
	}
	if o.MergeParagraphs {
		boxes = MergeParagraphs(boxes, o.Paragraph)
	}

	return &Detection{
		Boxes:    boxes,
		Edges:    edges,
		Enhanced: enhanced,
		Contours: len(contours),
		Filtered: filtered,
	}, nil
}

// StaticDetector serves a precomputed box list, such as the output of an
// external model, so it can be scored like detected boxes.
type StaticDetector struct {
	boxes []geometry.Box
}

// NewStaticDetector wraps boxes. The slice is copied.
func NewStaticDetector(boxes []geometry.Box) *StaticDetector {
	return &StaticDetector{boxes: append([]geometry.Box(nil), boxes...)}
}

// Detect clips the stored boxes to img and drops any left empty. A nil
// image skips clipping.
func (d *StaticDetector) Detect(img image.Image) (*Detection, error) {
	for _, b := range d.boxes {
		if b.Empty() {
			return nil, apperr.InvalidInputf("box %v has no area", b)
		}
	}
	if img == nil {
		boxes := append([]geometry.Box(nil), d.boxes...)
		return &Detection{Boxes: boxes, Filtered: len(boxes)}, nil
	}

	r := img.Bounds()
	frame := geometry.Box{X1: 0, Y1: 0, X2: r.Dx(), Y2: r.Dy()}
	boxes := make([]geometry.Box, 0, len(d.boxes))
	for _, b := range d.boxes {
		if c := b.Intersect(frame); !c.Empty() {
			boxes = append(boxes, c)
		}
	}
	return &Detection{Boxes: boxes, Filtered: len(boxes)}, nil
}
