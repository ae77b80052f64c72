// Package visualize draws detection and layout results over a screenshot
// for debugging. Nothing here affects a score: every failure is returned as
// an error wrapping apperr.ErrRenderFailure and callers keep their analysis.
package visualize

import (
	"image"
	"image/color"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font/basicfont"

	"github.com/wjojarth123/uicheck/internal/apperr"
	"github.com/wjojarth123/uicheck/internal/geometry"
	"github.com/wjojarth123/uicheck/internal/layout"
)

// MaxCanvasPixels bounds the size of any canvas this package allocates.
const MaxCanvasPixels = 1 << 26

// Options controls Render.
type Options struct {
	// BoxColor is a hex color such as "#FF0000" or "#FF000080".
	BoxColor  string
	LineWidth float64
	Labels    bool // box index labels
	Lines     bool // alignment lines
	Grids     bool // translucent grid fills
}

// DefaultOptions draws red boxes with labels, alignment lines and grids.
func DefaultOptions() Options {
	return Options{BoxColor: "#FF0000", LineWidth: 2, Labels: true, Lines: true, Grids: true}
}

// Render annotates a copy of img.
//
// Layers, bottom to top:
//  1. Grid patterns, each filled with its own translucent color.
//  2. Alignment lines spanning the whole image at each group's mean
//     position. Each kind has its own hue; center kinds are dashed.
//  3. Box outlines in BoxColor.
//  4. Box index labels at each box's top-left corner.
func Render(img image.Image, boxes []geometry.Box, groups []layout.Group, grids []layout.Grid, opts Options) (out *image.RGBA, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, apperr.RenderFailuref("panic while drawing: %v", r)
		}
	}()

	if err := checkCanvas(img); err != nil {
		return nil, err
	}
	boxColor, alpha, err := parseHexColor(opts.BoxColor)
	if err != nil {
		return nil, apperr.RenderFailuref("invalid box color %q: %v", opts.BoxColor, err)
	}
	lineWidth := opts.LineWidth
	if lineWidth <= 0 {
		lineWidth = 1
	}

	dc := gg.NewContextForImage(imaging.Clone(img))
	w, h := float64(dc.Width()), float64(dc.Height())

	if opts.Grids {
		for i, g := range grids {
			c := GridColor(i)
			dc.SetRGBA(c.R, c.G, c.B, 0.25)
			b := g.Bounds
			dc.DrawRectangle(float64(b.X1), float64(b.Y1), float64(b.Width()), float64(b.Height()))
			dc.Fill()
		}
	}

	if opts.Lines {
		dc.SetLineWidth(1)
		for _, g := range groups {
			c := KindColor(g.Kind)
			dc.SetRGBA(c.R, c.G, c.B, 0.8)
			if g.Kind == layout.CenterX || g.Kind == layout.CenterY {
				dc.SetDash(6, 4)
			} else {
				dc.SetDash()
			}
			if g.Kind.Vertical() {
				dc.DrawLine(g.Position, 0, g.Position, h)
			} else {
				dc.DrawLine(0, g.Position, w, g.Position)
			}
			dc.Stroke()
		}
		dc.SetDash()
	}

	dc.SetLineWidth(lineWidth)
	dc.SetRGBA(boxColor.R, boxColor.G, boxColor.B, alpha)
	for _, b := range boxes {
		dc.DrawRectangle(float64(b.X1), float64(b.Y1), float64(b.Width()), float64(b.Height()))
		dc.Stroke()
	}

	if opts.Labels {
		dc.SetFontFace(basicfont.Face7x13)
		for i, b := range boxes {
			label := strconv.Itoa(i)
			tw, th := dc.MeasureString(label)
			dc.SetRGBA(0, 0, 0, 0.7)
			dc.DrawRectangle(float64(b.X1), float64(b.Y1), tw+4, th+4)
			dc.Fill()
			dc.SetRGB(1, 1, 1)
			dc.DrawString(label, float64(b.X1)+2, float64(b.Y1)+th+1)
		}
	}

	rgba, ok := dc.Image().(*image.RGBA)
	if !ok {
		return nil, apperr.RenderFailuref("unexpected canvas type %T", dc.Image())
	}
	return rgba, nil
}

// KindColor returns the line color for an alignment kind. Hues are spread
// evenly around the HCL wheel.
func KindColor(k layout.Kind) colorful.Color {
	hue := 360 * float64(k) / float64(len(layout.Kinds))
	return colorful.Hcl(hue, 0.9, 0.6).Clamped()
}

// GridColor returns the fill color of the i-th grid. Successive grids step
// by the golden angle so neighbours stay distinguishable.
func GridColor(i int) colorful.Color {
	hue := float64(i) * 137.508
	for hue >= 360 {
		hue -= 360
	}
	return colorful.Hcl(hue, 0.5, 0.75).Clamped()
}

// parseHexColor parses "#RRGGBB" or "#RRGGBBAA". The alpha is returned
// separately in [0,1].
func parseHexColor(hex string) (colorful.Color, float64, error) {
	hex = strings.TrimPrefix(hex, "#")
	alpha := 1.0
	if len(hex) == 8 {
		v, err := strconv.ParseUint(hex[6:], 16, 8)
		if err != nil {
			return colorful.Color{}, 0, err
		}
		alpha = float64(v) / 255
		hex = hex[:6]
	}
	c, err := colorful.Hex("#" + hex)
	return c, alpha, err
}

func checkCanvas(img image.Image) error {
	if img == nil {
		return apperr.RenderFailuref("nil image")
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return apperr.RenderFailuref("image has zero dimensions (%dx%d)", b.Dx(), b.Dy())
	}
	if b.Dx()*b.Dy() > MaxCanvasPixels {
		return apperr.RenderFailuref("image %dx%d exceeds the canvas limit", b.Dx(), b.Dy())
	}
	return nil
}

var panelTitles = [4]string{"original", "edges", "enhanced", "result"}

// RenderStages lays four images out in a 2×2 panel, each scaled to fit a
// cell the size of original: original and edges on top, enhanced and
// annotated below. Nil panels after the first are left blank.
func RenderStages(original, edges, enhanced, annotated image.Image) (out *image.NRGBA, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, apperr.RenderFailuref("panic while building stage panel: %v", r)
		}
	}()

	if err := checkCanvas(original); err != nil {
		return nil, err
	}
	cw, ch := original.Bounds().Dx(), original.Bounds().Dy()
	if 4*cw*ch > MaxCanvasPixels {
		return nil, apperr.RenderFailuref("stage panel for %dx%d exceeds the canvas limit", cw, ch)
	}

	panel := imaging.New(2*cw, 2*ch, color.White)
	for i, img := range []image.Image{original, edges, enhanced, annotated} {
		if img == nil || img.Bounds().Empty() {
			continue
		}
		fitted := imaging.Fit(img, cw, ch, imaging.Lanczos)
		panel = imaging.Paste(panel, fitted, image.Pt((i%2)*cw, (i/2)*ch))
	}

	dc := gg.NewContextForImage(panel)
	dc.SetFontFace(basicfont.Face7x13)
	for i, title := range panelTitles {
		x, y := float64((i%2)*cw)+4, float64((i/2)*ch)+4
		tw, th := dc.MeasureString(title)
		dc.SetRGBA(0, 0, 0, 0.6)
		dc.DrawRectangle(x, y, tw+6, th+6)
		dc.Fill()
		dc.SetRGB(1, 1, 0)
		dc.DrawString(title, x+3, y+th+2)
	}
	return imaging.Clone(dc.Image()), nil
}

// Thumbnail scales img down to fit within maxWidth×maxHeight, keeping its
// aspect ratio. Smaller images are returned at their own size.
func Thumbnail(img image.Image, maxWidth, maxHeight int) (*image.NRGBA, error) {
	if err := checkCanvas(img); err != nil {
		return nil, err
	}
	if maxWidth <= 0 || maxHeight <= 0 {
		return nil, apperr.RenderFailuref("thumbnail bounds must be positive, got %dx%d", maxWidth, maxHeight)
	}
	return imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos), nil
}
