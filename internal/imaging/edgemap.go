package imaging

import (
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/segment"
)

// EdgeMap is a binary image: each pixel is either an edge or background.
//
// An EdgeMap always has its origin at (0,0) and the same dimensions as the
// image it was derived from. Stages never modify an EdgeMap they received;
// they return a new one.
type EdgeMap struct {
	Width  int
	Height int
	Pix    []bool // row-major, len == Width*Height
}

// NewEdgeMap allocates an all-background edge map.
func NewEdgeMap(width, height int) *EdgeMap {
	return &EdgeMap{
		Width:  width,
		Height: height,
		Pix:    make([]bool, width*height),
	}
}

// At reports whether (x, y) is an edge pixel. Coordinates outside the map
// are background.
func (m *EdgeMap) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Pix[y*m.Width+x]
}

// Set marks (x, y) as edge or background. Out-of-range writes are ignored.
func (m *EdgeMap) Set(x, y int, edge bool) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	m.Pix[y*m.Width+x] = edge
}

// Count returns the number of edge pixels.
func (m *EdgeMap) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v {
			n++
		}
	}
	return n
}

// Gray renders the map as a grayscale image with edges in white (255) and
// background in black (0).
func (m *EdgeMap) Gray() *image.Gray {
	g := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for i, v := range m.Pix {
		if v {
			g.Pix[i] = 255
		}
	}
	return g
}

// EdgeMapFromImage binarizes img: pixels with luminance >= level become
// edges. The result is re-anchored at the origin.
func EdgeMapFromImage(img image.Image, level uint8) *EdgeMap {
	bin := segment.Threshold(img, level)
	bounds := bin.Bounds()
	m := NewEdgeMap(bounds.Dx(), bounds.Dy())
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if bin.GrayAt(x+bounds.Min.X, y+bounds.Min.Y) == (color.Gray{Y: 255}) {
				m.Pix[y*m.Width+x] = true
			}
		}
	}
	return m
}
