package detection

import (
	"math"

	"github.com/wjojarth123/uicheck/internal/geometry"
	"github.com/wjojarth123/uicheck/internal/imaging"
)

// Contour is the ordered outer boundary of one connected group of edge
// pixels. Consecutive points are 8-neighbours and the last point connects
// back to the first.
type Contour struct {
	Points []geometry.Point `json:"points"`
}

// Bounds returns the smallest box containing every contour point.
func (c Contour) Bounds() geometry.Box {
	if len(c.Points) == 0 {
		return geometry.Box{}
	}
	b := geometry.Box{X1: c.Points[0].X, Y1: c.Points[0].Y, X2: c.Points[0].X, Y2: c.Points[0].Y}
	for _, p := range c.Points[1:] {
		b.X1 = min(b.X1, p.X)
		b.Y1 = min(b.Y1, p.Y)
		b.X2 = max(b.X2, p.X)
		b.Y2 = max(b.Y2, p.Y)
	}
	// Points are pixel positions; the box end is exclusive.
	b.X2++
	b.Y2++
	return b
}

// Area returns the polygon area enclosed by the contour (shoelace formula
// over pixel positions). A single pixel or a straight line has area 0.
func (c Contour) Area() float64 {
	n := len(c.Points)
	if n < 3 {
		return 0
	}
	var sum int
	for i := 0; i < n; i++ {
		p, q := c.Points[i], c.Points[(i+1)%n]
		sum += p.X*q.Y - q.X*p.Y
	}
	return math.Abs(float64(sum)) / 2
}

// mooreOffsets lists the 8 neighbours clockwise (y grows downward),
// starting at west.
var mooreOffsets = [8]geometry.Point{
	{X: -1, Y: 0}, {X: -1, Y: -1}, {X: 0, Y: -1}, {X: 1, Y: -1},
	{X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}, {X: -1, Y: 1},
}

// FindContours returns the outer boundary of every external edge component
// in m, ordered by the raster position of each component's first pixel.
//
// # Algorithm
//
//  1. Labelling: edge pixels are grouped into 8-connected components with
//     an iterative flood fill.
//  2. Exterior: background pixels 4-connected to the image border are
//     marked as outside. A 4-connected background region cannot cross an
//     8-connected loop, so anything enclosed by an element outline is not
//     outside.
//  3. Selection: a component is external when it touches the image border
//     or is 4-adjacent to an outside pixel. Components nested inside another
//     component's loop (icon details, text inside a button) are dropped.
//  4. Tracing: each external component's boundary is walked with
//     Moore-neighbour tracing from its topmost-leftmost pixel.
func FindContours(m *imaging.EdgeMap) []Contour {
	if m == nil || m.Width == 0 || m.Height == 0 {
		return nil
	}

	labels, starts := labelComponents(m)
	outside := exteriorBackground(m)
	external := make([]bool, len(starts)+1)

	w, h := m.Width, m.Height
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			id := labels[y*w+x]
			if id == 0 || external[id] {
				continue
			}
			if x == 0 || y == 0 || x == w-1 || y == h-1 {
				external[id] = true
				continue
			}
			if outside[y*w+x-1] || outside[y*w+x+1] || outside[(y-1)*w+x] || outside[(y+1)*w+x] {
				external[id] = true
			}
		}
	}

	contours := make([]Contour, 0, len(starts))
	for i, start := range starts {
		id := int32(i + 1)
		if !external[id] {
			continue
		}
		contours = append(contours, Contour{Points: traceBoundary(labels, w, h, id, start)})
	}
	return contours
}

// labelComponents assigns each edge pixel the 1-based id of its
// 8-connected component. starts[id-1] is the first pixel of the component
// in raster order, which is also its topmost-leftmost pixel.
func labelComponents(m *imaging.EdgeMap) ([]int32, []geometry.Point) {
	w, h := m.Width, m.Height
	labels := make([]int32, w*h)
	var starts []geometry.Point
	stack := make([]int, 0, 256)

	for i, edge := range m.Pix {
		if !edge || labels[i] != 0 {
			continue
		}
		starts = append(starts, geometry.Point{X: i % w, Y: i / w})
		id := int32(len(starts))
		labels[i] = id
		stack = append(stack[:0], i)

		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			px, py := p%w, p/w
			for _, off := range mooreOffsets {
				nx, ny := px+off.X, py+off.Y
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				j := ny*w + nx
				if m.Pix[j] && labels[j] == 0 {
					labels[j] = id
					stack = append(stack, j)
				}
			}
		}
	}
	return labels, starts
}

// exteriorBackground marks background pixels reachable from the image
// border through 4-connected background.
func exteriorBackground(m *imaging.EdgeMap) []bool {
	w, h := m.Width, m.Height
	outside := make([]bool, w*h)
	stack := make([]int, 0, 2*(w+h))

	seed := func(x, y int) {
		i := y*w + x
		if !m.Pix[i] && !outside[i] {
			outside[i] = true
			stack = append(stack, i)
		}
	}
	for x := 0; x < w; x++ {
		seed(x, 0)
		seed(x, h-1)
	}
	for y := 0; y < h; y++ {
		seed(0, y)
		seed(w-1, y)
	}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		px, py := p%w, p/w
		if px > 0 {
			seed(px-1, py)
		}
		if px < w-1 {
			seed(px+1, py)
		}
		if py > 0 {
			seed(px, py-1)
		}
		if py < h-1 {
			seed(px, py+1)
		}
	}
	return outside
}

// traceBoundary walks the outer boundary of component id clockwise.
// start must be the component's topmost-leftmost pixel, so its west
// neighbour is known to be background.
func traceBoundary(labels []int32, w, h int, id int32, start geometry.Point) []geometry.Point {
	inside := func(p geometry.Point) bool {
		return p.X >= 0 && p.Y >= 0 && p.X < w && p.Y < h && labels[p.Y*w+p.X] == id
	}

	contour := []geometry.Point{start}
	cur, back := start, 0
	// Each boundary pixel can be entered from at most four sides.
	limit := 4*len(labels) + 8

	for iter := 0; iter < limit; iter++ {
		next, nextBack, ok := mooreStep(cur, back, inside)
		if !ok {
			break // isolated pixel
		}
		if cur == start && len(contour) > 1 && next == contour[1] {
			contour = contour[:len(contour)-1]
			break
		}
		contour = append(contour, next)
		cur, back = next, nextBack
	}
	return contour
}

// mooreStep finds the next boundary pixel clockwise around cur, starting
// just after the background neighbour at direction back. It returns the new
// pixel and the direction, relative to it, of the last background
// neighbour examined.
func mooreStep(cur geometry.Point, back int, inside func(geometry.Point) bool) (geometry.Point, int, bool) {
	for k := 1; k <= 8; k++ {
		d := (back + k) % 8
		q := geometry.Point{X: cur.X + mooreOffsets[d].X, Y: cur.Y + mooreOffsets[d].Y}
		if !inside(q) {
			continue
		}
		prev := mooreOffsets[(back+k-1)%8]
		rel := geometry.Point{X: cur.X + prev.X - q.X, Y: cur.Y + prev.Y - q.Y}
		return q, offsetIndex(rel), true
	}
	return cur, back, false
}

func offsetIndex(p geometry.Point) int {
	for i, off := range mooreOffsets {
		if off == p {
			return i
		}
	}
	return 0
}
