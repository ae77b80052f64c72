package imaging

import (
	"image"
	"math"

	"github.com/wjojarth123/uicheck/internal/apperr"
)

// Default Canny hysteresis thresholds on the 0-255 gradient scale.
const (
	DefaultCannyLow  = 50
	DefaultCannyHigh = 150
)

// EdgeDetectResult contains an edge-detected image encoded as base64 PNG.
//
// The result is a grayscale image where white pixels (255) represent detected
// edges and black pixels (0) represent non-edges.
type EdgeDetectResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	EdgePixels  int    `json:"edge_pixels"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EdgeDetect runs preprocessing and Canny detection on img and returns the
// edge map as a PNG. It backs the image_edge_detect tool.
func EdgeDetect(img image.Image, blurKernel, thresholdLow, thresholdHigh int) (*EdgeDetectResult, error) {
	gray, err := Preprocess(img, blurKernel)
	if err != nil {
		return nil, err
	}
	edges, err := DetectEdges(gray, thresholdLow, thresholdHigh)
	if err != nil {
		return nil, err
	}
	encoded, err := EncodePNGBase64(edges.Gray())
	if err != nil {
		return nil, err
	}
	return &EdgeDetectResult{
		Width:       edges.Width,
		Height:      edges.Height,
		EdgePixels:  edges.Count(),
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}

// DetectEdges performs Canny edge detection on a smoothed grayscale image.
//
// Parameters:
//   - gray: Output of Preprocess. Intensities are taken on the 0-255 scale.
//   - thresholdLow: Gradient magnitude above which a pixel is a candidate
//     (weak) edge. Must be >= 0.
//   - thresholdHigh: Gradient magnitude above which a pixel is a definite
//     (strong) edge. Must be >= thresholdLow.
//
// Returns:
//   - *EdgeMap: Binary edge map with the same dimensions as gray.
//   - error: Wraps apperr.ErrInvalidInput for bad thresholds or an empty image.
//
// # Algorithm
//
//  1. Gradient computation: Sobel operators for X and Y gradients with
//     replicated borders. magnitude = sqrt(Gx² + Gy²).
//
//  2. Non-maximum suppression: each pixel is compared with its two
//     neighbours along the quantized gradient direction (0°, 45°, 90°, 135°)
//     and kept only if it is a local maximum. Border pixels are dropped.
//
//  3. Hysteresis: pixels above thresholdHigh seed a flood fill that follows
//     8-connected pixels above thresholdLow. Weak pixels not reached from any
//     strong pixel are discarded.
//
// Comparisons are strict, so a zero low threshold still ignores flat regions.
// Because of the Sobel gain, a black/white step produces magnitudes up to
// about 1020, well above the default thresholds.
func DetectEdges(gray *image.Gray, thresholdLow, thresholdHigh int) (*EdgeMap, error) {
	if gray == nil {
		return nil, apperr.InvalidInputf("nil grayscale image")
	}
	if thresholdLow < 0 || thresholdHigh < 0 {
		return nil, apperr.InvalidInputf("canny thresholds must be non-negative, got %d/%d", thresholdLow, thresholdHigh)
	}
	if thresholdLow > thresholdHigh {
		return nil, apperr.InvalidInputf("canny low threshold %d exceeds high threshold %d", thresholdLow, thresholdHigh)
	}

	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, apperr.InvalidInputf("image has zero dimensions (%dx%d)", width, height)
	}

	pix := func(x, y int) float64 {
		x = clamp(x, 0, width-1)
		y = clamp(y, 0, height-1)
		return float64(gray.Pix[y*gray.Stride+x])
	}

	sobelX := [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY := [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}

	magnitude := make([]float64, width*height)
	direction := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					v := pix(x+kx, y+ky)
					gx += v * sobelX[ky+1][kx+1]
					gy += v * sobelY[ky+1][kx+1]
				}
			}
			i := y*width + x
			magnitude[i] = math.Sqrt(gx*gx + gy*gy)
			direction[i] = math.Atan2(gy, gx)
		}
	}

	suppressed := suppressNonMaxima(magnitude, direction, width, height)
	return hysteresis(suppressed, width, height, float64(thresholdLow), float64(thresholdHigh)), nil
}

// suppressNonMaxima keeps gradient magnitudes that are local maxima along
// the gradient direction. The comparison is strict on one side so a
// two-pixel plateau yields a single-pixel edge.
func suppressNonMaxima(magnitude, direction []float64, width, height int) []float64 {
	suppressed := make([]float64, width*height)
	at := func(x, y int) float64 { return magnitude[y*width+x] }

	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			i := y*width + x
			mag := magnitude[i]
			if mag == 0 {
				continue
			}
			angle := direction[i]

			var n1, n2 float64
			switch {
			case (angle >= -math.Pi/8 && angle < math.Pi/8) || angle >= 7*math.Pi/8 || angle < -7*math.Pi/8:
				n1, n2 = at(x-1, y), at(x+1, y)
			case (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8):
				n1, n2 = at(x-1, y-1), at(x+1, y+1)
			case (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8):
				n1, n2 = at(x, y-1), at(x, y+1)
			default:
				n1, n2 = at(x+1, y-1), at(x-1, y+1)
			}

			if mag > n1 && mag >= n2 {
				suppressed[i] = mag
			}
		}
	}
	return suppressed
}

// hysteresis promotes weak pixels that are 8-connected to a strong pixel.
func hysteresis(suppressed []float64, width, height int, low, high float64) *EdgeMap {
	out := NewEdgeMap(width, height)
	stack := make([]int, 0, 256)

	for i, v := range suppressed {
		if v > high && !out.Pix[i] {
			out.Pix[i] = true
			stack = append(stack, i)
		}
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%width, i/width
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= width || ny >= height {
					continue
				}
				j := ny*width + nx
				if !out.Pix[j] && suppressed[j] > low {
					out.Pix[j] = true
					stack = append(stack, j)
				}
			}
		}
	}
	return out
}

// clamp constrains an integer value to the range [min, max].
// Used for boundary handling in convolution operations.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
