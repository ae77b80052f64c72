package imaging

import (
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/wjojarth123/uicheck/internal/apperr"
)

func TestEdgeDetect(t *testing.T) {
	// Black rectangle on white background.
	img := createEdgeTestImage(100, 100)

	result, err := EdgeDetect(img, DefaultBlurKernel, 50, 150)
	if err != nil {
		t.Fatalf("EdgeDetect failed: %v", err)
	}

	if result.Width != 100 || result.Height != 100 {
		t.Errorf("dimensions: got %dx%d, want 100x100", result.Width, result.Height)
	}
	if result.MimeType != "image/png" {
		t.Errorf("MimeType: got %s, want image/png", result.MimeType)
	}
	if result.EdgePixels == 0 {
		t.Error("expected edge pixels around the rectangle")
	}

	decoded, err := base64.StdEncoding.DecodeString(result.ImageBase64)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	edgeImg, err := png.Decode(strings.NewReader(string(decoded)))
	if err != nil {
		t.Fatalf("failed to decode PNG: %v", err)
	}
	if edgeImg.Bounds().Dx() != 100 || edgeImg.Bounds().Dy() != 100 {
		t.Errorf("decoded image dimensions: got %dx%d, want 100x100",
			edgeImg.Bounds().Dx(), edgeImg.Bounds().Dy())
	}
}

func TestDetectEdges_UniformImage(t *testing.T) {
	gray, err := Preprocess(solidImage(50, 50, color.RGBA{128, 128, 128, 255}), 5)
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}

	edges, err := DetectEdges(gray, 50, 150)
	if err != nil {
		t.Fatalf("DetectEdges failed: %v", err)
	}
	if n := edges.Count(); n != 0 {
		t.Errorf("uniform image should have no edges, got %d", n)
	}
}

func TestDetectEdges_ZeroThresholdIgnoresFlatRegions(t *testing.T) {
	gray, _ := Preprocess(solidImage(20, 20, color.White), 3)

	edges, err := DetectEdges(gray, 0, 0)
	if err != nil {
		t.Fatalf("DetectEdges failed: %v", err)
	}
	if n := edges.Count(); n != 0 {
		t.Errorf("flat image with zero thresholds should have no edges, got %d", n)
	}
}

func TestDetectEdges_StrongVerticalEdge(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			if x < 50 {
				img.Set(x, y, color.Black)
			} else {
				img.Set(x, y, color.White)
			}
		}
	}

	gray, err := Preprocess(img, 5)
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	edges, err := DetectEdges(gray, 50, 150)
	if err != nil {
		t.Fatalf("DetectEdges failed: %v", err)
	}

	// Every interior row should carry an edge pixel next to x=50 and none
	// far from it.
	for y := 5; y < 95; y++ {
		found := false
		for x := 47; x <= 52; x++ {
			if edges.At(x, y) {
				found = true
			}
		}
		if !found {
			t.Fatalf("row %d: vertical edge not detected near x=50", y)
		}
		if edges.At(20, y) || edges.At(80, y) {
			t.Fatalf("row %d: unexpected edge far from the step", y)
		}
	}
}

func TestDetectEdges_WeakPixelsNeedStrongSeed(t *testing.T) {
	// A faint step (gray 100 -> 110) never exceeds the high threshold.
	img := image.NewGray(image.Rect(0, 0, 40, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			v := uint8(100)
			if x >= 20 {
				v = 110
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}

	edges, err := DetectEdges(img, 5, 1000)
	if err != nil {
		t.Fatalf("DetectEdges failed: %v", err)
	}
	if n := edges.Count(); n != 0 {
		t.Errorf("weak-only edge should be discarded, got %d pixels", n)
	}

	edges, _ = DetectEdges(img, 5, 20)
	if edges.Count() == 0 {
		t.Error("step should be detected once the high threshold is reachable")
	}
}

func TestDetectEdges_InvalidThresholds(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 10, 10))

	tests := []struct {
		name      string
		low, high int
	}{
		{"negative low", -1, 100},
		{"low above high", 200, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DetectEdges(gray, tt.low, tt.high)
			if !errors.Is(err, apperr.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestDetectEdges_SmallImage(t *testing.T) {
	gray, _ := Preprocess(solidImage(2, 2, color.White), 5)

	edges, err := DetectEdges(gray, 50, 150)
	if err != nil {
		t.Fatalf("DetectEdges failed: %v", err)
	}
	if edges.Width != 2 || edges.Height != 2 {
		t.Errorf("dimensions: got %dx%d, want 2x2", edges.Width, edges.Height)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		val, min, max, want int
	}{
		{5, 0, 10, 5},
		{-1, 0, 10, 0},
		{15, 0, 10, 10},
		{0, 0, 10, 0},
		{10, 0, 10, 10},
	}

	for _, tt := range tests {
		got := clamp(tt.val, tt.min, tt.max)
		if got != tt.want {
			t.Errorf("clamp(%d, %d, %d): got %d, want %d",
				tt.val, tt.min, tt.max, got, tt.want)
		}
	}
}

// createEdgeTestImage creates an image with a black rectangle on white background
// to create clear edges for testing
func createEdgeTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.White)
		}
	}
	for y := height / 4; y < 3*height/4; y++ {
		for x := width / 4; x < 3*width/4; x++ {
			img.Set(x, y, color.Black)
		}
	}
	return img
}

func solidImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}
