package imaging

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"golang.org/x/image/bmp"
)

// writeTestPNG writes a solid-color PNG into a per-test directory and
// returns its path.
func writeTestPNG(t *testing.T, name string, width, height int, c color.Color) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, solidImage(width, height, c)); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func TestImageCache_Load(t *testing.T) {
	cache := NewImageCache()
	path := writeTestPNG(t, "screen.png", 100, 80, color.RGBA{255, 0, 0, 255})

	img1, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if b := img1.Bounds(); b.Dx() != 100 || b.Dy() != 80 {
		t.Errorf("unexpected dimensions: got %dx%d, want 100x80", b.Dx(), b.Dy())
	}

	img2, err := cache.Load(path)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if img1 != img2 {
		t.Error("second Load did not return cached image")
	}
	if cache.Len() != 1 {
		t.Errorf("Len: got %d, want 1", cache.Len())
	}
}

func TestImageCache_Load_BMP(t *testing.T) {
	path := filepath.Join(t.TempDir(), "screen.bmp")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	if err := bmp.Encode(f, solidImage(12, 7, color.White)); err != nil {
		t.Fatalf("failed to encode bmp: %v", err)
	}
	f.Close()

	img, err := NewImageCache().Load(path)
	if err != nil {
		t.Fatalf("Load failed for bmp: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 12 || b.Dy() != 7 {
		t.Errorf("unexpected dimensions: got %dx%d, want 12x7", b.Dx(), b.Dy())
	}
}

func TestImageCache_Load_Errors(t *testing.T) {
	cache := NewImageCache()

	if _, err := cache.Load("/nonexistent/path/to/image.png"); err == nil {
		t.Error("Load should fail for non-existent file")
	}

	bad := filepath.Join(t.TempDir(), "invalid.png")
	if err := os.WriteFile(bad, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if _, err := cache.Load(bad); err == nil {
		t.Error("Load should fail for invalid image data")
	}
	if cache.Len() != 0 {
		t.Error("failed loads must not be cached")
	}
}

func TestImageCache_ClearAndEvict(t *testing.T) {
	cache := NewImageCache()
	a := writeTestPNG(t, "a.png", 10, 10, color.White)
	b := writeTestPNG(t, "b.png", 10, 10, color.Black)

	for _, p := range []string{a, b} {
		if _, err := cache.Load(p); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
	}

	cache.Evict(a)
	cache.Evict("/nonexistent/path")
	if cache.Len() != 1 {
		t.Errorf("after Evict: got %d images, want 1", cache.Len())
	}

	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("Clear did not empty cache: %d images remain", cache.Len())
	}
}

func TestImageCache_ConcurrentAccess(t *testing.T) {
	cache := NewImageCache()
	path := writeTestPNG(t, "shared.png", 50, 50, color.RGBA{128, 128, 128, 255})

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(path); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Load error: %v", err)
	}
}

func TestLoadImageInfo(t *testing.T) {
	cache := NewImageCache()
	path := writeTestPNG(t, "info.png", 200, 150, color.RGBA{255, 128, 64, 255})

	info, err := LoadImageInfo(cache, path)
	if err != nil {
		t.Fatalf("LoadImageInfo failed: %v", err)
	}
	if info.Width != 200 || info.Height != 150 {
		t.Errorf("dimensions: got %dx%d, want 200x150", info.Width, info.Height)
	}
	if info.Format != "png" {
		t.Errorf("Format: got %s, want png", info.Format)
	}
	if info.FileSizeBytes <= 0 {
		t.Error("FileSizeBytes should be positive")
	}

	if _, err := LoadImageInfo(cache, "/nonexistent/image.png"); err == nil {
		t.Error("LoadImageInfo should fail for non-existent file")
	}
}

func TestFormatFromExt(t *testing.T) {
	tests := []struct {
		path   string
		format string
	}{
		{"a.png", "png"},
		{"a.PNG", "png"},
		{"a.jpg", "jpeg"},
		{"a.jpeg", "jpeg"},
		{"a.gif", "gif"},
		{"a.bmp", "bmp"},
		{"a.tif", "tiff"},
		{"a.webp", "webp"},
		{"a.xyz", "unknown"},
		{"noext", "unknown"},
	}
	for _, tt := range tests {
		if got := formatFromExt(tt.path); got != tt.format {
			t.Errorf("formatFromExt(%q): got %s, want %s", tt.path, got, tt.format)
		}
		if IsImageFile(tt.path) != (tt.format != "unknown") {
			t.Errorf("IsImageFile(%q) disagrees with format %s", tt.path, tt.format)
		}
	}
}

func TestEncodePNGBase64(t *testing.T) {
	s, err := EncodePNGBase64(image.NewGray(image.Rect(0, 0, 3, 3)))
	if err != nil {
		t.Fatalf("EncodePNGBase64 failed: %v", err)
	}
	if s == "" {
		t.Error("expected non-empty encoding")
	}
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.png")
	if err := Save(solidImage(4, 4, color.White), path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	img, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if img.Bounds().Dx() != 4 {
		t.Errorf("round trip width: got %d, want 4", img.Bounds().Dx())
	}

	if err := Save(solidImage(4, 4, color.White), filepath.Join(t.TempDir(), "out.unknownext")); err == nil {
		t.Error("Save should fail for an unsupported extension")
	}
}
