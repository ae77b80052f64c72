package imaging

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/wjojarth123/uicheck/internal/apperr"
	"github.com/wjojarth123/uicheck/internal/geometry"
)

// MaxCropScale bounds the zoom factor accepted by CropBox.
const MaxCropScale = 8.0

// CropResult is one element cut out of a screenshot.
type CropResult struct {
	// Box is the region actually cut, after padding and clipping.
	Box         geometry.Box `json:"box"`
	Width       int          `json:"width"`
	Height      int          `json:"height"`
	ImageBase64 string       `json:"image_base64"`
	MimeType    string       `json:"mime_type"`
}

// CropBox cuts box out of img so a single element can be inspected.
//
// The box is grown by pad pixels on every side and clipped to the image
// before cutting. A scale other than 0 or 1 resizes the crop with Lanczos
// resampling; it must lie in (0, MaxCropScale].
func CropBox(img image.Image, box geometry.Box, pad int, scale float64) (*CropResult, error) {
	if img == nil {
		return nil, apperr.InvalidInputf("nil image")
	}
	if box.Empty() {
		return nil, apperr.InvalidInputf("crop box %v has no area", box)
	}
	if pad < 0 {
		return nil, apperr.InvalidInputf("padding must be non-negative, got %d", pad)
	}
	if scale < 0 || scale > MaxCropScale {
		return nil, apperr.InvalidInputf("scale must be in (0,%g], got %g", MaxCropScale, scale)
	}

	b := img.Bounds()
	frame := geometry.Box{X1: 0, Y1: 0, X2: b.Dx(), Y2: b.Dy()}
	region := geometry.Box{X1: box.X1 - pad, Y1: box.Y1 - pad, X2: box.X2 + pad, Y2: box.Y2 + pad}.Intersect(frame)
	if region.Empty() {
		return nil, apperr.InvalidInputf("crop box %v lies outside the %dx%d image", box, b.Dx(), b.Dy())
	}

	// Boxes are relative to the top-left corner whatever img's origin is.
	rect := image.Rect(region.X1, region.Y1, region.X2, region.Y2).Add(b.Min)
	cropped := imaging.Crop(img, rect)
	if scale != 0 && scale != 1 {
		w := max(1, int(float64(cropped.Bounds().Dx())*scale))
		h := max(1, int(float64(cropped.Bounds().Dy())*scale))
		cropped = imaging.Resize(cropped, w, h, imaging.Lanczos)
	}

	encoded, err := EncodePNGBase64(cropped)
	if err != nil {
		return nil, err
	}
	return &CropResult{
		Box:         region,
		Width:       cropped.Bounds().Dx(),
		Height:      cropped.Bounds().Dy(),
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}
