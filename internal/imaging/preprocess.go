package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"

	"github.com/wjojarth123/uicheck/internal/apperr"
)

// DefaultBlurKernel is the Gaussian kernel side length used when none is configured.
const DefaultBlurKernel = 5

// Preprocess converts img to grayscale and smooths it with a Gaussian blur.
//
// Parameters:
//   - img: Source image (any color model). Must have non-zero dimensions.
//   - kernelSize: Side length of the Gaussian kernel. Must be a positive odd
//     integer. Even or non-positive values are rejected, never rounded.
//
// Returns:
//   - *image.Gray: Smoothed luminance image with bounds (0,0)-(w,h).
//   - error: Wraps apperr.ErrInvalidInput for an empty image or bad kernel.
//
// # Algorithm
//
//  1. The image is copied to the origin (imaging.Clone) so later stages can
//     index pixels from (0,0).
//  2. Luminance conversion via bild's effect.Grayscale.
//  3. Gaussian blur via bild's blur.Gaussian with radius (kernelSize-1)/2.
//     A kernel size of 1 skips the blur.
func Preprocess(img image.Image, kernelSize int) (*image.Gray, error) {
	if img == nil {
		return nil, apperr.InvalidInputf("nil image")
	}
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, apperr.InvalidInputf("image has zero dimensions (%dx%d)", bounds.Dx(), bounds.Dy())
	}
	if kernelSize <= 0 || kernelSize%2 == 0 {
		return nil, apperr.InvalidInputf("blur kernel must be a positive odd integer, got %d", kernelSize)
	}

	gray := effect.Grayscale(imaging.Clone(img))
	if kernelSize == 1 {
		return toGray(gray), nil
	}

	blurred := blur.Gaussian(gray, float64(kernelSize-1)/2)
	return toGray(blurred), nil
}

// toGray copies the red channel of img into a new origin-anchored Gray image.
// Inputs here are already achromatic, so any channel carries the luminance.
func toGray(img image.Image) *image.Gray {
	bounds := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			r, _, _, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			out.Pix[y*out.Stride+x] = uint8(r >> 8)
		}
	}
	return out
}
