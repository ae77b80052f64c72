// Package imaging holds the pixel-level stages of element detection:
// loading screenshots, grayscale conversion and blur, Canny edge detection,
// and morphological cleanup of the resulting edge map.
//
// The stages chain as
//
//	img -> Preprocess -> DetectEdges -> Enhance -> *EdgeMap
//
// and each returns a new value, leaving its input untouched.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner,
// X increasing rightward and Y increasing downward. Every image produced by
// this package is anchored at the origin, whatever the bounds of the input.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. The processing functions
// are stateless and may run concurrently on different images.
//
// # Error Handling
//
// Bad parameters (even blur kernels, negative thresholds, empty images) are
// reported as errors wrapping apperr.ErrInvalidInput. File and codec
// failures are wrapped with the path that caused them.
package imaging
