// Package detection turns an enhanced edge map into element bounding boxes.
//
// The contour detector runs
//
//	Preprocess -> DetectEdges -> Enhance   (package imaging)
//	FindContours -> FilterBoxes -> merges  (this package)
//
// Only external contours are kept: outlines nested inside another element's
// outline (icon strokes, button labels) would otherwise split one element
// into many boxes.
//
// # Merging
//
// Three optional merges run after filtering, in this order:
//
//   - MergeOverlapping: boxes with IoU at or above a threshold are replaced
//     by their union until no such pair remains.
//   - MergeTextLines: neighbouring boxes of similar height on one line are
//     joined, so words become lines.
//   - MergeParagraphs: left-aligned lines with small vertical gaps are
//     joined into blocks.
//
// All three are off by default because they are destructive for closely
// spaced tokens.
//
// # Detectors
//
// Detector is the strategy seam for box producers. NewDetector("contour")
// builds the pixel pipeline; NewDetector("static") serves a precomputed
// box list, which is how boxes from an external model enter scoring.
package detection
