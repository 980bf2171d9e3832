// Package detection locates visual and textual regions of interest in page
// images.
//
// # Visual Regions
//
// An Ensemble runs a fixed, ordered list of independent strategies over the
// smoothed grayscale image:
//
//   - edges: Canny at three threshold pairs, closed with dilate/erode
//   - adaptive: local-mean thresholding, robust to uneven lighting
//   - otsu: one global threshold, dark content as foreground
//   - saturation: coloured artwork on a neutral background
//   - quads: four-cornered outlines at fixed brightness levels
//
// Every rectangle a strategy nominates is tightened by Refine before it is
// offered for deduplication. A strategy that errors or panics contributes no
// candidates and never aborts the others. When too few regions survive, a
// coarse grid of section regions is added as a fallback.
//
// # Text Regions
//
// GroupWords clusters word boxes from an OCR engine into one region per
// layout block.
//
// # Coordinate System
//
// All coordinates are pixel offsets from the top-left corner of the image.
// Rectangles follow image.Rectangle conventions (Max exclusive); regions
// carry X, Y, Width and Height.
//
// # Confidence Scores
//
// Confidences are fixed per strategy on a 0-100 scale (see config.Confidence)
// and decide which of two overlapping candidates survives.
package detection
