// Package imaging holds the raster primitives the region detectors are built
// on: decoding, grayscale and saturation channels, smoothing, thresholding,
// edge detection, binary morphology and cropping.
//
// # Coordinate System
//
// Every image produced here is anchored at (0,0). X increases rightward and Y
// increases downward. Rectangles follow image.Rectangle conventions: Min is
// inclusive and Max is exclusive.
//
// # Binary Images
//
// Thresholds, edge maps and morphology operate on *image.Gray where 0 is
// background and any non-zero value (always 255 when produced by this
// package) is foreground.
//
// # Thread Safety
//
// ImageBuffer and ImageCache are safe for concurrent use. The free functions
// never modify their inputs and can be called concurrently.
package imaging
