// Package contour extracts and simplifies the boundaries of connected
// foreground blobs in binary images.
//
// Foreground pixels (non-zero) are grouped with 8-connectivity and background
// pixels with 4-connectivity, so a diagonal gap never splits a blob and never
// joins two holes. Each contour is a closed, clockwise traversal of boundary
// pixel centres, compressed so that only the points where the direction of
// travel changes are kept.
package contour
