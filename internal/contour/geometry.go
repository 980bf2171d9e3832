package contour

import (
	"image"
	"math"
)

// Area returns the polygon area enclosed by pts (shoelace formula). Contours
// of one or two points, and straight lines, have zero area.
func Area(pts []image.Point) float64 {
	n := len(pts)
	if n < 3 {
		return 0
	}
	var sum int
	for i, p := range pts {
		q := pts[(i+1)%n]
		sum += p.X*q.Y - q.X*p.Y
	}
	return math.Abs(float64(sum)) / 2
}

// Perimeter returns the length of the closed polygon through pts.
func Perimeter(pts []image.Point) float64 {
	n := len(pts)
	if n < 2 {
		return 0
	}
	var total float64
	for i, p := range pts {
		total += distance(p, pts[(i+1)%n])
	}
	return total
}

// BoundingRect returns the smallest rectangle containing every point, with
// Max exclusive so that a single point yields a 1x1 rectangle.
func BoundingRect(pts []image.Point) image.Rectangle {
	if len(pts) == 0 {
		return image.Rectangle{}
	}
	r := image.Rectangle{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		r.Min.X = min(r.Min.X, p.X)
		r.Min.Y = min(r.Min.Y, p.Y)
		r.Max.X = max(r.Max.X, p.X)
		r.Max.Y = max(r.Max.Y, p.Y)
	}
	r.Max = r.Max.Add(image.Pt(1, 1))
	return r
}

// Largest returns the contour with the greatest area. The first one wins on
// ties; nil is returned for an empty list.
func Largest(contours [][]image.Point) []image.Point {
	var best []image.Point
	bestArea := -1.0
	for _, c := range contours {
		if a := Area(c); a > bestArea {
			best, bestArea = c, a
		}
	}
	return best
}

func distance(a, b image.Point) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}
