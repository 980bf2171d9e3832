package contour

import (
	"image"
	"math"
)

// Approx simplifies a closed contour with the Douglas-Peucker algorithm.
// Points closer than epsilon to the simplified outline are dropped.
//
// The contour is split at the point farthest from pts[0] and each half is
// simplified as an open polyline, so the result always keeps pts[0].
func Approx(pts []image.Point, epsilon float64) []image.Point {
	n := len(pts)
	if n < 3 {
		return append([]image.Point(nil), pts...)
	}

	far, best := 0, 0.0
	for i, p := range pts {
		if d := distance(p, pts[0]); d > best {
			far, best = i, d
		}
	}
	if far == 0 {
		return []image.Point{pts[0]}
	}

	ring := make([]image.Point, 0, n+1)
	ring = append(ring, pts...)
	ring = append(ring, pts[0])

	keep := make([]bool, len(ring))
	simplify(ring[:far+1], epsilon, keep[:far+1])
	simplify(ring[far:], epsilon, keep[far:])

	out := make([]image.Point, 0, 8)
	for i := 0; i < n; i++ {
		if keep[i] {
			out = append(out, ring[i])
		}
	}
	return out
}

// simplify marks the points of an open polyline that survive Douglas-Peucker
// with the given tolerance. Both endpoints are always kept.
func simplify(line []image.Point, epsilon float64, keep []bool) {
	last := len(line) - 1
	keep[0], keep[last] = true, true

	type span struct{ from, to int }
	stack := []span{{0, last}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if s.to-s.from < 2 {
			continue
		}

		idx, dmax := -1, -1.0
		for i := s.from + 1; i < s.to; i++ {
			if d := segmentDistance(line[i], line[s.from], line[s.to]); d > dmax {
				idx, dmax = i, d
			}
		}
		if dmax > epsilon {
			keep[idx] = true
			stack = append(stack, span{s.from, idx}, span{idx, s.to})
		}
	}
}

// segmentDistance returns the distance from p to the segment a-b.
func segmentDistance(p, a, b image.Point) float64 {
	dx, dy := float64(b.X-a.X), float64(b.Y-a.Y)
	if dx == 0 && dy == 0 {
		return distance(p, a)
	}
	t := (float64(p.X-a.X)*dx + float64(p.Y-a.Y)*dy) / (dx*dx + dy*dy)
	t = max(0, min(1, t))
	px := float64(a.X) + t*dx
	py := float64(a.Y) + t*dy
	return math.Hypot(float64(p.X)-px, float64(p.Y)-py)
}

// Downsample keeps every step-th point, step = len(pts)/maxPoints, and
// truncates the result so it never exceeds maxPoints. A non-positive cap
// leaves the contour untouched.
func Downsample(pts []image.Point, maxPoints int) []image.Point {
	if maxPoints <= 0 || len(pts) <= maxPoints {
		return pts
	}
	step := max(1, len(pts)/maxPoints)
	out := make([]image.Point, 0, maxPoints)
	for i := 0; i < len(pts) && len(out) < maxPoints; i += step {
		out = append(out, pts[i])
	}
	return out
}
