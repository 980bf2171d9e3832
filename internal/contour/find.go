package contour

import "image"

// Mode selects which boundaries Find reports.
type Mode int

const (
	// External reports only outermost blob boundaries. Blobs nested inside
	// the hole of another blob are skipped.
	External Mode = iota
	// Tree reports every blob boundary plus the boundary of every hole.
	Tree
)

// Moore neighbourhood in clockwise order (y grows downward), starting east.
var dirs = [8]image.Point{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

const west = 4

// component is a labelled connected set of pixels.
type component struct {
	start   image.Point // first pixel in raster order
	touches bool        // has a pixel on the image border
}

// labeling holds foreground and background component labels. Label 0 means
// "not in this layer"; component i is stored at index i-1.
type labeling struct {
	w, h   int
	fg, bg []int32
	fgs    []component
	bgs    []component
}

// Find returns the contours of bin in raster order of their first pixel.
// Blob contours come before hole contours in Tree mode.
func Find(bin *image.Gray, mode Mode) [][]image.Point {
	bounds := bin.Bounds()
	if bounds.Empty() {
		return nil
	}
	l := label(bin)
	// A boundary pixel is entered at most once from each of its neighbours.
	maxSteps := 8*l.w*l.h + 8

	var out [][]image.Point
	for i, c := range l.fgs {
		if mode == External && !l.outermost(c) {
			continue
		}
		id := int32(i + 1)
		out = append(out, trace(c.start, func(p image.Point) bool {
			return l.in(p) && l.fg[p.Y*l.w+p.X] == id
		}, maxSteps))
	}
	if mode != Tree {
		return out
	}
	for i, c := range l.bgs {
		if c.touches {
			continue
		}
		id := int32(i + 1)
		out = append(out, trace(c.start, func(p image.Point) bool {
			return l.in(p) && l.bg[p.Y*l.w+p.X] == id
		}, maxSteps))
	}
	return out
}

func (l *labeling) in(p image.Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < l.w && p.Y < l.h
}

// outermost reports whether a foreground component borders the background
// that reaches the image edge. The pixel west of the component's first pixel
// is always background, and it lies in the region enclosing the component.
func (l *labeling) outermost(c component) bool {
	if c.start.X == 0 {
		return true
	}
	b := l.bg[c.start.Y*l.w+c.start.X-1]
	return b > 0 && l.bgs[b-1].touches
}

func label(bin *image.Gray) *labeling {
	bounds := bin.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	l := &labeling{
		w:  w,
		h:  h,
		fg: make([]int32, w*h),
		bg: make([]int32, w*h),
	}

	isFg := func(i int) bool {
		return bin.Pix[(i/w)*bin.Stride+i%w] != 0
	}

	var queue []int
	flood := func(seed int, fg bool, id int32) bool {
		labels := l.bg
		if fg {
			labels = l.fg
		}
		touches := false
		queue = append(queue[:0], seed)
		labels[seed] = id
		for len(queue) > 0 {
			cur := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			x, y := cur%w, cur/w
			if x == 0 || y == 0 || x == w-1 || y == h-1 {
				touches = true
			}
			for d, off := range dirs {
				// Background is 4-connected: odd directions are diagonals.
				if !fg && d%2 == 1 {
					continue
				}
				nx, ny := x+off.X, y+off.Y
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				j := ny*w + nx
				if labels[j] != 0 || isFg(j) != fg {
					continue
				}
				labels[j] = id
				queue = append(queue, j)
			}
		}
		return touches
	}

	for i := 0; i < w*h; i++ {
		start := image.Point{X: i % w, Y: i / w}
		if isFg(i) {
			if l.fg[i] == 0 {
				id := int32(len(l.fgs) + 1)
				l.fgs = append(l.fgs, component{start: start, touches: flood(i, true, id)})
			}
			continue
		}
		if l.bg[i] == 0 {
			id := int32(len(l.bgs) + 1)
			l.bgs = append(l.bgs, component{start: start, touches: flood(i, false, id)})
		}
	}
	return l
}

// trace follows the boundary of the set defined by in, starting from its
// first pixel in raster order, using Moore-neighbour tracing with Jacob's
// stopping criterion. The result is compressed to direction changes.
func trace(start image.Point, in func(image.Point) bool, maxSteps int) []image.Point {
	pts := []image.Point{start}
	c, back := start, west
	for steps := 0; steps < maxSteps; steps++ {
		p, nb, ok := next(c, back, in)
		if !ok {
			break
		}
		if c == start && len(pts) > 1 && p == pts[1] {
			pts = pts[:len(pts)-1]
			break
		}
		pts = append(pts, p)
		c, back = p, nb
	}
	return compress(pts)
}

// next scans the neighbours of c clockwise, starting just after the
// backtrack direction, and returns the first pixel inside the set together
// with the backtrack direction seen from that pixel.
func next(c image.Point, back int, in func(image.Point) bool) (image.Point, int, bool) {
	for k := 1; k <= 8; k++ {
		d := (back + k) % 8
		p := c.Add(dirs[d])
		if !in(p) {
			continue
		}
		prev := c.Add(dirs[(d+7)%8])
		return p, direction(prev.Sub(p)), true
	}
	return image.Point{}, 0, false
}

func direction(delta image.Point) int {
	for d, off := range dirs {
		if off == delta {
			return d
		}
	}
	return west
}

// compress drops points lying on a straight run between their neighbours.
func compress(pts []image.Point) []image.Point {
	n := len(pts)
	if n <= 2 {
		return pts
	}
	out := make([]image.Point, 0, n)
	for i, p := range pts {
		prev := pts[(i+n-1)%n]
		nxt := pts[(i+1)%n]
		if p.Sub(prev) != nxt.Sub(p) {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return pts[:1]
	}
	return out
}
