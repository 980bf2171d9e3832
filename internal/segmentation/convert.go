package segmentation

import (
	"image"
	"math"

	"github.com/ironsheep/image-regions/internal/config"
	"github.com/ironsheep/image-regions/internal/contour"
	"github.com/ironsheep/image-regions/internal/imaging"
	"github.com/ironsheep/image-regions/internal/region"
)

// BoundingBox returns the box spanned by the foreground pixels. Width and
// height are max(1, max-min) of the foreground coordinates. ok is false for
// an empty mask.
func BoundingBox(m *Mask) (box image.Rectangle, ok bool) {
	fg, ok := imaging.ForegroundBounds(m.Gray())
	if !ok {
		return image.Rectangle{}, false
	}
	w := max(1, fg.Dx()-1)
	h := max(1, fg.Dy()-1)
	return image.Rect(fg.Min.X, fg.Min.Y, fg.Min.X+w, fg.Min.Y+h), true
}

// Polygon outlines the largest foreground blob of m.
//
// The blob's external contour is simplified with a tolerance of
// preset.Epsilon times its perimeter, then subsampled at a fixed stride so
// it has at most preset.MaxPoints vertices. ok is false when the mask is
// empty or the outline has fewer than three points.
func Polygon(m *Mask, preset config.PolygonPreset) (poly []region.Point, ok bool) {
	largest := contour.Largest(contour.Find(m.Gray(), contour.External))
	if len(largest) < 3 {
		return nil, false
	}
	simplified := contour.Approx(largest, preset.Epsilon*contour.Perimeter(largest))
	if len(simplified) < 3 {
		return nil, false
	}
	for _, p := range contour.Downsample(simplified, preset.MaxPoints) {
		poly = append(poly, region.Point{X: p.X, Y: p.Y})
	}
	return poly, true
}

// FromMask converts m into a region in the coordinate space of bounds.
//
// A mask whose size differs from bounds (a model's native output resolution)
// is scaled to it. The region has no ID, type or confidence yet. ok is false
// for an empty mask.
func FromMask(m *Mask, bounds image.Rectangle, preset config.PolygonPreset) (region.Region, bool) {
	box, ok := BoundingBox(m)
	if !ok {
		return region.Region{}, false
	}
	s := newScaler(m.Bounds(), bounds)
	r := region.FromRect(s.rect(box), "", 0, true)
	if poly, ok := Polygon(m, preset); ok {
		r.Polygon = make([]region.Point, len(poly))
		for i, p := range poly {
			r.Polygon[i] = s.point(p)
		}
	}
	return r, true
}

// scaler maps mask coordinates onto image coordinates.
type scaler struct {
	sx, sy float64
	bounds image.Rectangle
}

func newScaler(mask, img image.Rectangle) scaler {
	s := scaler{sx: 1, sy: 1, bounds: img}
	if mask.Dx() > 0 && mask.Dy() > 0 {
		s.sx = float64(img.Dx()) / float64(mask.Dx())
		s.sy = float64(img.Dy()) / float64(mask.Dy())
	}
	return s
}

func (s scaler) point(p region.Point) region.Point {
	x := int(math.Round(float64(p.X) * s.sx))
	y := int(math.Round(float64(p.Y) * s.sy))
	return region.Point{
		X: min(max(x, s.bounds.Min.X), s.bounds.Max.X-1),
		Y: min(max(y, s.bounds.Min.Y), s.bounds.Max.Y-1),
	}
}

func (s scaler) rect(r image.Rectangle) image.Rectangle {
	scaled := image.Rectangle{
		Min: image.Pt(int(math.Floor(float64(r.Min.X)*s.sx)), int(math.Floor(float64(r.Min.Y)*s.sy))),
		Max: image.Pt(int(math.Ceil(float64(r.Max.X)*s.sx)), int(math.Ceil(float64(r.Max.Y)*s.sy))),
	}
	return clampRect(scaled, s.bounds)
}

// clampRect clips r to bounds while keeping at least one pixel in each
// dimension. bounds must not be empty.
func clampRect(r image.Rectangle, bounds image.Rectangle) image.Rectangle {
	x0 := min(max(r.Min.X, bounds.Min.X), bounds.Max.X-1)
	y0 := min(max(r.Min.Y, bounds.Min.Y), bounds.Max.Y-1)
	x1 := min(max(r.Max.X, x0+1), bounds.Max.X)
	y1 := min(max(r.Max.Y, y0+1), bounds.Max.Y)
	return image.Rect(x0, y0, x1, y1)
}
