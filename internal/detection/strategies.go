package detection

import (
	"image"

	"github.com/ironsheep/image-regions/internal/contour"
	"github.com/ironsheep/image-regions/internal/imaging"
	"github.com/ironsheep/image-regions/internal/region"
)

// Morphology kernel used to close gaps in every binarized strategy.
const kernel = 3

// contourFilter describes which contours a strategy turns into candidates.
type contourFilter struct {
	minArea float64
	minSize int
	typ     region.Type
	conf    float64

	// foregroundArea stores the contour area in Region.Area instead of the
	// box area.
	foregroundArea bool

	// quadEpsilon, when positive, keeps only contours whose polygon
	// approximation at quadEpsilon*perimeter has exactly four vertices.
	quadEpsilon float64
}

// detectEdgeContours finds closed outlines in Canny edge maps at several
// threshold pairs, from strict to permissive.
func detectEdgeContours(in *Input) ([]region.Region, error) {
	p := in.Params
	f := contourFilter{
		minArea: p.EdgeAreaFactor * in.MinArea,
		minSize: p.MinBoxSize,
		typ:     region.TypeShape,
		conf:    p.Confidence.Edges,
	}

	var out []region.Region
	for _, pair := range p.EdgeThresholds {
		edges := imaging.Canny(in.Smoothed, pair.Low, pair.High)
		closed := imaging.Erode(imaging.Dilate(edges, kernel, p.EdgeDilateIter), kernel, p.EdgeErodeIter)
		out = append(out, in.fromContours(contour.Find(closed, contour.External), f)...)
	}
	return out, nil
}

// detectAdaptive binarizes against the local mean so uneven lighting does
// not hide content.
func detectAdaptive(in *Input) ([]region.Region, error) {
	p := in.Params
	bin := imaging.AdaptiveThreshold(in.Gray, p.AdaptiveBlockSize, p.AdaptiveC, true)
	bin = imaging.Close(bin, kernel, 1)
	return in.fromContours(contour.Find(bin, contour.External), contourFilter{
		minArea:        in.MinArea,
		minSize:        p.MinBoxSize,
		typ:            region.TypeShape,
		conf:           p.Confidence.Adaptive,
		foregroundArea: true,
	}), nil
}

// detectOtsu binarizes with a single global threshold, dark content as
// foreground.
func detectOtsu(in *Input) ([]region.Region, error) {
	p := in.Params
	level, ok := imaging.Otsu(in.Gray)
	if !ok {
		return nil, nil
	}
	bin := imaging.Close(imaging.Threshold(in.Gray, level, true), kernel, 1)
	return in.fromContours(contour.Find(bin, contour.External), contourFilter{
		minArea:        in.MinArea,
		minSize:        p.MinBoxSize,
		typ:            region.TypeIllustration,
		conf:           p.Confidence.Otsu,
		foregroundArea: true,
	}), nil
}

// detectSaturation picks up coloured artwork on a neutral background.
func detectSaturation(in *Input) ([]region.Region, error) {
	p := in.Params
	bin := imaging.Threshold(in.Buf.Saturation(), p.SaturationThreshold, false)
	bin = imaging.Close(bin, kernel, 1)
	return in.fromContours(contour.Find(bin, contour.External), contourFilter{
		minArea: p.ColoredAreaFactor * in.MinArea,
		minSize: p.MinColoredBoxSize,
		typ:     region.TypeColored,
		conf:    p.Confidence.Colored,
	}), nil
}

// detectQuads looks for four-cornered outlines, including hole boundaries,
// at several fixed brightness levels.
func detectQuads(in *Input) ([]region.Region, error) {
	p := in.Params
	f := contourFilter{
		minArea:     p.QuadAreaFactor * in.MinArea,
		minSize:     p.MinBoxSize,
		typ:         region.TypeBox,
		conf:        p.Confidence.Quad,
		quadEpsilon: p.QuadEpsilon,
	}

	var out []region.Region
	for _, level := range p.QuadLevels {
		bin := imaging.Threshold(in.Gray, level, false)
		out = append(out, in.fromContours(contour.Find(bin, contour.Tree), f)...)
	}
	return out, nil
}

func (in *Input) fromContours(contours [][]image.Point, f contourFilter) []region.Region {
	var out []region.Region
	for _, c := range contours {
		area := contour.Area(c)
		if area < f.minArea {
			continue
		}
		if f.quadEpsilon > 0 && len(contour.Approx(c, f.quadEpsilon*contour.Perimeter(c))) != 4 {
			continue
		}
		rect := contour.BoundingRect(c)
		if !in.keepBox(rect, f.minSize) {
			continue
		}
		r := region.FromRect(rect, f.typ, f.conf, true)
		if f.foregroundArea {
			r.Area = int(area)
		}
		out = append(out, r)
	}
	return out
}

// keepBox applies the size filter and rejects boxes spanning almost the
// whole page in both dimensions.
func (in *Input) keepBox(rect image.Rectangle, minSize int) bool {
	if rect.Dx() < minSize || rect.Dy() < minSize {
		return false
	}
	full := in.Params.FullPageFraction
	return float64(rect.Dx()) < full*float64(in.Buf.Width()) ||
		float64(rect.Dy()) < full*float64(in.Buf.Height())
}
