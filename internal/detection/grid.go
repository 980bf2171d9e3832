package detection

import (
	"image"

	"github.com/ironsheep/image-regions/internal/config"
	"github.com/ironsheep/image-regions/internal/region"
)

// GridRegions returns the coarse section regions used when detection found
// too little: the page minus GridMargin, its four quadrants inset by
// GridInset, and a centred half-size window. Rectangles that would be empty
// or leave the image are skipped.
func GridRegions(bounds image.Rectangle, p config.Detection) []region.Region {
	w, h := bounds.Dx(), bounds.Dy()
	m, in := p.GridMargin, p.GridInset
	midX, midY := w/2, h/2

	rects := []image.Rectangle{
		{image.Pt(m, m), image.Pt(w-m, h-m)},
		{image.Pt(in, in), image.Pt(midX-in, midY-in)},
		{image.Pt(midX+in, in), image.Pt(w-in, midY-in)},
		{image.Pt(in, midY+in), image.Pt(midX-in, h-in)},
		{image.Pt(midX+in, midY+in), image.Pt(w-in, h-in)},
		{image.Pt(w/4, h/4), image.Pt(w/4+midX, h/4+midY)},
	}

	out := make([]region.Region, 0, len(rects))
	for _, r := range rects {
		r = r.Add(bounds.Min)
		if r.Empty() || !r.In(bounds) {
			continue
		}
		out = append(out, region.FromRect(r, region.TypeSection, p.Confidence.Grid, true))
	}
	return out
}
