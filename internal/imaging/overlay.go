package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/image-regions/internal/region"
)

// typeHues gives every region type a fixed hue so overlays read the same
// across images.
var typeHues = map[region.Type]float64{
	region.TypeBox:          0,
	region.TypeColored:      30,
	region.TypeBanner:       55,
	region.TypeGarment:      90,
	region.TypeShape:        120,
	region.TypeMask:         150,
	region.TypeSection:      180,
	region.TypeText:         210,
	region.TypeIllustration: 275,
	region.TypeMixed:        320,
}

// TypeColor returns the overlay colour for t.
func TypeColor(t region.Type) color.RGBA {
	r, g, b := colorful.Hsv(typeHues[t], 0.85, 0.9).RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// Annotate returns a copy of img, anchored at (0,0), with each region's
// outline and id drawn on it. Regions with a polygon are outlined by the
// polygon, the rest by their box.
func Annotate(img image.Image, regions []region.Region) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)

	for _, r := range regions {
		c := TypeColor(r.Type)
		if len(r.Polygon) >= 3 {
			for i, p := range r.Polygon {
				q := r.Polygon[(i+1)%len(r.Polygon)]
				drawLine(out, p.X, p.Y, q.X, q.Y, c)
			}
		} else {
			rect := r.Rect()
			x1, y1 := rect.Max.X-1, rect.Max.Y-1
			drawLine(out, rect.Min.X, rect.Min.Y, x1, rect.Min.Y, c)
			drawLine(out, x1, rect.Min.Y, x1, y1, c)
			drawLine(out, x1, y1, rect.Min.X, y1, c)
			drawLine(out, rect.Min.X, y1, rect.Min.X, rect.Min.Y, c)
		}
		if r.ID != "" {
			drawLabel(out, r.X+1, r.Y+1, r.ID, c)
		}
	}
	return out
}

// SaveAnnotated writes Annotate(img, regions) to path. The format follows
// the file extension.
func SaveAnnotated(img image.Image, regions []region.Region, path string) error {
	if err := imaging.Save(Annotate(img, regions), path); err != nil {
		return fmt.Errorf("failed to save overlay: %w", err)
	}
	return nil
}

// drawLine rasterizes a segment with Bresenham's algorithm. Pixels outside
// img are skipped.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		if (image.Point{x0, y0}).In(img.Bounds()) {
			img.SetRGBA(x0, y0, c)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		if e2 := 2 * e; e2 >= dy {
			e += dy
			x0 += sx
		} else {
			e += dx
			y0 += sy
		}
	}
}

// drawLabel writes text in white on a bg-coloured plate whose top-left
// corner is (x, y).
func drawLabel(img *image.RGBA, x, y int, text string, bg color.RGBA) {
	face := basicfont.Face7x13
	plate := image.Rect(x, y, x+face.Advance*len(text)+2, y+face.Height)
	draw.Draw(img, plate.Intersect(img.Bounds()), image.NewUniform(bg), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot:  fixed.P(x+1, y+face.Ascent),
	}
	d.DrawString(text)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
