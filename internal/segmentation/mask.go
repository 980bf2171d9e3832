package segmentation

import (
	"fmt"
	"image"

	"github.com/ironsheep/image-regions/internal/imaging"
)

// Mask is a binary raster anchored at (0,0). Any non-zero pixel is
// foreground.
type Mask struct {
	gray *image.Gray
}

// NewMask returns an empty width x height mask.
func NewMask(width, height int) *Mask {
	return &Mask{gray: image.NewGray(image.Rect(0, 0, width, height))}
}

// MaskFromGray builds a mask from g, treating every non-zero pixel as
// foreground. The pixels are copied.
func MaskFromGray(g *image.Gray) *Mask {
	return MaskFromProbabilities(g, 0)
}

// MaskFromProbabilities builds a mask from a probability map stored as
// 0-255 intensities: a pixel is foreground when its value / 255 exceeds
// cutoff.
func MaskFromProbabilities(prob *image.Gray, cutoff float64) *Mask {
	b := prob.Bounds()
	m := NewMask(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if float64(prob.GrayAt(b.Min.X+x, b.Min.Y+y).Y)/255 > cutoff {
				m.gray.Pix[y*m.gray.Stride+x] = 255
			}
		}
	}
	return m
}

// DecodeGray decodes an encoded image into its luminance channel, the same
// channel detection works on for ordinary images.
func DecodeGray(data []byte) (*image.Gray, error) {
	buf, err := imaging.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode mask: %w", err)
	}
	return buf.Gray(), nil
}

// DecodeMask decodes an encoded image into a binary mask.
func DecodeMask(data []byte) (*Mask, error) {
	g, err := DecodeGray(data)
	if err != nil {
		return nil, err
	}
	return MaskFromGray(g), nil
}

// Set marks (x, y) as foreground. Points outside the mask are ignored.
func (m *Mask) Set(x, y int) {
	if (image.Point{x, y}).In(m.gray.Bounds()) {
		m.gray.Pix[y*m.gray.Stride+x] = 255
	}
}

// Bounds returns the mask rectangle.
func (m *Mask) Bounds() image.Rectangle {
	return m.gray.Bounds()
}

// Gray returns the mask as a 0/255 image. Callers must not modify it.
func (m *Mask) Gray() *image.Gray {
	return m.gray
}
