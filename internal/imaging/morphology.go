package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/effect"
)

// Dilate grows foreground (non-zero) pixels of a binary image with a square
// kernel of side size, repeated iterations times.
func Dilate(bin *image.Gray, size, iterations int) *image.Gray {
	return rankFilter(bin, size, iterations, effect.Dilate)
}

// Erode shrinks foreground pixels with a square kernel. The image edge is
// extended outward, so shapes touching the border keep their border-side
// extent.
func Erode(bin *image.Gray, size, iterations int) *image.Gray {
	return rankFilter(bin, size, iterations, effect.Erode)
}

// Close fills small gaps: dilation followed by erosion.
func Close(bin *image.Gray, size, iterations int) *image.Gray {
	return Erode(Dilate(bin, size, iterations), size, iterations)
}

// Open removes small specks: erosion followed by dilation.
func Open(bin *image.Gray, size, iterations int) *image.Gray {
	return Dilate(Erode(bin, size, iterations), size, iterations)
}

// rankFilter applies a bild max or min filter of radius size/2, which
// covers a size x size window for odd sizes.
func rankFilter(bin *image.Gray, size, iterations int, filter func(image.Image, float64) *image.RGBA) *image.Gray {
	out := cloneGray(bin)
	radius := size / 2
	if radius < 1 {
		return out
	}
	for i := 0; i < iterations; i++ {
		out = redChannel(filter(out, float64(radius)))
	}
	return out
}

// CountNonZero returns the number of foreground pixels.
func CountNonZero(bin *image.Gray) int {
	bounds := bin.Bounds()
	n := 0
	for y := 0; y < bounds.Dy(); y++ {
		for _, v := range bin.Pix[y*bin.Stride : y*bin.Stride+bounds.Dx()] {
			if v != 0 {
				n++
			}
		}
	}
	return n
}

// ForegroundBounds returns the tight rectangle around all foreground pixels.
// ok is false when there is no foreground.
func ForegroundBounds(bin *image.Gray) (rect image.Rectangle, ok bool) {
	bounds := bin.Bounds()
	minX, minY := bounds.Dx(), bounds.Dy()
	maxX, maxY := -1, -1
	for y := 0; y < bounds.Dy(); y++ {
		for x, v := range bin.Pix[y*bin.Stride : y*bin.Stride+bounds.Dx()] {
			if v == 0 {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			maxY = y
		}
	}
	if maxX < 0 {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}
