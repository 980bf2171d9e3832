package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/blur"
)

// Smooth applies a Gaussian blur and returns the result as grayscale.
// A non-positive sigma returns a copy of the input.
func Smooth(gray *image.Gray, sigma float64) *image.Gray {
	if sigma <= 0 {
		return cloneGray(gray)
	}
	return redChannel(blur.Gaussian(gray, sigma))
}

// Threshold binarizes gray: pixels strictly brighter than level become 255.
// With invert set the polarity is flipped, so dark content becomes foreground.
func Threshold(gray *image.Gray, level uint8, invert bool) *image.Gray {
	bounds := gray.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+bounds.Dx()]
		for x, v := range row {
			if (v > level) != invert {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}

// Otsu returns the global threshold that maximizes between-class variance.
// ok is false when the image has a single intensity and no threshold can
// separate two classes.
func Otsu(gray *image.Gray) (level uint8, ok bool) {
	var hist [256]int
	bounds := gray.Bounds()
	for y := 0; y < bounds.Dy(); y++ {
		for _, v := range gray.Pix[y*gray.Stride : y*gray.Stride+bounds.Dx()] {
			hist[v]++
		}
	}

	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return 0, false
	}

	var sum float64
	distinct := 0
	for i, n := range hist {
		sum += float64(i * n)
		if n > 0 {
			distinct++
		}
	}
	if distinct < 2 {
		return 0, false
	}

	var sumB, best float64
	wB := 0
	for t := 0; t < 256; t++ {
		wB += hist[t]
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(t * hist[t])
		mB := sumB / float64(wB)
		mF := (sum - sumB) / float64(wF)
		between := float64(wB) * float64(wF) * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			level = uint8(t)
		}
	}
	return level, true
}

// AdaptiveThreshold compares every pixel against the mean of its
// blockSize x blockSize neighbourhood minus c. Pixels above that local
// threshold become 255, or 0 when invert is set.
func AdaptiveThreshold(gray *image.Gray, blockSize int, c float64, invert bool) *image.Gray {
	bounds := gray.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	if blockSize < 3 {
		blockSize = 3
	}
	mean := blur.Box(gray, float64(blockSize/2))

	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			v := float64(gray.Pix[y*gray.Stride+x])
			local := float64(mean.Pix[y*mean.Stride+x*4]) - c
			if (v > local) != invert {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}

func redChannel(rgba *image.RGBA) *image.Gray {
	bounds := rgba.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			out.Pix[y*out.Stride+x] = rgba.Pix[y*rgba.Stride+x*4]
		}
	}
	return out
}

func cloneGray(gray *image.Gray) *image.Gray {
	bounds := gray.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		copy(out.Pix[y*out.Stride:], gray.Pix[y*gray.Stride:y*gray.Stride+bounds.Dx()])
	}
	return out
}
