package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"math"
	"strings"
	"sync"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

var (
	// ErrUndecodable wraps every failure to turn bytes into pixels.
	ErrUndecodable = errors.New("undecodable image")

	// ErrEmptyImage is returned, wrapped in ErrUndecodable, when there are
	// no bytes to decode or the decoded image has no pixels.
	ErrEmptyImage = errors.New("empty image")
)

// ImageBuffer is a decoded raster image with lazily derived channels.
//
// The pixel data is normalized to *image.NRGBA with its origin at (0,0), so
// every coordinate handed out by the detection packages is a plain pixel
// offset from the top-left corner.
//
// An ImageBuffer is read-only after construction. The derived grayscale and
// saturation channels are computed at most once and are safe to request from
// several goroutines.
type ImageBuffer struct {
	img *image.NRGBA

	grayOnce sync.Once
	gray     *image.Gray

	satOnce sync.Once
	sat     *image.Gray
}

// Decode decodes PNG, JPEG, GIF, BMP or TIFF bytes. EXIF orientation is
// applied so that regions line up with what a viewer displays.
func Decode(data []byte) (*ImageBuffer, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrUndecodable, ErrEmptyImage)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUndecodable, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: %w", ErrUndecodable, ErrEmptyImage)
	}
	return FromImage(img), nil
}

// DecodeBase64 decodes a base64 payload, optionally prefixed with a data URL
// header such as "data:image/png;base64,".
func DecodeBase64(payload string) (*ImageBuffer, error) {
	data, err := DecodeBase64Payload(payload)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// DecodeBase64Payload strips an optional data URL header and returns the raw bytes.
func DecodeBase64Payload(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if strings.HasPrefix(payload, "data:") {
		if i := strings.IndexByte(payload, ','); i >= 0 {
			payload = payload[i+1:]
		}
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 image: %w", err)
	}
	return data, nil
}

// FromImage wraps an already decoded image. The pixels are copied.
func FromImage(img image.Image) *ImageBuffer {
	return &ImageBuffer{img: imaging.Clone(img)}
}

// Image returns the underlying pixels. Callers must not modify them.
func (b *ImageBuffer) Image() *image.NRGBA { return b.img }

// Width returns the image width in pixels.
func (b *ImageBuffer) Width() int { return b.img.Bounds().Dx() }

// Height returns the image height in pixels.
func (b *ImageBuffer) Height() int { return b.img.Bounds().Dy() }

// Bounds returns the image rectangle, always anchored at (0,0).
func (b *ImageBuffer) Bounds() image.Rectangle { return b.img.Bounds() }

// Gray returns the single-channel luminance image.
func (b *ImageBuffer) Gray() *image.Gray {
	b.grayOnce.Do(func() {
		b.gray = redChannel(effect.Grayscale(b.img))
	})
	return b.gray
}

// Saturation returns the HSV saturation channel scaled to 0-255.
//
// Fully transparent pixels have no defined color and map to zero.
func (b *ImageBuffer) Saturation() *image.Gray {
	b.satOnce.Do(func() {
		b.sat = saturationChannel(b.img)
	})
	return b.sat
}

func saturationChannel(img *image.NRGBA) *image.Gray {
	bounds := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			c, ok := colorful.MakeColor(img.NRGBAAt(bounds.Min.X+x, bounds.Min.Y+y))
			if !ok {
				continue
			}
			_, s, _ := c.Hsv()
			out.Pix[y*out.Stride+x] = uint8(math.Round(s * 255))
		}
	}
	return out
}
