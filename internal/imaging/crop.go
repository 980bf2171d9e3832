package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-regions/internal/region"
)

// CropResult contains the cropped image data
type CropResult struct {
	X           int    `json:"x"`
	Y           int    `json:"y"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// CropROI extracts the region of interest (x, y, width, height) as a new
// buffer. The ROI must lie inside the image; a *region.ValidationError
// distinguishes non-positive dimensions from out-of-bounds coordinates.
func CropROI(buf *ImageBuffer, x, y, width, height int) (*ImageBuffer, error) {
	if err := region.Validate(x, y, width, height, buf.Bounds()); err != nil {
		return nil, err
	}
	cropped := imaging.Crop(buf.Image(), image.Rect(x, y, x+width, y+height))
	return &ImageBuffer{img: cropped}, nil
}

// CropGray returns the rect portion of a grayscale image as a new image
// anchored at (0,0). rect is clipped to the image first.
func CropGray(gray *image.Gray, rect image.Rectangle) *image.Gray {
	rect = rect.Intersect(gray.Bounds())
	out := image.NewGray(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	for y := 0; y < rect.Dy(); y++ {
		src := gray.PixOffset(rect.Min.X, rect.Min.Y+y)
		copy(out.Pix[y*out.Stride:y*out.Stride+rect.Dx()], gray.Pix[src:src+rect.Dx()])
	}
	return out
}

// Crop validates the ROI, crops it and encodes the result as base64 PNG.
func Crop(buf *ImageBuffer, x, y, width, height int) (*CropResult, error) {
	roi, err := CropROI(buf, x, y, width, height)
	if err != nil {
		return nil, err
	}
	encoded, err := EncodePNGBase64(roi.Image())
	if err != nil {
		return nil, err
	}
	return &CropResult{
		X:           x,
		Y:           y,
		Width:       roi.Width(),
		Height:      roi.Height(),
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}

// EncodePNGBase64 encodes img as PNG and returns it base64 encoded.
func EncodePNGBase64(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
