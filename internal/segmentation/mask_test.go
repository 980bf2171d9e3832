package segmentation

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/ironsheep/image-regions/internal/imaging"
)

func encodeMaskPNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeGray(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 4, 1))
	for i, v := range []uint8{0, 1, 128, 255} {
		gray.Pix[i] = v
	}

	colored := image.NewRGBA(image.Rect(0, 0, 3, 1))
	colored.Set(0, 0, color.RGBA{255, 0, 0, 255})
	colored.Set(1, 0, color.RGBA{0, 200, 40, 255})
	colored.Set(2, 0, color.RGBA{10, 20, 30, 255})

	tests := []struct {
		name string
		img  image.Image
	}{
		{"gray probabilities", gray},
		{"rgb mask", colored},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeGray(encodeMaskPNG(t, tt.img))
			if err != nil {
				t.Fatalf("DecodeGray: %v", err)
			}
			// Masks share the luminance conversion of detection images.
			want := imaging.FromImage(tt.img).Gray()
			if got.Bounds() != want.Bounds() {
				t.Fatalf("bounds = %v, want %v", got.Bounds(), want.Bounds())
			}
			for i := range want.Pix {
				if got.Pix[i] != want.Pix[i] {
					t.Errorf("pixel %d = %d, want %d", i, got.Pix[i], want.Pix[i])
				}
			}
		})
	}

	t.Run("gray values survive", func(t *testing.T) {
		got, err := DecodeGray(encodeMaskPNG(t, gray))
		if err != nil {
			t.Fatalf("DecodeGray: %v", err)
		}
		for i, v := range gray.Pix {
			if got.Pix[i] != v {
				t.Errorf("pixel %d = %d, want %d", i, got.Pix[i], v)
			}
		}
	})
}

func TestDecodeMask(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 10, 10))
	img.SetGray(3, 4, color.Gray{Y: 1})
	img.SetGray(6, 7, color.Gray{Y: 255})

	m, err := DecodeMask(encodeMaskPNG(t, img))
	if err != nil {
		t.Fatalf("DecodeMask: %v", err)
	}
	box, ok := BoundingBox(m)
	if !ok || box != image.Rect(3, 4, 6, 7) {
		t.Errorf("BoundingBox = %v %v, want (3,4)-(6,7)", box, ok)
	}

	if _, err := DecodeMask([]byte("not a png")); err == nil {
		t.Error("DecodeMask should fail on garbage")
	}
}
