package ocr

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"testing"

	"github.com/otiai10/gosseract/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/image-regions/internal/config"
)

// drawText draws text on an image using basicfont
func drawText(img *image.RGBA, x, y int, text string, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

// createImageWithText renders text with basicfont and scales it up so
// Tesseract has enough pixels per glyph.
func createImageWithText(text string, scale int) *image.RGBA {
	width := len(text)*7 + 40
	height := 40

	small := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(small, small.Bounds(), image.White, image.Point{}, draw.Src)
	drawText(small, 20, 25, text, color.Black)

	img := image.NewRGBA(image.Rect(0, 0, width*scale, height*scale))
	for y := 0; y < height*scale; y++ {
		for x := 0; x < width*scale; x++ {
			img.Set(x, y, small.At(x/scale, y/scale))
		}
	}
	return img
}

func TestNewEngine(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.OCR
		wantLang string
	}{
		{"empty falls back to english", config.OCR{}, "eng"},
		{"explicit language", config.OCR{Language: "deu", TessdataPrefix: "/data"}, "deu"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(tt.cfg)
			if e.Language != tt.wantLang {
				t.Errorf("Language = %q, want %q", e.Language, tt.wantLang)
			}
			if e.TessdataPrefix != tt.cfg.TessdataPrefix {
				t.Errorf("TessdataPrefix = %q, want %q", e.TessdataPrefix, tt.cfg.TessdataPrefix)
			}
		})
	}
}

func TestFromBoxes(t *testing.T) {
	boxes := []gosseract.BoundingBox{
		{Box: image.Rect(10, 20, 50, 35), Word: "Hello", Confidence: 91.5, BlockNum: 1, WordNum: 1},
		{Box: image.Rect(55, 20, 90, 35), Word: "world", Confidence: 88, BlockNum: 1, WordNum: 2},
		{Box: image.Rect(10, 80, 40, 95), Word: "", Confidence: -1, BlockNum: 2},
	}

	words := fromBoxes(boxes)
	if len(words) != 3 {
		t.Fatalf("got %d words, want 3", len(words))
	}
	if words[0].Text != "Hello" || words[0].Confidence != 91.5 || words[0].Block != 1 {
		t.Errorf("word 0 = %+v", words[0])
	}
	if words[1].Box != image.Rect(55, 20, 90, 35) {
		t.Errorf("word 1 box = %v", words[1].Box)
	}
	if words[2].Block != 2 {
		t.Errorf("word 2 block = %d, want 2", words[2].Block)
	}

	if got := fromBoxes(nil); got == nil || len(got) != 0 {
		t.Errorf("fromBoxes(nil) = %v, want empty non-nil slice", got)
	}
}

func TestWordSourceFunc(t *testing.T) {
	want := errors.New("boom")
	var src WordSource = WordSourceFunc(func(image.Image) ([]Word, error) {
		return nil, want
	})
	if _, err := src.Words(image.NewGray(image.Rect(0, 0, 1, 1))); !errors.Is(err, want) {
		t.Errorf("error = %v, want %v", err, want)
	}
}

func TestEngine_Words(t *testing.T) {
	img := createImageWithText("HELLO WORLD", 4)

	words, err := NewEngine(config.OCR{}).Words(img)
	if err != nil {
		t.Skipf("Tesseract not available: %v", err)
	}

	var found bool
	for _, w := range words {
		if strings.Contains(strings.ToUpper(w.Text), "HELLO") {
			found = true
			if !w.Box.In(img.Bounds()) {
				t.Errorf("word box %v outside image %v", w.Box, img.Bounds())
			}
		}
	}
	if !found {
		t.Logf("HELLO not recognized; words: %+v", words)
	}
}
