package ocr

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/image-regions/internal/config"
)

// Word is a single recognized word with its location in the image.
type Word struct {
	// Text is the recognized word.
	Text string `json:"text"`

	// Confidence is the OCR confidence on a 0-100 scale.
	Confidence float64 `json:"confidence"`

	// Block identifies the layout block (paragraph group) the word belongs to.
	// Words of the same block share the value.
	Block int `json:"block"`

	// Box is the word bounding box in image coordinates.
	Box image.Rectangle `json:"box"`
}

// WordSource produces word boxes for an image.
type WordSource interface {
	Words(img image.Image) ([]Word, error)
}

// WordSourceFunc adapts a plain function to WordSource.
type WordSourceFunc func(img image.Image) ([]Word, error)

// Words calls f(img).
func (f WordSourceFunc) Words(img image.Image) ([]Word, error) {
	return f(img)
}

// Engine is a WordSource backed by Tesseract. A new client is created per
// call, so an Engine may be shared between goroutines.
type Engine struct {
	Language       string
	TessdataPrefix string
}

// NewEngine returns an Engine configured from cfg. An empty language falls
// back to English.
func NewEngine(cfg config.OCR) *Engine {
	lang := cfg.Language
	if lang == "" {
		lang = "eng"
	}
	return &Engine{Language: lang, TessdataPrefix: cfg.TessdataPrefix}
}

// Words runs Tesseract on img and returns every word with its block number.
func (e *Engine) Words(img image.Image) ([]Word, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image for OCR: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if e.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(e.TessdataPrefix); err != nil {
			return nil, fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}
	if err := client.SetLanguage(strings.Split(e.Language, "+")...); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxesVerbose()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}
	return fromBoxes(boxes), nil
}

// Version returns the linked Tesseract version.
func Version() string {
	return gosseract.Version()
}

func fromBoxes(boxes []gosseract.BoundingBox) []Word {
	words := make([]Word, 0, len(boxes))
	for _, b := range boxes {
		words = append(words, Word{
			Text:       b.Word,
			Confidence: b.Confidence,
			Block:      b.BlockNum,
			Box:        b.Box,
		})
	}
	return words
}
