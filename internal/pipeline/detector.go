// Package pipeline composes OCR grouping, the visual ensemble and region
// merging into whole-image detection calls.
package pipeline

import (
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/image-regions/internal/config"
	"github.com/ironsheep/image-regions/internal/detection"
	"github.com/ironsheep/image-regions/internal/imaging"
	"github.com/ironsheep/image-regions/internal/logger"
	"github.com/ironsheep/image-regions/internal/ocr"
	"github.com/ironsheep/image-regions/internal/region"
)

// Detector runs region detection on decoded images. It holds no per-call
// state, so one Detector may serve concurrent calls on different images.
type Detector struct {
	cfg      *config.Config
	words    ocr.WordSource
	ensemble *detection.Ensemble
}

// NewDetector returns a detector using cfg. words may be nil, in which case
// no text regions are produced.
func NewDetector(cfg *config.Config, words ocr.WordSource) *Detector {
	return &Detector{
		cfg:      cfg,
		words:    words,
		ensemble: detection.NewEnsemble(cfg.Detection),
	}
}

// DetectTextRegions groups OCR words into text regions. An OCR failure is
// logged and yields no regions.
func (d *Detector) DetectTextRegions(buf *imaging.ImageBuffer) []region.Region {
	if d.words == nil {
		return []region.Region{}
	}
	words, err := d.words.Words(buf.Image())
	if err != nil {
		logger.WithError(err).Warn("OCR failed, skipping text regions")
		return []region.Region{}
	}
	return detection.GroupWords(words, buf.Bounds(), d.cfg.Text)
}

// DetectVisualRegions runs the candidate ensemble.
func (d *Detector) DetectVisualRegions(buf *imaging.ImageBuffer) []region.Region {
	return d.ensemble.Detect(buf)
}

// DetectAllRegions merges text and visual regions into one result.
func (d *Detector) DetectAllRegions(buf *imaging.ImageBuffer) region.Result {
	text := d.DetectTextRegions(buf)
	visual := d.DetectVisualRegions(buf)
	merged := region.Merge(text, visual, d.cfg.Detection)

	logger.WithFields(logrus.Fields{
		"text":   len(text),
		"visual": len(visual),
		"merged": len(merged),
	}).Debug("detection complete")
	return region.NewResult(merged, buf.Width(), buf.Height())
}

// Detect runs the full pipeline, or text detection only when visual is
// false.
func (d *Detector) Detect(buf *imaging.ImageBuffer, visual bool) region.Result {
	if visual {
		return d.DetectAllRegions(buf)
	}
	return region.NewResult(d.DetectTextRegions(buf), buf.Width(), buf.Height())
}

// DetectAllFromBytes decodes data and runs DetectAllRegions. Undecodable
// input yields an empty result with zero image size.
func (d *Detector) DetectAllFromBytes(data []byte) region.Result {
	return d.fromBytes(data, true)
}

// DetectTextFromBytes is DetectAllFromBytes without the visual ensemble.
func (d *Detector) DetectTextFromBytes(data []byte) region.Result {
	return d.fromBytes(data, false)
}

func (d *Detector) fromBytes(data []byte, visual bool) region.Result {
	buf, err := imaging.Decode(data)
	if err != nil {
		logger.WithError(err).Warn("image decode failed")
		return region.NewResult(nil, 0, 0)
	}
	return d.Detect(buf, visual)
}

// HasOCR reports whether a word source is configured.
func (d *Detector) HasOCR() bool { return d.words != nil }
