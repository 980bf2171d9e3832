package detection

import (
	"fmt"
	"image"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/image-regions/internal/config"
	"github.com/ironsheep/image-regions/internal/imaging"
	"github.com/ironsheep/image-regions/internal/logger"
	"github.com/ironsheep/image-regions/internal/region"
)

// Input is the shared, read-only view of one image handed to every strategy.
type Input struct {
	// Buf is the decoded source image.
	Buf *imaging.ImageBuffer

	// Gray is the grayscale image threshold strategies binarize.
	Gray *image.Gray

	// Smoothed is Gray after a light Gaussian blur. Only edge detection
	// uses it; binarizing a blurred image widens dark shapes.
	Smoothed *image.Gray

	// Params holds every detection constant.
	Params config.Detection

	// MinArea is the resolution-scaled minimum contour area.
	MinArea float64
}

// Strategy is one independent candidate detector. Run must not modify Input.
type Strategy struct {
	Name string
	Run  func(in *Input) ([]region.Region, error)
}

// DefaultStrategies returns the detectors in the order their candidates are
// offered for deduplication.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{Name: "edges", Run: detectEdgeContours},
		{Name: "adaptive", Run: detectAdaptive},
		{Name: "otsu", Run: detectOtsu},
		{Name: "saturation", Run: detectSaturation},
		{Name: "quads", Run: detectQuads},
	}
}

// Ensemble runs a fixed list of strategies over an image and reduces their
// pooled output to a deduplicated, classified region list.
type Ensemble struct {
	params     config.Detection
	strategies []Strategy
}

// NewEnsemble returns an ensemble over the given strategies. With none given
// it uses DefaultStrategies.
func NewEnsemble(params config.Detection, strategies ...Strategy) *Ensemble {
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	return &Ensemble{params: params, strategies: strategies}
}

// Candidates runs every strategy and refines each rectangle it nominates.
//
// A strategy that returns an error or panics contributes nothing; the failure
// is logged and the remaining strategies still run.
func (e *Ensemble) Candidates(buf *imaging.ImageBuffer) []region.Region {
	gray := buf.Gray()
	in := &Input{
		Buf:      buf,
		Gray:     gray,
		Smoothed: imaging.Smooth(gray, e.params.SmoothSigma),
		Params:   e.params,
		MinArea:  e.params.AdaptiveMinArea(buf.Width(), buf.Height()),
	}

	var all []region.Region
	for _, s := range e.strategies {
		found, err := runStrategy(s, in)
		if err != nil {
			logger.WithError(err).WithField("strategy", s.Name).Warn("detection strategy failed")
			continue
		}
		logger.WithFields(logrus.Fields{
			"strategy":   s.Name,
			"candidates": len(found),
		}).Debug("strategy finished")

		for _, c := range found {
			area, boxed := c.Area, c.Area == c.BoxArea()
			c.SetRect(Refine(gray, c.Rect(), e.params.Refine))
			if !boxed {
				c.Area = area
			}
			all = append(all, c)
		}
	}
	return all
}

// Detect returns the final visual regions for buf, ids visual_0, visual_1, ...
//
// # Algorithm
//
//  1. Candidates: run every strategy, refine every rectangle
//  2. Deduplicate at DedupIoU in strategy order
//  3. Grid fallback: when fewer than GridFallbackBelow regions survive, add
//     coarse section regions deduplicated at the looser GridIoU
//  4. Classify by aspect ratio, drop sections once enough real regions
//     exist, sort by area and keep the top MaxRegions
func (e *Ensemble) Detect(buf *imaging.ImageBuffer) []region.Region {
	var dedup region.Deduplicator
	dedup.AddAll(e.Candidates(buf), e.params.DedupIoU)
	logger.WithField("regions", dedup.Len()).Debug("candidates deduplicated")

	if dedup.Len() < e.params.GridFallbackBelow {
		dedup.AddAll(GridRegions(buf.Bounds(), e.params), e.params.GridIoU)
		logger.WithField("regions", dedup.Len()).Debug("grid fallback applied")
	}

	return region.Finalize(dedup.Regions(), e.params, "visual")
}

func runStrategy(s Strategy, in *Input) (found []region.Region, err error) {
	defer func() {
		if r := recover(); r != nil {
			found, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return s.Run(in)
}
