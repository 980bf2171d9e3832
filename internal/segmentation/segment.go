package segmentation

import (
	"context"
	"fmt"
	"image"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/image-regions/internal/config"
	"github.com/ironsheep/image-regions/internal/logger"
	"github.com/ironsheep/image-regions/internal/region"
)

// Result is the mask path output.
type Result struct {
	Regions   []region.Region  `json:"regions"`
	Count     int              `json:"count"`
	ImageSize region.ImageSize `json:"image_size"`
}

// NewResult wraps regions found in an image with the given bounds.
func NewResult(regions []region.Region, bounds image.Rectangle) Result {
	if regions == nil {
		regions = []region.Region{}
	}
	return Result{
		Regions:   regions,
		Count:     len(regions),
		ImageSize: region.ImageSize{Width: bounds.Dx(), Height: bounds.Dy()},
	}
}

// RefineMask asks the model for masks around prompt and converts the
// highest scoring one (the first on ties) into a single region with the
// fine polygon preset. A prompt that yields no usable mask produces an empty
// result.
func RefineMask(ctx context.Context, h *Handle[RefineModel], img image.Image, prompt Prompt, p config.Segmentation) (Result, error) {
	bounds := img.Bounds()
	if err := prompt.Validate(bounds); err != nil {
		return Result{}, err
	}
	model, err := h.Get()
	if err != nil {
		return Result{}, fmt.Errorf("failed to load refine model: %w", err)
	}
	masks, err := model.Predict(ctx, img, prompt)
	if err != nil {
		return Result{}, fmt.Errorf("refine model failed: %w", err)
	}

	best := -1
	for i, m := range masks {
		if m.Mask == nil {
			continue
		}
		if best < 0 || m.Score > masks[best].Score {
			best = i
		}
	}
	if best < 0 {
		return NewResult(nil, bounds), nil
	}

	r, ok := FromMask(masks[best].Mask, bounds, p.Fine)
	if !ok {
		logger.WithFields(logrus.Fields{"candidates": len(masks)}).Debug("best mask is empty")
		return NewResult(nil, bounds), nil
	}
	r.ID = "mask_0"
	r.Type = region.TypeMask
	r.Confidence = masks[best].Score * 100
	return NewResult([]region.Region{r}, bounds), nil
}

// InstanceOptions limits SegmentInstances output. Zero values fall back to
// the configured defaults.
type InstanceOptions struct {
	MaxMasks      int
	MinConfidence float64
}

// SegmentInstances runs the instance model and emits one garment region per
// instance at or above the confidence floor. Regions are numbered by
// detection order, sorted by confidence descending and capped at MaxMasks.
func SegmentInstances(ctx context.Context, h *Handle[InstanceModel], img image.Image, opts InstanceOptions, p config.Segmentation) (Result, error) {
	if opts.MaxMasks <= 0 {
		opts.MaxMasks = p.MaxMasks
	}
	if opts.MinConfidence <= 0 {
		opts.MinConfidence = p.MinConfidence
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return NewResult(nil, bounds), nil
	}

	model, err := h.Get()
	if err != nil {
		return Result{}, fmt.Errorf("failed to load instance model: %w", err)
	}
	instances, err := model.Detect(ctx, img)
	if err != nil {
		return Result{}, fmt.Errorf("instance model failed: %w", err)
	}

	regions := make([]region.Region, 0, len(instances))
	for i, inst := range instances {
		if inst.Confidence < opts.MinConfidence {
			continue
		}
		r := region.FromRect(clampRect(inst.Box, bounds), region.TypeGarment, inst.Confidence*100, true)
		r.ID = fmt.Sprintf("garment_%d", i)
		if inst.Prob != nil {
			if shape, ok := FromMask(MaskFromProbabilities(inst.Prob, p.MaskCutoff), bounds, p.Coarse); ok {
				r.Polygon = shape.Polygon
			}
		}
		regions = append(regions, r)
	}

	sort.SliceStable(regions, func(i, j int) bool {
		return regions[i].Confidence > regions[j].Confidence
	})
	if len(regions) > opts.MaxMasks {
		regions = regions[:opts.MaxMasks]
	}

	logger.WithFields(logrus.Fields{
		"instances": len(instances),
		"kept":      len(regions),
	}).Debug("instance segmentation complete")
	return NewResult(regions, bounds), nil
}
