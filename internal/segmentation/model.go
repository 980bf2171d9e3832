package segmentation

import (
	"context"
	"errors"
	"image"
	"sync"

	"github.com/ironsheep/image-regions/internal/region"
)

// ErrEmptyPrompt is returned when a refine prompt carries neither a point
// nor a box.
var ErrEmptyPrompt = errors.New("provide point or bbox")

// Box is an axis-aligned prompt box in image pixels.
type Box struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect returns b as an image.Rectangle.
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// Prompt tells a refine model where to look. At least one of Point and Box
// must be set.
type Prompt struct {
	Point *region.Point `json:"point,omitempty"`
	Box   *Box          `json:"bbox,omitempty"`
}

// Validate checks that the prompt is non-empty and lies inside bounds.
func (p Prompt) Validate(bounds image.Rectangle) error {
	if p.Point == nil && p.Box == nil {
		return ErrEmptyPrompt
	}
	if p.Point != nil {
		if err := region.Validate(p.Point.X, p.Point.Y, 1, 1, bounds); err != nil {
			return err
		}
	}
	if p.Box != nil {
		if err := region.Validate(p.Box.X, p.Box.Y, p.Box.Width, p.Box.Height, bounds); err != nil {
			return err
		}
	}
	return nil
}

// ScoredMask is one candidate returned by a refine model. Score is in [0,1].
type ScoredMask struct {
	Mask  *Mask
	Score float64
}

// Instance is one object found by an instance model. Box is in image
// coordinates and may extend past the image. Prob holds per-pixel
// probabilities scaled to 0-255 and may be nil.
type Instance struct {
	Box        image.Rectangle
	Confidence float64
	Prob       *image.Gray
}

// RefineModel produces candidate masks for a prompt.
type RefineModel interface {
	Predict(ctx context.Context, img image.Image, prompt Prompt) ([]ScoredMask, error)
}

// InstanceModel finds every object instance in an image.
type InstanceModel interface {
	Detect(ctx context.Context, img image.Image) ([]Instance, error)
}

// Handle owns a lazily loaded model. The loader runs at most once; every
// Get returns the same model, or the same load error.
//
// A Handle is safe for concurrent use. The model it returns must be safe for
// concurrent inference.
type Handle[M any] struct {
	load  func() (M, error)
	once  sync.Once
	model M
	err   error
}

// NewHandle returns a handle that calls load on first use.
func NewHandle[M any](load func() (M, error)) *Handle[M] {
	return &Handle[M]{load: load}
}

// Get loads the model on first call and returns it.
func (h *Handle[M]) Get() (M, error) {
	h.once.Do(func() {
		h.model, h.err = h.load()
	})
	return h.model, h.err
}
