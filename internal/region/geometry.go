package region

import (
	"errors"
	"fmt"
	"image"
)

var (
	// ErrNonPositiveDimension means a width or height was zero or negative.
	ErrNonPositiveDimension = errors.New("dimension must be positive")
	// ErrOutOfBounds means a rectangle does not lie inside the image.
	ErrOutOfBounds = errors.New("rectangle outside image bounds")
)

// ValidationError describes malformed caller geometry. It unwraps to
// ErrNonPositiveDimension or ErrOutOfBounds.
type ValidationError struct {
	Field string
	Value int
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s=%d: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Validate checks that (x, y, width, height) is a non-empty rectangle lying
// entirely inside bounds. Non-positive dimensions are reported before
// out-of-bounds coordinates.
func Validate(x, y, width, height int, bounds image.Rectangle) error {
	if width <= 0 {
		return &ValidationError{Field: "width", Value: width, Err: ErrNonPositiveDimension}
	}
	if height <= 0 {
		return &ValidationError{Field: "height", Value: height, Err: ErrNonPositiveDimension}
	}
	if x < bounds.Min.X || x >= bounds.Max.X {
		return &ValidationError{Field: "x", Value: x, Err: ErrOutOfBounds}
	}
	if y < bounds.Min.Y || y >= bounds.Max.Y {
		return &ValidationError{Field: "y", Value: y, Err: ErrOutOfBounds}
	}
	if x+width > bounds.Max.X {
		return &ValidationError{Field: "width", Value: width, Err: ErrOutOfBounds}
	}
	if y+height > bounds.Max.Y {
		return &ValidationError{Field: "height", Value: height, Err: ErrOutOfBounds}
	}
	return nil
}

// IoU returns intersection area over union area of two rectangles, in [0, 1].
// Empty rectangles have IoU 0 with everything.
func IoU(a, b image.Rectangle) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}
	ia := area(inter)
	union := area(a) + area(b) - ia
	if union <= 0 {
		return 0
	}
	return float64(ia) / float64(union)
}

// IntersectionArea returns the overlapping pixel count of a and b.
func IntersectionArea(a, b image.Rectangle) int {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}
	return area(inter)
}

func area(r image.Rectangle) int {
	return r.Dx() * r.Dy()
}
