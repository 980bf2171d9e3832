package detection

import (
	"image"

	"github.com/ironsheep/image-regions/internal/config"
	"github.com/ironsheep/image-regions/internal/imaging"
	"github.com/ironsheep/image-regions/internal/region"
)

// Refine tightens rect to the foreground content inside it.
//
// Refine never fails: whenever the content cannot be located reliably the
// original rectangle is returned unchanged.
//
// # Algorithm
//
//  1. Clamp rect to the image; ROIs under MinROI on either side are left alone
//  2. Blur the ROI, run Canny and dilate once
//  3. With too few edge pixels (< max(MinEdgePixels, MinEdgeFraction of the
//     ROI)), fall back to an inverted Otsu threshold followed by one opening
//  4. Take the bounding box of the foreground and pad it by
//     max(PadMin, PadFraction of the ROI's shorter side), clamped to the image
//  5. Keep the original when the result is narrower or shorter than
//     MinKeepFraction of it, which happens when refinement latched onto a speck
func Refine(gray *image.Gray, rect image.Rectangle, p config.Refine) (refined image.Rectangle) {
	defer func() {
		if r := recover(); r != nil {
			refined = rect
		}
	}()

	bounds := gray.Bounds()
	roi := rect.Intersect(bounds)
	if roi.Dx() < p.MinROI || roi.Dy() < p.MinROI {
		return rect
	}

	sub := imaging.CropGray(gray, roi)
	minPixels := max(p.MinEdgePixels, int(p.MinEdgeFraction*float64(roi.Dx()*roi.Dy())))

	fg := imaging.Dilate(imaging.Canny(imaging.Smooth(sub, p.BlurSigma), p.CannyLow, p.CannyHigh), kernel, 1)
	if imaging.CountNonZero(fg) < minPixels {
		level, ok := imaging.Otsu(sub)
		if !ok {
			return rect
		}
		fg = imaging.Open(imaging.Threshold(sub, level, true), kernel, 1)
		if imaging.CountNonZero(fg) < minPixels {
			return rect
		}
	}

	content, ok := imaging.ForegroundBounds(fg)
	if !ok {
		return rect
	}
	pad := max(p.PadMin, int(p.PadFraction*float64(min(roi.Dx(), roi.Dy()))))
	out := content.Add(roi.Min).Inset(-pad).Intersect(bounds)

	if float64(out.Dx()) < p.MinKeepFraction*float64(rect.Dx()) ||
		float64(out.Dy()) < p.MinKeepFraction*float64(rect.Dy()) {
		return rect
	}
	return out
}

// RefineBox validates (x, y, width, height) against the image and refines
// it. A *region.ValidationError reports non-positive dimensions or a box
// that does not lie inside the image.
func RefineBox(gray *image.Gray, x, y, width, height int, p config.Refine) (image.Rectangle, error) {
	if err := region.Validate(x, y, width, height, gray.Bounds()); err != nil {
		return image.Rectangle{}, err
	}
	return Refine(gray, image.Rect(x, y, x+width, y+height), p), nil
}
