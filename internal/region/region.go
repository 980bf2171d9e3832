// Package region defines the Region entity and the pure operations over
// sets of regions: overlap measurement, deduplication, classification,
// final ordering and the text/visual merge.
package region

import (
	"fmt"
	"image"
	"sort"
)

// Type is the semantic label attached to a region.
type Type string

const (
	TypeText         Type = "text"
	TypeShape        Type = "shape"
	TypeIllustration Type = "illustration"
	TypeColored      Type = "colored"
	TypeBox          Type = "box"
	TypeBanner       Type = "banner"
	TypeSection      Type = "section"
	TypeMixed        Type = "mixed"
	TypeGarment      Type = "garment"
	TypeMask         Type = "mask"
)

// Point is a polygon vertex in image pixel coordinates.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Region is an axis-aligned area of interest in image pixel space.
//
// X and Y are the top-left corner; Width and Height are at least 1 for every
// region leaving this package. Area is normally Width*Height but detectors
// that estimate foreground from thresholding may carry the true pixel area.
type Region struct {
	ID         string  `json:"id"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Area       int     `json:"area"`
	Confidence float64 `json:"confidence"`
	Type       Type    `json:"type"`
	IsVisual   bool    `json:"is_visual"`
	Polygon    []Point `json:"polygon,omitempty"`
	Text       string  `json:"text,omitempty"`
}

// FromRect builds a region covering r with Area set to its pixel count.
func FromRect(r image.Rectangle, typ Type, confidence float64, visual bool) Region {
	return Region{
		X:          r.Min.X,
		Y:          r.Min.Y,
		Width:      r.Dx(),
		Height:     r.Dy(),
		Area:       r.Dx() * r.Dy(),
		Confidence: confidence,
		Type:       typ,
		IsVisual:   visual,
	}
}

// Rect returns the region as a half-open image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// BoxArea is Width*Height regardless of what Area carries.
func (r Region) BoxArea() int {
	return r.Width * r.Height
}

// SetRect moves the region to rect and recomputes Area from it.
func (r *Region) SetRect(rect image.Rectangle) {
	r.X, r.Y = rect.Min.X, rect.Min.Y
	r.Width, r.Height = rect.Dx(), rect.Dy()
	r.Area = r.Width * r.Height
}

// ImageSize is the width and height of the analyzed image.
type ImageSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Result is the outcome of a full detection run.
type Result struct {
	Regions     []Region  `json:"regions"`
	Count       int       `json:"count"`
	TextCount   int       `json:"text_count"`
	VisualCount int       `json:"visual_count"`
	ImageSize   ImageSize `json:"image_size"`
}

// NewResult fills in the counts for regions.
func NewResult(regions []Region, width, height int) Result {
	if regions == nil {
		regions = []Region{}
	}
	res := Result{
		Regions:   regions,
		Count:     len(regions),
		ImageSize: ImageSize{Width: width, Height: height},
	}
	for _, r := range regions {
		if r.Type == TypeText {
			res.TextCount++
		}
		if r.IsVisual {
			res.VisualCount++
		}
	}
	return res
}

// AssignIDs renumbers regions in their current order as prefix_0, prefix_1, ...
func AssignIDs(regions []Region, prefix string) {
	for i := range regions {
		regions[i].ID = fmt.Sprintf("%s_%d", prefix, i)
	}
}

// SortReadingOrder orders regions by top edge, then left edge.
func SortReadingOrder(regions []Region) {
	sort.SliceStable(regions, func(i, j int) bool {
		if regions[i].Y != regions[j].Y {
			return regions[i].Y < regions[j].Y
		}
		return regions[i].X < regions[j].X
	})
}
