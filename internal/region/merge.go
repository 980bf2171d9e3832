package region

import "github.com/ironsheep/image-regions/internal/config"

// Merge combines text and visual regions into one list.
//
// Text regions are taken as-is. Each visual region is then dropped when its
// IoU with any already accepted region exceeds MergeDuplicateIoU, relabelled
// mixed when it covers more than MixedOverlap of some text region's area, and
// kept otherwise. The result is in reading order with ids region_0, region_1, ...
func Merge(text, visual []Region, d config.Detection) []Region {
	merged := make([]Region, 0, len(text)+len(visual))
	var idx index
	accept := func(r Region) {
		idx.insert(r.Rect(), len(merged))
		merged = append(merged, r)
	}

	for _, r := range text {
		accept(r)
	}

	for _, v := range visual {
		rect := v.Rect()
		duplicate, mixed := false, false
		idx.overlapping(rect, func(pos int) bool {
			acc := merged[pos]
			accRect := acc.Rect()
			if IoU(rect, accRect) > d.MergeDuplicateIoU {
				duplicate = true
				return false
			}
			if acc.Type == TypeText && acc.BoxArea() > 0 {
				covered := float64(IntersectionArea(rect, accRect)) / float64(acc.BoxArea())
				if covered > d.MixedOverlap {
					mixed = true
				}
			}
			return true
		})
		if duplicate {
			continue
		}
		if mixed {
			v.Type = TypeMixed
		}
		accept(v)
	}

	SortReadingOrder(merged)
	AssignIDs(merged, "region")
	return merged
}
