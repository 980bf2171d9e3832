package region

import (
	"sort"

	"github.com/ironsheep/image-regions/internal/config"
)

// fixedTypes are never relabelled by aspect ratio.
var fixedTypes = map[Type]bool{
	TypeBox:     true,
	TypeColored: true,
	TypeSection: true,
}

// Classify relabels regions by aspect ratio (width / height):
//   - strictly between BoxAspectMin and BoxAspectMax: box
//   - above BannerWideAbove or below BannerTallBelow: banner
//
// box, colored and section regions keep their type. Regions are modified in place.
func Classify(regions []Region, d config.Detection) {
	for i := range regions {
		r := &regions[i]
		if fixedTypes[r.Type] || r.Height <= 0 {
			continue
		}
		ratio := float64(r.Width) / float64(r.Height)
		switch {
		case ratio > d.BoxAspectMin && ratio < d.BoxAspectMax:
			r.Type = TypeBox
		case ratio > d.BannerWideAbove || ratio < d.BannerTallBelow:
			r.Type = TypeBanner
		}
	}
}

// DropSections removes section (grid fallback) regions once at least
// minOthers regions of any other type are present.
func DropSections(regions []Region, minOthers int) []Region {
	others := 0
	for _, r := range regions {
		if r.Type != TypeSection {
			others++
		}
	}
	if others < minOthers {
		return regions
	}

	kept := regions[:0:0]
	for _, r := range regions {
		if r.Type != TypeSection {
			kept = append(kept, r)
		}
	}
	return kept
}

// SortByArea orders regions by area descending, then top edge, then left edge.
func SortByArea(regions []Region) {
	sort.SliceStable(regions, func(i, j int) bool {
		a, b := regions[i], regions[j]
		if a.Area != b.Area {
			return a.Area > b.Area
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
}

// Finalize classifies, drops redundant sections, sorts by area, truncates to
// MaxRegions and assigns ids with the given prefix.
func Finalize(regions []Region, d config.Detection, prefix string) []Region {
	Classify(regions, d)
	regions = DropSections(regions, d.DropSectionsAt)
	SortByArea(regions)
	if len(regions) > d.MaxRegions {
		regions = regions[:d.MaxRegions]
	}
	AssignIDs(regions, prefix)
	return regions
}
