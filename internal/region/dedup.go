package region

// Deduplicator accumulates regions and collapses near-duplicates.
//
// A new region duplicates an accepted one when their IoU exceeds the
// threshold passed to Add. Of the accepted regions it duplicates, only the
// earliest accepted is considered. The new region replaces it when its
// confidence is higher, or when confidences are equal and its area is
// strictly larger; otherwise the accepted region is kept unchanged.
//
// The zero value is ready to use.
type Deduplicator struct {
	regions []Region
	idx     index
}

// Add offers r to the set using the given IoU threshold.
func (d *Deduplicator) Add(r Region, threshold float64) {
	rect := r.Rect()
	match := -1
	d.idx.overlapping(rect, func(pos int) bool {
		if (match < 0 || pos < match) && IoU(rect, d.regions[pos].Rect()) > threshold {
			match = pos
		}
		return true
	})

	if match < 0 {
		d.idx.insert(rect, len(d.regions))
		d.regions = append(d.regions, r)
		return
	}

	cur := d.regions[match]
	if r.Confidence > cur.Confidence || (r.Confidence == cur.Confidence && r.Area > cur.Area) {
		d.idx.remove(cur.Rect(), match)
		d.idx.insert(rect, match)
		d.regions[match] = r
	}
}

// AddAll offers every region in order with the same threshold.
func (d *Deduplicator) AddAll(regions []Region, threshold float64) {
	for _, r := range regions {
		d.Add(r, threshold)
	}
}

// Len returns the number of accepted regions.
func (d *Deduplicator) Len() int {
	return len(d.regions)
}

// Regions returns a copy of the accepted regions in acceptance order.
func (d *Deduplicator) Regions() []Region {
	out := make([]Region, len(d.regions))
	copy(out, d.regions)
	return out
}

// Dedup runs a fresh Deduplicator over regions.
func Dedup(regions []Region, threshold float64) []Region {
	var d Deduplicator
	d.AddAll(regions, threshold)
	return d.Regions()
}
