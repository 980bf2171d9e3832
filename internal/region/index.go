package region

import (
	"image"

	"github.com/tidwall/rtree"
)

// index is a spatial index from rectangles to positions in a region slice.
type index struct {
	tree rtree.RTreeG[int]
}

func bbox(r image.Rectangle) (min, max [2]float64) {
	return [2]float64{float64(r.Min.X), float64(r.Min.Y)},
		[2]float64{float64(r.Max.X), float64(r.Max.Y)}
}

func (ix *index) insert(r image.Rectangle, pos int) {
	min, max := bbox(r)
	ix.tree.Insert(min, max, pos)
}

func (ix *index) remove(r image.Rectangle, pos int) {
	min, max := bbox(r)
	ix.tree.Delete(min, max, pos)
}

// overlapping calls fn with the position of every indexed rectangle that
// touches r. Iteration stops when fn returns false.
func (ix *index) overlapping(r image.Rectangle, fn func(pos int) bool) {
	min, max := bbox(r)
	ix.tree.Search(min, max, func(_, _ [2]float64, pos int) bool {
		return fn(pos)
	})
}
