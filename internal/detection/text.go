package detection

import (
	"image"
	"strings"

	"github.com/ironsheep/image-regions/internal/config"
	"github.com/ironsheep/image-regions/internal/ocr"
	"github.com/ironsheep/image-regions/internal/region"
)

// textBlock accumulates the words of one OCR layout block.
type textBlock struct {
	rect    image.Rectangle
	words   []string
	confSum float64
}

// GroupWords clusters OCR words into one region per layout block.
//
// Words with empty text or confidence at or below MinWordConfidence are
// ignored. Each block becomes the union of its word boxes, with the words
// joined by single spaces and the mean word confidence. Blocks narrower than
// MinWidth or shorter than MinHeight are treated as noise. Survivors are
// padded by Padding on every side, clamped to bounds, and returned in
// reading order with ids text_0, text_1, ...
func GroupWords(words []ocr.Word, bounds image.Rectangle, p config.Text) []region.Region {
	var order []int
	blocks := make(map[int]*textBlock)

	for _, w := range words {
		text := strings.TrimSpace(w.Text)
		if text == "" || w.Confidence <= p.MinWordConfidence || w.Box.Empty() {
			continue
		}
		b, ok := blocks[w.Block]
		if !ok {
			b = &textBlock{rect: w.Box}
			blocks[w.Block] = b
			order = append(order, w.Block)
		}
		b.rect = b.rect.Union(w.Box)
		b.words = append(b.words, text)
		b.confSum += w.Confidence
	}

	out := make([]region.Region, 0, len(order))
	for _, id := range order {
		b := blocks[id]
		if b.rect.Dx() < p.MinWidth || b.rect.Dy() < p.MinHeight {
			continue
		}
		rect := b.rect.Inset(-p.Padding).Intersect(bounds)
		if rect.Empty() {
			continue
		}
		r := region.FromRect(rect, region.TypeText, b.confSum/float64(len(b.words)), false)
		r.Text = strings.Join(b.words, " ")
		out = append(out, r)
	}

	region.SortReadingOrder(out)
	region.AssignIDs(out, "text")
	return out
}
