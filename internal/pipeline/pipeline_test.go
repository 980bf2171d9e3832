package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync/atomic"
	"testing"

	"github.com/ironsheep/image-regions/internal/config"
	"github.com/ironsheep/image-regions/internal/imaging"
	"github.com/ironsheep/image-regions/internal/ocr"
	"github.com/ironsheep/image-regions/internal/region"
)

// threeBlocks is OCR output for three unrelated text blocks.
var threeBlocks = []ocr.Word{
	{Text: "Invoice", Confidence: 95, Block: 1, Box: image.Rect(40, 20, 120, 40)},
	{Text: "Ship", Confidence: 88, Block: 2, Box: image.Rect(40, 120, 90, 140)},
	{Text: "to", Confidence: 90, Block: 2, Box: image.Rect(95, 120, 115, 140)},
	{Text: "Total", Confidence: 91, Block: 3, Box: image.Rect(250, 240, 320, 260)},
}

func staticWords(words []ocr.Word) ocr.WordSource {
	return ocr.WordSourceFunc(func(image.Image) ([]ocr.Word, error) { return words, nil })
}

func whitePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestDetectTextFromBytes(t *testing.T) {
	d := NewDetector(config.Default(), staticWords(threeBlocks))

	res := d.DetectTextFromBytes(whitePNG(t, 400, 300))
	if res.Count != 3 || res.TextCount != 3 || res.VisualCount != 0 {
		t.Fatalf("counts = %d/%d/%d, want 3/3/0", res.Count, res.TextCount, res.VisualCount)
	}
	if res.ImageSize != (region.ImageSize{Width: 400, Height: 300}) {
		t.Errorf("ImageSize = %+v", res.ImageSize)
	}
	want := []string{"Invoice", "Ship to", "Total"}
	for i, r := range res.Regions {
		if r.Text != want[i] {
			t.Errorf("region %d text = %q, want %q", i, r.Text, want[i])
		}
	}
}

func TestDetectAllRegions(t *testing.T) {
	d := NewDetector(config.Default(), staticWords(threeBlocks))
	buf, err := imaging.Decode(whitePNG(t, 400, 300))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	res := d.DetectAllRegions(buf)
	if res.TextCount != 3 {
		t.Errorf("TextCount = %d, want 3", res.TextCount)
	}
	if res.Count != len(res.Regions) || res.Count != res.TextCount+res.VisualCount {
		t.Errorf("inconsistent counts: %+v", res)
	}

	seen := make(map[string]bool)
	for i, r := range res.Regions {
		if want := fmt.Sprintf("region_%d", i); r.ID != want {
			t.Errorf("region %d id = %s, want %s", i, r.ID, want)
		}
		if seen[r.ID] {
			t.Errorf("duplicate id %s", r.ID)
		}
		seen[r.ID] = true
		if !r.Rect().In(buf.Bounds()) {
			t.Errorf("region %s %v escapes the image", r.ID, r.Rect())
		}
	}
}

func TestDetect_OCRFailureKeepsVisual(t *testing.T) {
	failing := ocr.WordSourceFunc(func(image.Image) ([]ocr.Word, error) {
		return nil, errors.New("tesseract missing")
	})
	d := NewDetector(config.Default(), failing)
	buf, err := imaging.Decode(whitePNG(t, 200, 100))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if text := d.DetectTextRegions(buf); len(text) != 0 {
		t.Errorf("got %d text regions from failing OCR", len(text))
	}
	res := d.DetectAllRegions(buf)
	if res.TextCount != 0 || res.VisualCount == 0 {
		t.Errorf("counts text=%d visual=%d, want 0 and >0", res.TextCount, res.VisualCount)
	}
}

func TestDetector_NoOCR(t *testing.T) {
	d := NewDetector(config.Default(), nil)
	if d.HasOCR() {
		t.Error("HasOCR = true with no word source")
	}
	res := d.DetectTextFromBytes(whitePNG(t, 50, 50))
	if res.Count != 0 || res.ImageSize.Width != 50 {
		t.Errorf("result = %+v", res)
	}
}

func TestDetectFromBytes_Undecodable(t *testing.T) {
	d := NewDetector(config.Default(), staticWords(threeBlocks))

	for name, fn := range map[string]func([]byte) region.Result{
		"all":  d.DetectAllFromBytes,
		"text": d.DetectTextFromBytes,
	} {
		t.Run(name, func(t *testing.T) {
			res := fn([]byte("not an image"))
			if res.Count != 0 || res.Regions == nil {
				t.Errorf("want an empty, non-nil region list; got %+v", res)
			}
			if res.ImageSize != (region.ImageSize{}) {
				t.Errorf("ImageSize = %+v, want zero", res.ImageSize)
			}
		})
	}
}

func TestDetectBatch(t *testing.T) {
	d := NewDetector(config.Default(), nil)
	data := whitePNG(t, 120, 80)

	var inFlight, peak atomic.Int32
	load := func() (*imaging.ImageBuffer, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		return imaging.Decode(data)
	}

	var pages []Page
	for i := 0; i < 6; i++ {
		pages = append(pages, Page{Source: "doc.pdf", Index: i, Load: load})
	}
	pages[3].Load = func() (*imaging.ImageBuffer, error) { return nil, errors.New("render failed") }

	results, err := d.DetectBatch(context.Background(), pages, 2)
	if err != nil {
		t.Fatalf("DetectBatch failed: %v", err)
	}
	if len(results) != 6 {
		t.Fatalf("got %d results, want 6", len(results))
	}
	for i, r := range results {
		if r.Page != i || r.Source != "doc.pdf" {
			t.Errorf("result %d is page %d of %q", i, r.Page, r.Source)
		}
		if i == 3 {
			if r.Error == "" || r.Count != 0 {
				t.Errorf("failed page: %+v", r)
			}
			continue
		}
		if r.Error != "" || r.ImageSize.Width != 120 {
			t.Errorf("page %d: error %q size %+v", i, r.Error, r.ImageSize)
		}
	}
	if p := peak.Load(); p > 2 {
		t.Errorf("%d pages in flight, limit is 2", p)
	}
}

func TestDetectBatch_Cancelled(t *testing.T) {
	d := NewDetector(config.Default(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pages := []Page{{Source: "a.png", Load: func() (*imaging.ImageBuffer, error) {
		t.Error("cancelled batch must not load pages")
		return nil, nil
	}}}
	if _, err := d.DetectBatch(ctx, pages, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

type fakeSource struct{ n int }

func (f fakeSource) Name() string   { return "fake" }
func (f fakeSource) PageCount() int { return f.n }
func (f fakeSource) Close() error   { return nil }
func (f fakeSource) Page(i int) (*imaging.ImageBuffer, error) {
	return imaging.FromImage(image.NewRGBA(image.Rect(0, 0, 10+i, 10))), nil
}

func TestPages(t *testing.T) {
	pages := Pages(fakeSource{n: 3})
	if len(pages) != 3 {
		t.Fatalf("got %d pages, want 3", len(pages))
	}
	for i, p := range pages {
		buf, err := p.Load()
		if err != nil {
			t.Fatalf("page %d: %v", i, err)
		}
		if p.Index != i || p.Source != "fake" || buf.Width() != 10+i {
			t.Errorf("page %d: index %d source %q width %d", i, p.Index, p.Source, buf.Width())
		}
	}
}
