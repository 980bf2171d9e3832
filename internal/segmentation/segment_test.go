package segmentation

import (
	"context"
	"errors"
	"image"
	"math"
	"testing"

	"github.com/ironsheep/image-regions/internal/config"
	"github.com/ironsheep/image-regions/internal/region"
)

type fakeRefine struct {
	masks []ScoredMask
	err   error
	calls int
}

func (f *fakeRefine) Predict(context.Context, image.Image, Prompt) ([]ScoredMask, error) {
	f.calls++
	return f.masks, f.err
}

type fakeInstances struct {
	instances []Instance
	err       error
}

func (f *fakeInstances) Detect(context.Context, image.Image) ([]Instance, error) {
	return f.instances, f.err
}

func refineHandle(m RefineModel) *Handle[RefineModel] {
	return NewHandle(func() (RefineModel, error) { return m, nil })
}

func instanceHandle(m InstanceModel) *Handle[InstanceModel] {
	return NewHandle(func() (InstanceModel, error) { return m, nil })
}

var centerPoint = Prompt{Point: &region.Point{X: 50, Y: 50}}

func TestRefineMask_PicksBestScore(t *testing.T) {
	model := &fakeRefine{masks: []ScoredMask{
		{Mask: squareMask(100, 100, 0, 0, 10, 10), Score: 0.5},
		{Mask: squareMask(100, 100, 40, 40, 60, 60), Score: 0.75},
		{Mask: squareMask(100, 100, 70, 70, 90, 90), Score: 0.25},
	}}
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))

	res, err := RefineMask(context.Background(), refineHandle(model), img, centerPoint, config.Default().Segmentation)
	if err != nil {
		t.Fatalf("RefineMask failed: %v", err)
	}
	if res.Count != 1 {
		t.Fatalf("Count = %d, want 1", res.Count)
	}
	r := res.Regions[0]
	if r.ID != "mask_0" || r.Type != region.TypeMask || r.Confidence != 75 {
		t.Errorf("region = %+v", r)
	}
	if r.Rect() != image.Rect(40, 40, 60, 60) {
		t.Errorf("rect = %v, want (40,40)-(60,60)", r.Rect())
	}
	if len(r.Polygon) < 3 {
		t.Errorf("polygon has %d points", len(r.Polygon))
	}
	if res.ImageSize != (region.ImageSize{Width: 100, Height: 100}) {
		t.Errorf("ImageSize = %+v", res.ImageSize)
	}
}

func TestRefineMask_FirstWinsTies(t *testing.T) {
	model := &fakeRefine{masks: []ScoredMask{
		{Mask: squareMask(100, 100, 10, 10, 20, 20), Score: 0.5},
		{Mask: squareMask(100, 100, 60, 60, 80, 80), Score: 0.5},
	}}
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))

	res, err := RefineMask(context.Background(), refineHandle(model), img, centerPoint, config.Default().Segmentation)
	if err != nil {
		t.Fatalf("RefineMask failed: %v", err)
	}
	if got := res.Regions[0].Rect(); got != image.Rect(10, 10, 20, 20) {
		t.Errorf("rect = %v, want the first mask", got)
	}
}

func TestRefineMask_Errors(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	cfg := config.Default().Segmentation

	t.Run("empty prompt", func(t *testing.T) {
		model := &fakeRefine{}
		_, err := RefineMask(context.Background(), refineHandle(model), img, Prompt{}, cfg)
		if !errors.Is(err, ErrEmptyPrompt) {
			t.Errorf("error = %v, want ErrEmptyPrompt", err)
		}
		if model.calls != 0 {
			t.Error("model must not run on an invalid prompt")
		}
	})

	t.Run("load failure", func(t *testing.T) {
		errLoad := errors.New("no weights")
		h := NewHandle(func() (RefineModel, error) { return nil, errLoad })
		if _, err := RefineMask(context.Background(), h, img, centerPoint, cfg); !errors.Is(err, errLoad) {
			t.Errorf("error = %v, want %v", err, errLoad)
		}
	})

	t.Run("inference failure", func(t *testing.T) {
		errInfer := errors.New("boom")
		if _, err := RefineMask(context.Background(), refineHandle(&fakeRefine{err: errInfer}), img, centerPoint, cfg); !errors.Is(err, errInfer) {
			t.Errorf("error = %v, want %v", err, errInfer)
		}
	})
}

func TestRefineMask_NoUsableMask(t *testing.T) {
	model := &fakeRefine{masks: []ScoredMask{{Mask: NewMask(100, 100), Score: 0.9}}}
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))

	res, err := RefineMask(context.Background(), refineHandle(model), img, centerPoint, config.Default().Segmentation)
	if err != nil {
		t.Fatalf("RefineMask failed: %v", err)
	}
	if res.Count != 0 || res.Regions == nil {
		t.Errorf("want an empty, non-nil region list; got %+v", res)
	}
}

func probSquare(w, h int, r image.Rectangle) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			g.Pix[y*g.Stride+x] = 255
		}
	}
	return g
}

func TestSegmentInstances(t *testing.T) {
	model := &fakeInstances{instances: []Instance{
		{Box: image.Rect(-5, -5, 40, 40), Confidence: 0.5, Prob: probSquare(100, 100, image.Rect(0, 0, 40, 40))},
		{Box: image.Rect(50, 50, 120, 90), Confidence: 0.9},
		{Box: image.Rect(0, 0, 10, 10), Confidence: 0.1},
		{Box: image.Rect(200, 200, 210, 210), Confidence: 0.75},
	}}
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))

	res, err := SegmentInstances(context.Background(), instanceHandle(model), img, InstanceOptions{}, config.Default().Segmentation)
	if err != nil {
		t.Fatalf("SegmentInstances failed: %v", err)
	}
	if res.Count != 3 {
		t.Fatalf("Count = %d, want 3", res.Count)
	}

	want := []struct {
		id   string
		rect image.Rectangle
		conf float64
	}{
		{"garment_1", image.Rect(50, 50, 100, 90), 90},
		{"garment_3", image.Rect(99, 99, 100, 100), 75},
		{"garment_0", image.Rect(0, 0, 40, 40), 50},
	}
	for i, w := range want {
		r := res.Regions[i]
		if r.ID != w.id || r.Rect() != w.rect || math.Abs(r.Confidence-w.conf) > 1e-9 {
			t.Errorf("region %d = %s %v %.2f, want %s %v %.2f", i, r.ID, r.Rect(), r.Confidence, w.id, w.rect, w.conf)
		}
		if r.Type != region.TypeGarment {
			t.Errorf("region %d type = %s", i, r.Type)
		}
	}
	if len(res.Regions[2].Polygon) < 3 {
		t.Error("instance with a mask must carry a polygon")
	}
	if res.Regions[0].Polygon != nil {
		t.Error("instance without a mask must not carry a polygon")
	}
}

func TestSegmentInstances_Cap(t *testing.T) {
	var instances []Instance
	for i := 0; i < 10; i++ {
		instances = append(instances, Instance{Box: image.Rect(i, i, i+5, i+5), Confidence: 0.5})
	}
	img := image.NewRGBA(image.Rect(0, 0, 50, 50))

	res, err := SegmentInstances(context.Background(), instanceHandle(&fakeInstances{instances: instances}), img,
		InstanceOptions{MaxMasks: 3}, config.Default().Segmentation)
	if err != nil {
		t.Fatalf("SegmentInstances failed: %v", err)
	}
	if res.Count != 3 {
		t.Fatalf("Count = %d, want 3", res.Count)
	}
	// Equal confidences keep detection order.
	for i, id := range []string{"garment_0", "garment_1", "garment_2"} {
		if res.Regions[i].ID != id {
			t.Errorf("region %d id = %s, want %s", i, res.Regions[i].ID, id)
		}
	}
}

func TestSegmentInstances_MinConfidence(t *testing.T) {
	model := &fakeInstances{instances: []Instance{
		{Box: image.Rect(0, 0, 5, 5), Confidence: 0.6},
		{Box: image.Rect(0, 0, 5, 5), Confidence: 0.8},
	}}
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))

	res, err := SegmentInstances(context.Background(), instanceHandle(model), img,
		InstanceOptions{MinConfidence: 0.7}, config.Default().Segmentation)
	if err != nil {
		t.Fatalf("SegmentInstances failed: %v", err)
	}
	if res.Count != 1 || res.Regions[0].ID != "garment_1" {
		t.Errorf("got %+v, want only garment_1", res.Regions)
	}
}
