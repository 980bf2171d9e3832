package imaging

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/ironsheep/image-regions/internal/region"
)

func TestAnnotate_Box(t *testing.T) {
	src := createSquareImage(60, 60, color.White, image.Rectangle{}, color.Black)
	r := region.FromRect(image.Rect(10, 40, 50, 55), region.TypeBox, 80, true)

	out := Annotate(src, []region.Region{r})
	if out.Bounds() != image.Rect(0, 0, 60, 60) {
		t.Fatalf("bounds = %v", out.Bounds())
	}

	want := TypeColor(region.TypeBox)
	for _, p := range []image.Point{{10, 40}, {49, 40}, {49, 54}, {10, 54}, {30, 54}} {
		if got := out.RGBAAt(p.X, p.Y); got != want {
			t.Errorf("outline pixel %v = %v, want %v", p, got, want)
		}
	}
	if got := out.RGBAAt(30, 48); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("interior pixel = %v, want white", got)
	}
	if got := out.RGBAAt(5, 5); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("background pixel = %v, want white", got)
	}
	if src.RGBAAt(10, 40) != (color.RGBA{255, 255, 255, 255}) {
		t.Error("Annotate must not modify its input")
	}
}

func TestAnnotate_PolygonAndLabel(t *testing.T) {
	src := createSquareImage(80, 80, color.White, image.Rectangle{}, color.Black)
	r := region.FromRect(image.Rect(20, 20, 60, 60), region.TypeMask, 90, true)
	r.ID = "mask_0"
	r.Polygon = []region.Point{{X: 40, Y: 20}, {X: 59, Y: 59}, {X: 20, Y: 59}}

	out := Annotate(src, []region.Region{r})

	c := TypeColor(region.TypeMask)
	for _, p := range r.Polygon[1:] {
		if got := out.RGBAAt(p.X, p.Y); got != c {
			t.Errorf("vertex %v = %v, want %v", p, got, c)
		}
	}
	// The right edge of the box is not on the polygon outline.
	if got := out.RGBAAt(59, 45); got == c {
		t.Error("polygon regions must not get a box outline")
	}
	// The label plate starts just inside the top-left corner.
	if got := out.RGBAAt(21, 21); got != c {
		t.Errorf("label plate pixel = %v, want %v", got, c)
	}
}

func TestTypeColor_Distinct(t *testing.T) {
	seen := make(map[color.RGBA]region.Type)
	for typ := range typeHues {
		c := TypeColor(typ)
		if prev, ok := seen[c]; ok {
			t.Errorf("%s and %s share colour %v", typ, prev, c)
		}
		seen[c] = typ
	}
}

func TestSaveAnnotated(t *testing.T) {
	src := createSquareImage(40, 30, color.White, image.Rectangle{}, color.Black)
	path := filepath.Join(t.TempDir(), "overlay.png")

	if err := SaveAnnotated(src, []region.Region{region.FromRect(image.Rect(5, 5, 20, 20), region.TypeText, 90, false)}, path); err != nil {
		t.Fatalf("SaveAnnotated failed: %v", err)
	}
	info, err := LoadImageInfo(NewImageCache(), path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if info.Width != 40 || info.Height != 30 {
		t.Errorf("saved image is %dx%d", info.Width, info.Height)
	}
	if err := SaveAnnotated(src, nil, filepath.Join(t.TempDir(), "overlay.unknown")); err == nil {
		t.Error("unsupported extension should fail")
	}
}
