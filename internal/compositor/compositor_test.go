package compositor

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"io"
	"io/fs"
	"log/slog"
	"testing"

	"github.com/smazurov/vitaview/internal/frame"
	"github.com/smazurov/vitaview/internal/overlay"
)

type fakeLoader struct {
	images map[string]image.Image
	calls  map[string]int
}

func (l *fakeLoader) Load(name string) (image.Image, error) {
	if l.calls == nil {
		l.calls = make(map[string]int)
	}
	l.calls[name]++
	img, ok := l.images[name]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return img, nil
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// bezel builds a w×h asset whose pixels encode their position, with alpha
// varying so that untouched alpha can be verified.
func bezel(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: uint8(x ^ y), A: uint8(100 + (x+y)%100)})
		}
	}
	return img
}

func solidBGR(w, h int, b, g, r byte) *frame.Frame {
	f := frame.New(w, h, frame.BGR)
	for i := 0; i < len(f.Pix); i += 3 {
		f.Pix[i], f.Pix[i+1], f.Pix[i+2] = b, g, r
	}
	return f
}

func TestComposePlain896x504(t *testing.T) {
	c := New(&fakeLoader{}, quiet())

	src := frame.New(896, 504, frame.BGR)
	for i := range src.Pix {
		src.Pix[i] = byte(i * 7)
	}

	for _, mode := range []Mode{PlainMode(), UpscaledMode()} {
		t.Run(mode.String(), func(t *testing.T) {
			out, err := c.Compose(src, mode)
			if err != nil {
				t.Fatal(err)
			}
			if out.Width != 896 || out.Height != 504 || out.Channels() != 3 || out.Layout != frame.RGB {
				t.Fatalf("got %dx%dx%d %v", out.Width, out.Height, out.Channels(), out.Layout)
			}
			for _, p := range []image.Point{{0, 0}, {895, 503}, {400, 250}} {
				s, d := src.At(p.X, p.Y), out.At(p.X, p.Y)
				if d[0] != s[2] || d[1] != s[1] || d[2] != s[0] {
					t.Errorf("pixel %v: src %v out %v, want channels reversed", p, s, d)
				}
			}
		})
	}
}

func TestComposeVita2000(t *testing.T) {
	asset := bezel(1080, 480)
	loader := &fakeLoader{images: map[string]image.Image{"vita.png": asset}}
	c := New(loader, quiet())

	// Arbitrary source size, far from the 637x360 screen.
	out, err := c.Compose(solidBGR(320, 200, 10, 20, 30), OverlayMode(overlay.Vita2000))
	if err != nil {
		t.Fatal(err)
	}
	if out.Width != 1080 || out.Height != 480 || out.Layout != frame.RGBA {
		t.Fatalf("got %dx%d %v, want 1080x480 RGBA", out.Width, out.Height, out.Layout)
	}

	rect := image.Rect(221, 64, 858, 424)
	for y := range out.Height {
		for x := range out.Width {
			got := out.At(x, y)
			orig := asset.NRGBAAt(x, y)
			if got[3] != orig.A {
				t.Fatalf("alpha changed at %d,%d: %d want %d", x, y, got[3], orig.A)
			}
			if image.Pt(x, y).In(rect) {
				if got[0] != 30 || got[1] != 20 || got[2] != 10 {
					t.Fatalf("screen pixel %d,%d = %v, want 30,20,10", x, y, got[:3])
				}
				continue
			}
			if got[0] != orig.R || got[1] != orig.G || got[2] != orig.B {
				t.Fatalf("bezel pixel %d,%d changed: %v want %v", x, y, got, orig)
			}
		}
	}
}

func TestComposeRectangleExactForEveryOverlay(t *testing.T) {
	loader := &fakeLoader{images: map[string]image.Image{
		"vita.png":  bezel(1080, 480),
		"vita1.png": bezel(1080, 480),
		"psp.png":   bezel(1080, 480),
	}}
	c := New(loader, quiet())

	for _, id := range overlay.IDs() {
		t.Run(string(id), func(t *testing.T) {
			spec, _ := overlay.Get(id)
			out, err := c.Compose(solidBGR(960, 544, 1, 2, 3), OverlayMode(id))
			if err != nil {
				t.Fatal(err)
			}
			inside := func(p image.Point) bool {
				px := out.At(p.X, p.Y)
				return px[0] == 3 && px[1] == 2 && px[2] == 1
			}
			r := spec.Rect
			if !inside(r.Min) || !inside(image.Pt(r.Max.X-1, r.Max.Y-1)) {
				t.Error("rectangle corners not filled")
			}
			if inside(image.Pt(r.Max.X, r.Min.Y)) || inside(image.Pt(r.Min.X, r.Max.Y)) || inside(image.Pt(r.Min.X-1, r.Min.Y)) {
				t.Error("frame spilled outside the rectangle")
			}
		})
	}
}

func TestComposeOpaqueAssetGetsAlpha(t *testing.T) {
	rgb := image.NewRGBA(image.Rect(0, 0, 900, 450))
	for i := 3; i < len(rgb.Pix); i += 4 {
		rgb.Pix[i] = 0xff
	}
	c := New(&fakeLoader{images: map[string]image.Image{"psp.png": rgb}}, quiet())

	out, err := c.Compose(solidBGR(480, 272, 0, 0, 0), OverlayMode(overlay.PSP))
	if err != nil {
		t.Fatal(err)
	}
	if out.Layout != frame.RGBA {
		t.Fatalf("layout = %v", out.Layout)
	}
	if a := out.At(0, 0)[3]; a != 255 {
		t.Errorf("alpha = %d, want 255", a)
	}
}

func TestComposeAssetMissing(t *testing.T) {
	loader := &fakeLoader{}
	c := New(loader, quiet())

	out, err := c.Compose(solidBGR(10, 10, 0, 0, 0), OverlayMode(overlay.Vita1000))
	if !errors.Is(err, ErrAssetMissing) {
		t.Fatalf("err = %v, want ErrAssetMissing", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("loader cause lost: %v", err)
	}
	if out != nil {
		t.Error("no image expected on failure")
	}

	// Failures are not cached.
	loader.images = map[string]image.Image{"vita1.png": bezel(1000, 500)}
	if _, err := c.Compose(solidBGR(10, 10, 0, 0, 0), OverlayMode(overlay.Vita1000)); err != nil {
		t.Fatalf("second attempt: %v", err)
	}
	if n := loader.calls["vita1.png"]; n != 2 {
		t.Errorf("loader calls = %d, want 2", n)
	}

	// Successes are.
	if _, err := c.Compose(solidBGR(10, 10, 0, 0, 0), OverlayMode(overlay.Vita1000)); err != nil {
		t.Fatal(err)
	}
	if n := loader.calls["vita1.png"]; n != 2 {
		t.Errorf("loader calls = %d after cached compose, want 2", n)
	}
}

func TestComposeBadRectangle(t *testing.T) {
	c := New(&fakeLoader{images: map[string]image.Image{"vita.png": bezel(400, 300)}}, quiet())

	_, err := c.Compose(solidBGR(10, 10, 0, 0, 0), OverlayMode(overlay.Vita2000))
	if !errors.Is(err, ErrBadRectangle) {
		t.Fatalf("err = %v, want ErrBadRectangle", err)
	}
	if !errors.Is(err, ErrAssetMissing) {
		t.Error("ErrBadRectangle should also match ErrAssetMissing")
	}
}

func TestComposeUnknownOverlay(t *testing.T) {
	c := New(&fakeLoader{}, quiet())
	if _, err := c.Compose(solidBGR(1, 1, 0, 0, 0), OverlayMode("gba")); !errors.Is(err, ErrAssetMissing) {
		t.Errorf("err = %v", err)
	}
}

func TestComposeDoesNotMutateCachedAsset(t *testing.T) {
	c := New(&fakeLoader{images: map[string]image.Image{"vita.png": bezel(1080, 480)}}, quiet())

	first, _ := c.Compose(solidBGR(8, 8, 9, 9, 9), OverlayMode(overlay.Vita2000))
	second, _ := c.Compose(solidBGR(8, 8, 5, 5, 5), OverlayMode(overlay.Vita2000))
	if bytes.Equal(first.At(300, 100), second.At(300, 100)) {
		t.Error("second compose should show the new frame")
	}
	if first.At(300, 100)[0] != 9 {
		t.Error("earlier output was modified by a later compose")
	}
}

func TestModeString(t *testing.T) {
	tests := map[string]Mode{
		"plain":            PlainMode(),
		"upscaled":         UpscaledMode(),
		"overlay:vita2000": OverlayMode(overlay.Vita2000),
	}
	for want, m := range tests {
		if got := m.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}
