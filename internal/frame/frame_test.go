package frame

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"
)

func solid(w, h int, layout Layout, px ...byte) *Frame {
	f := New(w, h, layout)
	for i := 0; i < len(f.Pix); i += len(px) {
		copy(f.Pix[i:], px)
	}
	return f
}

func TestConvertChannels(t *testing.T) {
	tests := []struct {
		name string
		src  *Frame
		to   Layout
		want []byte
	}{
		{"bgr to rgb", solid(1, 1, BGR, 10, 20, 30), RGB, []byte{30, 20, 10}},
		{"rgb to rgb", solid(1, 1, RGB, 10, 20, 30), RGB, []byte{10, 20, 30}},
		{"rgb to rgba", solid(1, 1, RGB, 10, 20, 30), RGBA, []byte{10, 20, 30, 255}},
		{"bgra to rgb drops alpha", solid(1, 1, BGRA, 10, 20, 30, 40), RGB, []byte{30, 20, 10}},
		{"rgba to bgra keeps alpha", solid(1, 1, RGBA, 10, 20, 30, 40), BGRA, []byte{30, 20, 10, 40}},
		{"bgr to bgra", solid(1, 1, BGR, 10, 20, 30), BGRA, []byte{10, 20, 30, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConvertChannels(tt.src, tt.to)
			if got.Layout != tt.to {
				t.Errorf("layout = %v, want %v", got.Layout, tt.to)
			}
			if !bytes.Equal(got.At(0, 0), tt.want) {
				t.Errorf("pixel = %v, want %v", got.At(0, 0), tt.want)
			}
		})
	}
}

func TestConvertChannelsPaddedStride(t *testing.T) {
	// 2x2 BGR with 2 bytes of row padding.
	pix := []byte{
		1, 2, 3, 4, 5, 6, 0xee, 0xee,
		7, 8, 9, 10, 11, 12, 0xee, 0xee,
	}
	f, err := Wrap(2, 2, BGR, 8, pix)
	if err != nil {
		t.Fatal(err)
	}
	got := ConvertChannels(f, RGB)
	want := []byte{3, 2, 1, 6, 5, 4, 9, 8, 7, 12, 11, 10}
	if !bytes.Equal(got.Pix, want) {
		t.Errorf("Pix = %v, want %v", got.Pix, want)
	}
	if got.Stride != 6 {
		t.Errorf("Stride = %d, want 6", got.Stride)
	}
}

func TestConvertDoesNotAlias(t *testing.T) {
	src := solid(2, 2, RGB, 1, 2, 3)
	out := ConvertChannels(src, RGB)
	out.Pix[0] = 99
	if src.Pix[0] != 1 {
		t.Error("converted frame shares memory with the source")
	}
}

func TestWrapRejectsBadGeometry(t *testing.T) {
	tests := []struct {
		name      string
		w, h, str int
		n         int
	}{
		{"zero width", 0, 2, 6, 12},
		{"short stride", 2, 2, 5, 12},
		{"short buffer", 2, 2, 6, 11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Wrap(tt.w, tt.h, RGB, tt.str, make([]byte, tt.n)); !errors.Is(err, ErrBadGeometry) {
				t.Errorf("err = %v, want ErrBadGeometry", err)
			}
		})
	}
}

func TestAddAlpha(t *testing.T) {
	out := AddAlpha(solid(3, 2, RGB, 1, 2, 3))
	if out.Layout != RGBA || out.Channels() != 4 {
		t.Fatalf("layout = %v", out.Layout)
	}
	for y := range out.Height {
		for x := range out.Width {
			if a := out.At(x, y)[3]; a != 255 {
				t.Fatalf("alpha at %d,%d = %d", x, y, a)
			}
		}
	}

	four := solid(1, 1, RGBA, 1, 2, 3, 4)
	if AddAlpha(four) != four {
		t.Error("4-channel frame should be returned as is")
	}
}

func TestResize(t *testing.T) {
	tests := []struct {
		name   string
		src    *Frame
		w, h   int
		interp Interpolation
	}{
		{"downscale bilinear", solid(896, 504, RGB, 40, 80, 120), 637, 360, Bilinear},
		{"upscale nearest", solid(16, 9, BGR, 40, 80, 120), 64, 36, Nearest},
		{"rgba keeps layout", solid(10, 10, RGBA, 40, 80, 120, 255), 5, 5, Bilinear},
		{"same size", solid(4, 4, RGB, 1, 2, 3), 4, 4, Bilinear},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Resize(tt.src, tt.w, tt.h, tt.interp)
			if err != nil {
				t.Fatal(err)
			}
			if out.Width != tt.w || out.Height != tt.h {
				t.Fatalf("size = %dx%d, want %dx%d", out.Width, out.Height, tt.w, tt.h)
			}
			if out.Layout != tt.src.Layout {
				t.Errorf("layout = %v, want %v", out.Layout, tt.src.Layout)
			}
			// A solid image stays solid under any kernel.
			if !bytes.Equal(out.At(tt.w/2, tt.h/2), tt.src.At(0, 0)) {
				t.Errorf("center = %v, want %v", out.At(tt.w/2, tt.h/2), tt.src.At(0, 0))
			}
		})
	}

	if _, err := Resize(solid(2, 2, RGB, 0, 0, 0), 0, 5, Bilinear); !errors.Is(err, ErrBadGeometry) {
		t.Errorf("zero width err = %v", err)
	}
}

func TestFromImage(t *testing.T) {
	opaque := image.NewRGBA(image.Rect(0, 0, 2, 1))
	opaque.Set(0, 0, color.RGBA{10, 20, 30, 255})
	opaque.Set(1, 0, color.RGBA{40, 50, 60, 255})

	f := FromImage(opaque)
	if f.Layout != RGB {
		t.Fatalf("opaque image layout = %v, want RGB", f.Layout)
	}
	if !bytes.Equal(f.At(1, 0), []byte{40, 50, 60}) {
		t.Errorf("pixel = %v", f.At(1, 0))
	}

	clear := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	clear.SetNRGBA(0, 0, color.NRGBA{200, 100, 50, 0})
	g := FromImage(clear)
	if g.Layout != RGBA {
		t.Fatalf("transparent image layout = %v, want RGBA", g.Layout)
	}
	if !bytes.Equal(g.At(0, 0), []byte{200, 100, 50, 0}) {
		t.Errorf("straight alpha lost: %v", g.At(0, 0))
	}
}

func TestToImage(t *testing.T) {
	img := ToImage(solid(2, 2, BGR, 1, 2, 3))
	if got := img.NRGBAAt(1, 1); got != (color.NRGBA{3, 2, 1, 255}) {
		t.Errorf("NRGBAAt = %v", got)
	}
}
