package frame

import (
	"image"

	"golang.org/x/image/draw"
)

// Interpolation selects the resampling kernel.
type Interpolation int

// Kernels used by Resize.
const (
	Nearest Interpolation = iota
	Bilinear
)

func (i Interpolation) scaler() draw.Scaler {
	if i == Nearest {
		return draw.NearestNeighbor
	}
	return draw.BiLinear
}

// Resize scales f to exactly w×h and keeps its layout. The byte order of
// the color channels passes through the scaler untouched, so BGR stays BGR.
func Resize(f *Frame, w, h int, interp Interpolation) (*Frame, error) {
	if w <= 0 || h <= 0 {
		return nil, ErrBadGeometry
	}
	if w == f.Width && h == f.Height {
		return f.Clone(), nil
	}

	wide := fourChannel(f.Layout)
	rect := image.Rect(0, 0, w, h)
	var pix []byte
	var stride int

	if f.Layout.HasAlpha() {
		dst := image.NewNRGBA(rect)
		src := &image.NRGBA{Pix: f.Pix, Stride: f.Stride, Rect: f.Bounds()}
		interp.scaler().Scale(dst, rect, src, src.Rect, draw.Src, nil)
		pix, stride = dst.Pix, dst.Stride
	} else {
		// Opaque frames go through *image.RGBA, which the scalers special-case.
		dst := image.NewRGBA(rect)
		src := opaqueRGBA(f)
		interp.scaler().Scale(dst, rect, src, src.Rect, draw.Src, nil)
		pix, stride = dst.Pix, dst.Stride
	}

	out := &Frame{Width: w, Height: h, Layout: wide, Stride: stride, Pix: pix}
	if f.Layout.HasAlpha() {
		return out, nil
	}
	return ConvertChannels(out, f.Layout), nil
}

// ScaleInto resamples an opaque view of f into the whole of dst.
func ScaleInto(dst *image.RGBA, f *Frame, interp Interpolation) {
	src := opaqueRGBA(f)
	interp.scaler().Scale(dst, dst.Rect, src, src.Rect, draw.Src, nil)
}

// opaqueRGBA returns f as *image.RGBA with alpha forced to 255. For BGR
// layouts the red and blue bytes stay where they are.
func opaqueRGBA(f *Frame) *image.RGBA {
	wide := ConvertChannels(f, fourChannel(f.Layout))
	for i := 3; i < len(wide.Pix); i += 4 {
		wide.Pix[i] = 0xff
	}
	return &image.RGBA{Pix: wide.Pix, Stride: wide.Stride, Rect: wide.Bounds()}
}

func fourChannel(l Layout) Layout {
	switch l {
	case RGB:
		return RGBA
	case BGR:
		return BGRA
	default:
		return l
	}
}
