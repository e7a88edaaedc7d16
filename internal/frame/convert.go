package frame

import (
	"image"
	"image/draw"
)

// ConvertChannels returns f in the target layout. Dropping alpha discards
// it; adding alpha sets it to 255. A frame already in layout is cloned.
func ConvertChannels(f *Frame, layout Layout) *Frame {
	if f.Layout == layout {
		return f.Clone()
	}

	out := New(f.Width, f.Height, layout)
	sc, dc := f.Channels(), out.Channels()
	srcSwap := f.Layout == BGR || f.Layout == BGRA
	dstSwap := layout == BGR || layout == BGRA
	swap := srcSwap != dstSwap

	for y := range f.Height {
		src, dst := f.Row(y), out.Row(y)
		for x, si, di := 0, 0, 0; x < f.Width; x, si, di = x+1, si+sc, di+dc {
			if swap {
				dst[di], dst[di+1], dst[di+2] = src[si+2], src[si+1], src[si]
			} else {
				dst[di], dst[di+1], dst[di+2] = src[si], src[si+1], src[si+2]
			}
			if dc == 4 {
				if sc == 4 {
					dst[di+3] = src[si+3]
				} else {
					dst[di+3] = 0xff
				}
			}
		}
	}
	return out
}

// AddAlpha converts a 3-channel frame to its 4-channel layout with opaque
// alpha. 4-channel frames are returned unchanged.
func AddAlpha(f *Frame) *Frame {
	switch f.Layout {
	case RGB:
		return ConvertChannels(f, RGBA)
	case BGR:
		return ConvertChannels(f, BGRA)
	default:
		return f
	}
}

// FromImage copies img into an RGBA frame, or an RGB frame when every pixel
// is opaque and the source carries no alpha. Straight (non-premultiplied)
// alpha is kept so overlay transparency survives the round trip.
func FromImage(img image.Image) *Frame {
	b := img.Bounds()
	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Rect.Min != (image.Point{}) {
		nrgba = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(nrgba, nrgba.Rect, img, b.Min, draw.Src)
	}

	if opaqueModel(img) {
		return ConvertChannels(&Frame{Width: b.Dx(), Height: b.Dy(), Layout: RGBA, Stride: nrgba.Stride, Pix: nrgba.Pix}, RGB)
	}
	return (&Frame{Width: b.Dx(), Height: b.Dy(), Layout: RGBA, Stride: nrgba.Stride, Pix: nrgba.Pix}).Clone()
}

// opaqueModel reports whether every pixel of img is fully opaque. PNGs of
// color type 2 decode to *image.RGBA and always report true.
func opaqueModel(img image.Image) bool {
	o, ok := img.(interface{ Opaque() bool })
	return ok && o.Opaque()
}

// ToImage exposes an RGBA frame as *image.NRGBA and any other layout as a
// converted copy. Pixels are shared when no conversion is needed.
func ToImage(f *Frame) *image.NRGBA {
	if f.Layout != RGBA {
		f = ConvertChannels(f, RGBA)
	}
	return &image.NRGBA{Pix: f.Pix, Stride: f.Stride, Rect: f.Bounds()}
}
