// Package display defines the surface composed frames are presented on and
// the aspect-preserving scaling shared by its implementations.
package display

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/smazurov/vitaview/internal/frame"
)

// Quality selects the scaling kernel used to fit an image to the surface.
type Quality int

// Fast is nearest-neighbour; Smooth is bilinear.
const (
	Fast Quality = iota
	Smooth
)

func (q Quality) String() string {
	if q == Smooth {
		return "smooth"
	}
	return "fast"
}

func (q Quality) scaler() draw.Scaler {
	if q == Smooth {
		return draw.BiLinear
	}
	return draw.NearestNeighbor
}

// Sink is a presentation surface. Present scales img to the surface.
type Sink interface {
	Present(img *frame.Frame, q Quality) error
	Size() (w, h int)
	SetFullscreen(on bool)
	Fullscreen() bool
}

// Fit returns the largest rectangle with the aspect ratio of src that fits
// inside dst, centred.
func Fit(src, dst image.Rectangle) image.Rectangle {
	sw, sh := src.Dx(), src.Dy()
	dw, dh := dst.Dx(), dst.Dy()
	if sw <= 0 || sh <= 0 || dw <= 0 || dh <= 0 {
		return image.Rectangle{}
	}

	w, h := dw, sh*dw/sw
	if h > dh {
		w, h = sw*dh/sh, dh
	}
	w, h = max(w, 1), max(h, 1)
	x := dst.Min.X + (dw-w)/2
	y := dst.Min.Y + (dh-h)/2
	return image.Rect(x, y, x+w, y+h)
}

// Render letterboxes f into dst on black and returns where the image landed.
// Frames with alpha are composited over the black background.
func Render(dst *image.RGBA, f *frame.Frame, q Quality) image.Rectangle {
	draw.Draw(dst, dst.Rect, image.NewUniform(color.Black), image.Point{}, draw.Src)

	r := Fit(f.Bounds(), dst.Rect)
	if r.Empty() {
		return r
	}
	sub, ok := dst.SubImage(r).(*image.RGBA)
	if !ok {
		return image.Rectangle{}
	}

	if f.Layout.HasAlpha() {
		src := frame.ToImage(f)
		q.scaler().Scale(sub, r, src, src.Rect, draw.Over, nil)
		return r
	}
	frame.ScaleInto(sub, frame.ConvertChannels(f, frame.RGB), q.interpolation())
	return r
}

func (q Quality) interpolation() frame.Interpolation {
	if q == Smooth {
		return frame.Bilinear
	}
	return frame.Nearest
}
