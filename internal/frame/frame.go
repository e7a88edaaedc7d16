// Package frame holds the 8-bit interleaved image buffer that moves through
// the capture, compositor and display stages.
package frame

import (
	"errors"
	"fmt"
	"image"
)

// Layout names the channel order of a Frame.
type Layout int

// Supported channel layouts.
const (
	RGB Layout = iota
	BGR
	RGBA
	BGRA
)

func (l Layout) String() string {
	switch l {
	case RGB:
		return "RGB"
	case BGR:
		return "BGR"
	case RGBA:
		return "RGBA"
	case BGRA:
		return "BGRA"
	default:
		return fmt.Sprintf("Layout(%d)", int(l))
	}
}

// Channels returns 3 or 4.
func (l Layout) Channels() int {
	if l == RGBA || l == BGRA {
		return 4
	}
	return 3
}

// HasAlpha reports whether the layout carries an alpha channel.
func (l Layout) HasAlpha() bool {
	return l.Channels() == 4
}

// ErrBadGeometry is returned for non-positive sizes or short buffers.
var ErrBadGeometry = errors.New("frame: bad geometry")

// Frame is a row-major image; row y starts at Pix[y*Stride].
type Frame struct {
	Width  int
	Height int
	Layout Layout
	Stride int
	Pix    []byte
}

// New allocates a zeroed frame with a tight stride.
func New(w, h int, layout Layout) *Frame {
	stride := w * layout.Channels()
	return &Frame{Width: w, Height: h, Layout: layout, Stride: stride, Pix: make([]byte, stride*h)}
}

// Wrap builds a frame over pix without copying.
func Wrap(w, h int, layout Layout, stride int, pix []byte) (*Frame, error) {
	if w <= 0 || h <= 0 || stride < w*layout.Channels() || len(pix) < stride*(h-1)+w*layout.Channels() {
		return nil, fmt.Errorf("%w: %dx%d %s stride %d len %d", ErrBadGeometry, w, h, layout, stride, len(pix))
	}
	return &Frame{Width: w, Height: h, Layout: layout, Stride: stride, Pix: pix}, nil
}

// Channels returns the number of interleaved channels.
func (f *Frame) Channels() int {
	return f.Layout.Channels()
}

// Bounds returns the frame rectangle anchored at the origin.
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}

// Row returns the bytes of row y, without padding.
func (f *Frame) Row(y int) []byte {
	off := y * f.Stride
	return f.Pix[off : off+f.Width*f.Channels()]
}

// At returns the channel values of pixel (x, y) in the frame's own order.
func (f *Frame) At(x, y int) []byte {
	c := f.Channels()
	off := y*f.Stride + x*c
	return f.Pix[off : off+c]
}

// Clone returns a deep copy with a tight stride.
func (f *Frame) Clone() *Frame {
	out := New(f.Width, f.Height, f.Layout)
	for y := range f.Height {
		copy(out.Row(y), f.Row(y))
	}
	return out
}
