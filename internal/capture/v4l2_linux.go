//go:build linux && (amd64 || arm64)

package capture

import (
	"errors"
	"fmt"
	"time"

	"github.com/smazurov/vitaview/internal/frame"
	"github.com/smazurov/vitaview/pkg/linuxav/v4l2"
)

// PathResolver maps a camera index to its device node.
type PathResolver interface {
	CameraPath(index int) (string, error)
}

// V4L2Opener opens cameras through the kernel's V4L2 streaming API.
type V4L2Opener struct {
	Resolver     PathResolver
	FrameTimeout time.Duration
	Buffers      int
}

// Open implements Opener.
func (o *V4L2Opener) Open(index int, res Resolution) (Device, error) {
	path, err := o.Resolver.CameraPath(index)
	if err != nil {
		return nil, err
	}

	formats := make([]uint32, len(SupportedFormats))
	for i, f := range SupportedFormats {
		formats[i] = uint32(f)
	}
	stream, err := v4l2.OpenStream(path, v4l2.StreamOptions{
		Width:        uint32(res.Width),
		Height:       uint32(res.Height),
		PixelFormats: formats,
		Buffers:      o.Buffers,
	})
	if err != nil {
		return nil, err
	}

	d := &v4l2Device{stream: stream, timeout: o.FrameTimeout}
	d.adopt(stream.Format())
	return d, nil
}

type v4l2Device struct {
	stream  *v4l2.Stream
	timeout time.Duration
	format  v4l2.PixFormat
	buf     []byte
}

func (d *v4l2Device) adopt(f v4l2.PixFormat) {
	d.format = f
	if need := int(f.SizeImage); cap(d.buf) < need {
		d.buf = make([]byte, need)
	}
	d.buf = d.buf[:cap(d.buf)]
}

func (d *v4l2Device) Resolution() Resolution {
	return Resolution{Width: int(d.format.Width), Height: int(d.format.Height)}
}

func (d *v4l2Device) SetSize(w, h int) (Resolution, error) {
	f, err := d.stream.SetSize(uint32(w), uint32(h))
	d.adopt(f)
	if errors.Is(err, v4l2.ErrStreamLost) {
		return d.Resolution(), fmt.Errorf("%w: %w", ErrDeviceLost, err)
	}
	return d.Resolution(), err
}

func (d *v4l2Device) ReadFrame() (*frame.Frame, error) {
	n, err := d.stream.ReadFrame(d.buf, d.timeout)
	if err != nil {
		return nil, err
	}
	format := FourCC(d.format.PixelFormat)
	f, err := Decode(format, int(d.format.Width), int(d.format.Height), int(d.format.BytesPerLine), d.buf[:n])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.stream.Path(), err)
	}
	if format == FormatBGR24 || format == FormatRGB24 {
		// Wrapped formats alias d.buf, which the next read overwrites.
		f = f.Clone()
	}
	return f, nil
}

func (d *v4l2Device) Close() error {
	return d.stream.Close()
}
