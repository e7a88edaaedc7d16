package capture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"

	"github.com/smazurov/vitaview/internal/frame"
)

// FourCC is a V4L2 pixel format code.
type FourCC uint32

func fourcc(a, b, c, d byte) FourCC {
	return FourCC(uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24)
}

// Pixel formats the decoder understands, in order of preference.
var (
	FormatYUYV  = fourcc('Y', 'U', 'Y', 'V')
	FormatBGR24 = fourcc('B', 'G', 'R', '3')
	FormatRGB24 = fourcc('R', 'G', 'B', '3')
	FormatMJPEG = fourcc('M', 'J', 'P', 'G')
)

// SupportedFormats lists the formats offered to the driver.
var SupportedFormats = []FourCC{FormatYUYV, FormatBGR24, FormatRGB24, FormatMJPEG}

func (f FourCC) String() string {
	return string([]byte{byte(f), byte(f >> 8), byte(f >> 16), byte(f >> 24)})
}

// ErrCorruptFrame is returned for buffers that cannot be decoded.
var ErrCorruptFrame = errors.New("corrupt frame")

// Decode converts one raw buffer to a frame. YUYV and MJPEG become RGB;
// packed RGB and BGR are wrapped as they are, sharing data.
func Decode(format FourCC, w, h, bytesPerLine int, data []byte) (*frame.Frame, error) {
	switch format {
	case FormatBGR24, FormatRGB24:
		layout := frame.RGB
		if format == FormatBGR24 {
			layout = frame.BGR
		}
		if bytesPerLine == 0 {
			bytesPerLine = w * 3
		}
		f, err := frame.Wrap(w, h, layout, bytesPerLine, data)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptFrame, err)
		}
		return f, nil

	case FormatYUYV:
		return decodeYUYV(w, h, bytesPerLine, data)

	case FormatMJPEG:
		return decodeMJPEG(w, h, data)

	default:
		return nil, fmt.Errorf("unsupported pixel format %s", format)
	}
}

// decodeYUYV expands 4:2:2 packed Y0 U Y1 V into RGB.
func decodeYUYV(w, h, bytesPerLine int, data []byte) (*frame.Frame, error) {
	if bytesPerLine == 0 {
		bytesPerLine = w * 2
	}
	if w%2 != 0 || bytesPerLine < w*2 || len(data) < bytesPerLine*(h-1)+w*2 {
		return nil, fmt.Errorf("%w: yuyv %dx%d from %d bytes", ErrCorruptFrame, w, h, len(data))
	}

	out := frame.New(w, h, frame.RGB)
	for y := range h {
		src := data[y*bytesPerLine : y*bytesPerLine+w*2]
		dst := out.Row(y)
		for i, j := 0, 0; i < len(src); i, j = i+4, j+6 {
			u, v := src[i+1], src[i+3]
			dst[j], dst[j+1], dst[j+2] = color.YCbCrToRGB(src[i], u, v)
			dst[j+3], dst[j+4], dst[j+5] = color.YCbCrToRGB(src[i+2], u, v)
		}
	}
	return out, nil
}

func decodeMJPEG(w, h int, data []byte) (*frame.Frame, error) {
	img, err := jpeg.Decode(bytes.NewReader(withHuffmanTables(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptFrame, err)
	}
	b := img.Bounds()
	if b.Dx() != w || b.Dy() != h {
		// The driver reports the negotiated size; trust the bitstream.
		w, h = b.Dx(), b.Dy()
	}

	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(rgba, rgba.Rect, img, b.Min, draw.Src)
	return frame.ConvertChannels(&frame.Frame{Width: w, Height: h, Layout: frame.RGBA, Stride: rgba.Stride, Pix: rgba.Pix}, frame.RGB), nil
}
