//go:build linux && (amd64 || arm64)

package v4l2

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// withDevice opens devicePath for the duration of fn.
func withDevice(devicePath string, fn func(fd int) error) error {
	fd, err := open(devicePath)
	if err != nil {
		return fmt.Errorf("failed to open device: %w", err)
	}
	defer closeFd(fd)
	return fn(fd)
}

// GetFormats returns all supported pixel formats for a device.
func GetFormats(devicePath string) ([]FormatInfo, error) {
	var formats []FormatInfo
	err := withDevice(devicePath, func(fd int) error {
		for i := uint32(0); ; i++ {
			desc := v4l2Fmtdesc{index: i, typ: bufTypeVideoCapture}
			if err := ioctl(fd, vidiocEnumFmt, unsafe.Pointer(&desc)); err != nil {
				if errors.Is(err, unix.EINVAL) {
					return nil
				}
				return fmt.Errorf("failed to enumerate format %d: %w", i, err)
			}
			formats = append(formats, FormatInfo{
				PixelFormat: desc.pixelformat,
				FormatName:  cstr(desc.description[:]),
				Emulated:    desc.flags&fmtFlagEmulated != 0,
			})
		}
	})
	return formats, err
}

// GetResolutions returns all supported resolutions for a device and pixel format.
// Stepwise and continuous ranges are reduced to common sizes inside the range.
func GetResolutions(devicePath string, pixelFormat uint32) ([]Resolution, error) {
	var resolutions []Resolution
	err := withDevice(devicePath, func(fd int) error {
		for i := uint32(0); ; i++ {
			size := v4l2Frmsizeenum{index: i, pixelFormat: pixelFormat}
			if err := ioctl(fd, vidiocEnumFramesizes, unsafe.Pointer(&size)); err != nil {
				switch {
				case errors.Is(err, unix.EINVAL):
					return nil
				case errors.Is(err, unix.ENOTTY):
					return nil
				}
				return fmt.Errorf("failed to enumerate frame size %d: %w", i, err)
			}

			switch size.typ {
			case frmsizeTypeDiscrete:
				resolutions = append(resolutions, Resolution{Width: size.discrete.width, Height: size.discrete.height})
			case frmsizeTypeContinuous, frmsizeTypeStepwise:
				resolutions = append(resolutions, stepwiseResolutions(size.stepwise())...)
				return nil
			}
		}
	})
	return resolutions, err
}

// GetFramerates returns all supported framerates for a device, format, and resolution.
func GetFramerates(devicePath string, pixelFormat uint32, width, height uint32) ([]Framerate, error) {
	var framerates []Framerate
	err := withDevice(devicePath, func(fd int) error {
		for i := uint32(0); ; i++ {
			ival := v4l2Frmivalenum{index: i, pixelFormat: pixelFormat, width: width, height: height}
			if err := ioctl(fd, vidiocEnumFrameintervals, unsafe.Pointer(&ival)); err != nil {
				if errors.Is(err, unix.EINVAL) {
					return nil
				}
				return fmt.Errorf("failed to enumerate frame interval %d: %w", i, err)
			}

			switch ival.typ {
			case frmivalTypeDiscrete:
				framerates = append(framerates, Framerate{
					Numerator:   ival.discrete.numerator,
					Denominator: ival.discrete.denominator,
				})
			case frmivalTypeContinuous, frmivalTypeStepwise:
				framerates = append(framerates, commonFramerates...)
				return nil
			}
		}
	})
	return framerates, err
}

// commonSizes are offered for stepwise devices. The handheld sizes come
// first because they are what the pass-through viewer asks for.
var commonSizes = []Resolution{
	{480, 272},
	{896, 504},
	{960, 544},
	{640, 480},
	{1280, 720},
	{1920, 1080},
}

var commonFramerates = []Framerate{
	{1, 60},
	{1, 30},
	{1, 25},
	{1, 15},
}

func stepwiseResolutions(s *v4l2FrmsizeStepwise) []Resolution {
	var out []Resolution
	for _, r := range commonSizes {
		if r.Width >= s.minWidth && r.Width <= s.maxWidth &&
			r.Height >= s.minHeight && r.Height <= s.maxHeight {
			out = append(out, r)
		}
	}
	return out
}

// FormatFourCC converts a 4-byte pixel format to a human-readable string.
func FormatFourCC(format uint32) string {
	return string([]byte{
		byte(format),
		byte(format >> 8),
		byte(format >> 16),
		byte(format >> 24),
	})
}
