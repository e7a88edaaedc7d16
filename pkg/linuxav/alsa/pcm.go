//go:build linux && (amd64 || arm64)

package alsa

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ErrClosed is returned by operations on a closed PCM.
var ErrClosed = errors.New("alsa: pcm closed")

// HwParams is the requested stream configuration. Samples are always
// exchanged as float32; devices without FLOAT_LE support fall back to
// S16_LE with conversion in ReadFloat32/WriteFloat32.
type HwParams struct {
	Rate         int
	Channels     int
	PeriodFrames int
	// FallbackChannels is tried when the device refuses Channels. hw:
	// devices have no plug layer, and most onboard codecs are stereo only.
	FallbackChannels int
}

// PCM is an open, prepared PCM substream using interleaved read/write access.
type PCM struct {
	fd           int
	stream       int
	format       int
	channels     int
	periodFrames int
	scratch      []int16
}

// OpenPCM opens hw:card,device for the given direction and applies params.
// The open blocks (no O_NONBLOCK) so reads and writes pace the caller.
func OpenPCM(card, device, stream int, params HwParams) (*PCM, error) {
	path := pcmPath(card, device, stream)
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	p := &PCM{fd: fd, stream: stream}
	if err := p.configure(params); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("configure %s: %w", path, err)
	}
	if err := ioctl(fd, sndrvPCMIoctlPrepare, nil); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("prepare %s: %w", path, err)
	}

	if p.format == FormatS16LE {
		p.scratch = make([]int16, p.periodFrames*p.channels)
	}
	return p, nil
}

func (p *PCM) configure(params HwParams) error {
	channels := []int{params.Channels}
	if params.FallbackChannels > 0 && params.FallbackChannels != params.Channels {
		channels = append(channels, params.FallbackChannels)
	}

	var lastErr error
	for _, ch := range channels {
		for _, format := range []int{FormatFloatLE, FormatS16LE} {
			for _, withPeriod := range []bool{true, false} {
				hw := sndPCMHwParams{}
				hw.init()
				hw.setMask(sndrvPCMHwParamAccess, sndrvPCMAccessRwInterleaved)
				hw.setMask(sndrvPCMHwParamFormat, uint32(format))
				hw.setInterval(sndrvPCMHwParamChannels, uint32(ch))
				hw.setInterval(sndrvPCMHwParamRate, uint32(params.Rate))
				if withPeriod && params.PeriodFrames > 0 {
					hw.setInterval(sndrvPCMHwParamPeriodSize, uint32(params.PeriodFrames))
				}

				if err := ioctl(p.fd, sndrvPCMIoctlHwParams, unsafe.Pointer(&hw)); err != nil {
					lastErr = err
					continue
				}

				period, _ := hw.getInterval(sndrvPCMHwParamPeriodSize)
				p.format = format
				p.channels = ch
				p.periodFrames = int(period)
				if p.periodFrames <= 0 {
					p.periodFrames = params.PeriodFrames
				}
				return nil
			}
		}
	}
	return lastErr
}

// Channels returns the channel count the hardware accepted.
func (p *PCM) Channels() int {
	return p.channels
}

// PeriodFrames returns the period size the hardware settled on.
func (p *PCM) PeriodFrames() int {
	return p.periodFrames
}

// Format returns the negotiated sample format.
func (p *PCM) Format() int {
	return p.format
}

// ReadFloat32 reads up to len(buf)/channels frames. An overrun is recovered
// by re-preparing the substream and is reported as unix.EPIPE.
func (p *PCM) ReadFloat32(buf []float32) (int, error) {
	if p.fd < 0 {
		return 0, ErrClosed
	}
	frames := len(buf) / p.channels
	if p.format == FormatFloatLE {
		return p.transfer(sndrvPCMIoctlReadiFrames, unsafe.Pointer(unsafe.SliceData(buf)), frames, buf)
	}

	frames = min(frames, len(p.scratch)/p.channels)
	n, err := p.transfer(sndrvPCMIoctlReadiFrames, unsafe.Pointer(unsafe.SliceData(p.scratch)), frames, p.scratch)
	S16ToFloat32(buf[:n*p.channels], p.scratch[:n*p.channels])
	return n, err
}

// WriteFloat32 writes len(buf)/channels frames. An underrun is recovered
// by re-preparing the substream and is reported as unix.EPIPE.
func (p *PCM) WriteFloat32(buf []float32) (int, error) {
	if p.fd < 0 {
		return 0, ErrClosed
	}
	frames := len(buf) / p.channels
	if p.format == FormatFloatLE {
		return p.transfer(sndrvPCMIoctlWriteiFrames, unsafe.Pointer(unsafe.SliceData(buf)), frames, buf)
	}

	frames = min(frames, len(p.scratch)/p.channels)
	Float32ToS16(p.scratch[:frames*p.channels], buf[:frames*p.channels])
	return p.transfer(sndrvPCMIoctlWriteiFrames, unsafe.Pointer(unsafe.SliceData(p.scratch)), frames, p.scratch)
}

func (p *PCM) transfer(req uintptr, data unsafe.Pointer, frames int, keepAlive any) (int, error) {
	if frames == 0 {
		return 0, nil
	}
	x := sndXferi{buf: uintptr(data), frames: uint64(frames)}
	err := ioctl(p.fd, req, unsafe.Pointer(&x))
	runtime.KeepAlive(keepAlive)
	if err != nil {
		if errors.Is(err, unix.EPIPE) {
			_ = ioctl(p.fd, sndrvPCMIoctlPrepare, nil)
		}
		return 0, err
	}
	return int(x.result), nil
}

// Close drops pending frames and releases the device. Safe to call twice.
func (p *PCM) Close() error {
	if p.fd < 0 {
		return nil
	}
	_ = ioctl(p.fd, sndrvPCMIoctlDrop, nil)
	err := unix.Close(p.fd)
	p.fd = -1
	return err
}

// S16ToFloat32 converts signed 16-bit samples to [-1, 1).
func S16ToFloat32(dst []float32, src []int16) {
	for i := range min(len(dst), len(src)) {
		dst[i] = float32(src[i]) / 32768
	}
}

// Float32ToS16 converts samples to signed 16-bit with clipping.
func Float32ToS16(dst []int16, src []float32) {
	for i := range min(len(dst), len(src)) {
		v := float64(src[i]) * 32768
		dst[i] = int16(math.Max(math.MinInt16, math.Min(math.MaxInt16, math.Round(v))))
	}
}
