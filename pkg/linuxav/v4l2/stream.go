//go:build linux && (amd64 || arm64)

package v4l2

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

const bufFlagError = 0x00000040

var (
	// ErrNotCaptureDevice is returned when a node cannot stream video capture.
	ErrNotCaptureDevice = errors.New("v4l2: not a streaming capture device")
	// ErrNoFormat is returned when none of the requested pixel formats is accepted.
	ErrNoFormat = errors.New("v4l2: no supported pixel format")
	// ErrFrameTimeout is returned when no buffer was filled within the timeout.
	ErrFrameTimeout = errors.New("v4l2: no frame ready")
	// ErrCorruptFrame is returned when the driver flagged the dequeued buffer.
	ErrCorruptFrame = errors.New("v4l2: driver marked frame as corrupt")
	// ErrClosed is returned by operations on a closed stream.
	ErrClosed = errors.New("v4l2: stream closed")
	// ErrStreamLost is returned by SetSize when neither the new nor the
	// previous format could be restarted. The stream no longer delivers.
	ErrStreamLost = errors.New("v4l2: stream could not be restarted")
)

// DefaultPixelFormats is the negotiation order used when StreamOptions
// leaves PixelFormats empty. Uncompressed first: it decodes faster.
var DefaultPixelFormats = []uint32{PixFmtYUYV, PixFmtBGR24, PixFmtRGB24, PixFmtMJPEG}

// StreamOptions configures OpenStream.
type StreamOptions struct {
	Width        uint32
	Height       uint32
	PixelFormats []uint32
	Buffers      int
}

// Stream is an open capture node with memory-mapped buffers queued to the driver.
type Stream struct {
	mu        sync.Mutex
	path      string
	fd        int
	format    PixFormat
	nbuf      int
	buffers   [][]byte
	streaming bool
}

// OpenStream opens devicePath, negotiates a pixel format at the requested
// size and starts streaming.
func OpenStream(devicePath string, opts StreamOptions) (*Stream, error) {
	fd, err := open(devicePath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", devicePath, err)
	}

	vcap := v4l2Capability{}
	if err := ioctl(fd, vidiocQuerycap, unsafe.Pointer(&vcap)); err != nil {
		closeFd(fd)
		return nil, fmt.Errorf("query capabilities of %s: %w", devicePath, err)
	}
	caps := vcap.capabilities
	if caps&CapDeviceCaps != 0 {
		caps = vcap.deviceCaps
	}
	if caps&CapVideoCapture == 0 || caps&CapStreaming == 0 {
		closeFd(fd)
		return nil, fmt.Errorf("%s: %w", devicePath, ErrNotCaptureDevice)
	}

	s := &Stream{path: devicePath, fd: fd, nbuf: opts.Buffers}
	if s.nbuf <= 0 {
		s.nbuf = 4
	}

	formats := opts.PixelFormats
	if len(formats) == 0 {
		formats = DefaultPixelFormats
	}
	if err := s.negotiate(opts.Width, opts.Height, formats); err != nil {
		closeFd(fd)
		return nil, err
	}
	if err := s.start(); err != nil {
		s.release()
		closeFd(fd)
		return nil, err
	}
	return s, nil
}

// Path returns the device node this stream was opened on.
func (s *Stream) Path() string {
	return s.path
}

// Format returns the format last read back from the driver.
func (s *Stream) Format() PixFormat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.format
}

// SetSize requests a new frame size, keeping the pixel format. Buffers are
// released and reallocated because drivers refuse S_FMT while streaming.
// The returned format is what the driver actually applied. If the new size
// cannot be started the previous format is restored and streaming resumes;
// only when that fails too is the error ErrStreamLost.
func (s *Stream) SetSize(width, height uint32) (PixFormat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fd < 0 {
		return PixFormat{}, ErrClosed
	}
	old := s.format
	s.stop()
	s.release()

	err := s.setFormat(width, height, old.PixelFormat)
	if err == nil {
		if err = s.start(); err == nil {
			return s.format, nil
		}
	}

	s.stop()
	s.release()
	if rerr := s.setFormat(old.Width, old.Height, old.PixelFormat); rerr != nil {
		return s.format, fmt.Errorf("%w: %w (restore: %w)", ErrStreamLost, err, rerr)
	}
	if rerr := s.start(); rerr != nil {
		s.stop()
		s.release()
		return s.format, fmt.Errorf("%w: %w (restart: %w)", ErrStreamLost, err, rerr)
	}
	return s.format, err
}

// ReadFrame waits up to timeout for a filled buffer, copies it into dst and
// hands the buffer back to the driver. It returns the number of bytes copied.
func (s *Stream) ReadFrame(dst []byte, timeout time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fd < 0 || !s.streaming {
		return 0, ErrClosed
	}

	fds := []unix.PollFd{{Fd: int32(s.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, int(timeout/time.Millisecond))
	if err != nil && !errors.Is(err, unix.EINTR) {
		return 0, fmt.Errorf("poll %s: %w", s.path, err)
	}
	if n == 0 || errors.Is(err, unix.EINTR) {
		return 0, ErrFrameTimeout
	}
	if fds[0].Revents&(unix.POLLERR|unix.POLLHUP) != 0 {
		return 0, fmt.Errorf("%s: %w", s.path, unix.ENODEV)
	}

	buf := v4l2Buffer{typ: bufTypeVideoCapture, memory: memoryMmap}
	if err := ioctl(s.fd, vidiocDqbuf, unsafe.Pointer(&buf)); err != nil {
		if errors.Is(err, unix.EAGAIN) {
			return 0, ErrFrameTimeout
		}
		return 0, fmt.Errorf("dequeue buffer on %s: %w", s.path, err)
	}

	var copied int
	var readErr error
	switch {
	case buf.flags&bufFlagError != 0:
		readErr = ErrCorruptFrame
	case int(buf.index) >= len(s.buffers):
		readErr = fmt.Errorf("driver returned buffer %d of %d", buf.index, len(s.buffers))
	default:
		used := int(buf.bytesused)
		if used == 0 || used > len(s.buffers[buf.index]) {
			used = len(s.buffers[buf.index])
		}
		copied = copy(dst, s.buffers[buf.index][:used])
		if copied < used {
			readErr = io.ErrShortBuffer
		}
	}

	if err := ioctl(s.fd, vidiocQbuf, unsafe.Pointer(&buf)); err != nil && readErr == nil {
		readErr = fmt.Errorf("requeue buffer on %s: %w", s.path, err)
	}
	return copied, readErr
}

// Close stops streaming and releases the device. Safe to call twice.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fd < 0 {
		return nil
	}
	s.stop()
	s.release()
	err := closeFd(s.fd)
	s.fd = -1
	return err
}

func (s *Stream) negotiate(width, height uint32, formats []uint32) error {
	for _, pf := range formats {
		if err := s.setFormat(width, height, pf); err != nil {
			continue
		}
		if s.format.PixelFormat == pf {
			return nil
		}
	}
	return fmt.Errorf("%s: %w", s.path, ErrNoFormat)
}

// setFormat applies S_FMT and then re-reads the applied format with G_FMT.
func (s *Stream) setFormat(width, height, pixelFormat uint32) error {
	f := v4l2Format{typ: bufTypeVideoCapture}
	pix := f.pix()
	pix.width = width
	pix.height = height
	pix.pixelformat = pixelFormat
	pix.field = fieldAny
	if err := ioctl(s.fd, vidiocSFmt, unsafe.Pointer(&f)); err != nil {
		return fmt.Errorf("set format %s %dx%d on %s: %w", FormatFourCC(pixelFormat), width, height, s.path, err)
	}
	return s.queryFormat()
}

func (s *Stream) queryFormat() error {
	f := v4l2Format{typ: bufTypeVideoCapture}
	if err := ioctl(s.fd, vidiocGFmt, unsafe.Pointer(&f)); err != nil {
		return fmt.Errorf("get format on %s: %w", s.path, err)
	}
	pix := f.pix()
	s.format = PixFormat{
		Width:        pix.width,
		Height:       pix.height,
		PixelFormat:  pix.pixelformat,
		BytesPerLine: pix.bytesperline,
		SizeImage:    pix.sizeimage,
	}
	return nil
}

func (s *Stream) start() error {
	req := v4l2RequestBuffers{count: uint32(s.nbuf), typ: bufTypeVideoCapture, memory: memoryMmap}
	if err := ioctl(s.fd, vidiocReqbufs, unsafe.Pointer(&req)); err != nil {
		return fmt.Errorf("request buffers on %s: %w", s.path, err)
	}
	if req.count == 0 {
		return fmt.Errorf("%s: driver granted no buffers", s.path)
	}

	s.buffers = make([][]byte, 0, req.count)
	for i := uint32(0); i < req.count; i++ {
		buf := v4l2Buffer{index: i, typ: bufTypeVideoCapture, memory: memoryMmap}
		if err := ioctl(s.fd, vidiocQuerybuf, unsafe.Pointer(&buf)); err != nil {
			return fmt.Errorf("query buffer %d on %s: %w", i, s.path, err)
		}
		mem, err := unix.Mmap(s.fd, int64(uint32(buf.m)), int(buf.length), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
		if err != nil {
			return fmt.Errorf("mmap buffer %d on %s: %w", i, s.path, err)
		}
		s.buffers = append(s.buffers, mem)
		if err := ioctl(s.fd, vidiocQbuf, unsafe.Pointer(&buf)); err != nil {
			return fmt.Errorf("queue buffer %d on %s: %w", i, s.path, err)
		}
	}

	typ := int32(bufTypeVideoCapture)
	if err := ioctl(s.fd, vidiocStreamon, unsafe.Pointer(&typ)); err != nil {
		return fmt.Errorf("stream on %s: %w", s.path, err)
	}
	s.streaming = true
	return nil
}

func (s *Stream) stop() {
	if !s.streaming {
		return
	}
	typ := int32(bufTypeVideoCapture)
	_ = ioctl(s.fd, vidiocStreamoff, unsafe.Pointer(&typ))
	s.streaming = false
}

// release unmaps buffers and frees them in the driver.
func (s *Stream) release() {
	for _, mem := range s.buffers {
		_ = unix.Munmap(mem)
	}
	s.buffers = nil
	req := v4l2RequestBuffers{count: 0, typ: bufTypeVideoCapture, memory: memoryMmap}
	_ = ioctl(s.fd, vidiocReqbufs, unsafe.Pointer(&req))
}
