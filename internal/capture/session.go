// Package capture owns the one open capture device and turns its buffers
// into frames on demand.
package capture

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/smazurov/vitaview/internal/frame"
)

var (
	// ErrDeviceUnavailable is returned when a device index cannot be opened.
	ErrDeviceUnavailable = errors.New("capture device unavailable")
	// ErrReadTransient means no frame was available this time around.
	ErrReadTransient = errors.New("transient read failure")
	// ErrNoDevice is returned by reads while no device is open.
	ErrNoDevice = errors.New("no capture device open")
	// ErrDeviceLost is wrapped by Device.SetSize when the device stopped
	// delivering and could not be brought back at its previous size.
	ErrDeviceLost = errors.New("capture device lost")
)

// Resolution is a frame size in pixels.
type Resolution struct {
	Width  int
	Height int
}

func (r Resolution) String() string {
	return strconv.Itoa(r.Width) + "x" + strconv.Itoa(r.Height)
}

// Device is an open capture device.
type Device interface {
	// Resolution is the size the driver applied at open or the last SetSize.
	Resolution() Resolution
	// SetSize requests a size and returns what the driver applied. On
	// failure the device keeps streaming at its previous size, or the error
	// wraps ErrDeviceLost.
	SetSize(w, h int) (Resolution, error)
	// ReadFrame returns the next frame, or an error if none arrived in time.
	ReadFrame() (*frame.Frame, error)
	Close() error
}

// Opener opens capture devices by index, requesting an initial size.
type Opener interface {
	Open(index int, res Resolution) (Device, error)
}

// Session holds at most one open Device. It is not safe for concurrent use;
// the playback loop is its only caller.
type Session struct {
	opener  Opener
	logger  *slog.Logger
	dev     Device
	index   int
	applied Resolution
}

// NewSession returns a closed session.
func NewSession(opener Opener, logger *slog.Logger) *Session {
	return &Session{opener: opener, logger: logger, index: -1}
}

// Open closes the current device, then opens index at res. On failure no
// device is open and the error wraps ErrDeviceUnavailable.
func (s *Session) Open(index int, res Resolution) error {
	if err := s.Close(); err != nil {
		s.logger.Warn("Error closing previous camera", "index", s.index, "error", err)
	}

	dev, err := s.opener.Open(index, res)
	if err != nil {
		s.logger.Warn("Camera not available", "index", index, "error", err)
		return fmt.Errorf("%w: camera %d: %w", ErrDeviceUnavailable, index, err)
	}

	applied := dev.Resolution()
	s.dev, s.index, s.applied = dev, index, applied
	s.logger.Info("Camera started", "index", index, "requested", res.String(), "resolution", applied.String())
	return nil
}

// SetResolution applies a new size to the open device and returns the size
// the driver settled on. With no device open it does nothing. A failed
// change keeps the previous size; a lost device is closed.
func (s *Session) SetResolution(w, h int) (Resolution, error) {
	if s.dev == nil {
		s.logger.Debug("Resolution change ignored, no camera open", "requested", Resolution{w, h}.String())
		return Resolution{}, nil
	}

	applied, err := s.dev.SetSize(w, h)
	if err != nil {
		err = fmt.Errorf("set resolution %dx%d: %w", w, h, err)
		if errors.Is(err, ErrDeviceLost) {
			s.logger.Error("Camera lost during resolution change", "index", s.index, "error", err)
			if cerr := s.Close(); cerr != nil {
				s.logger.Warn("Error closing lost camera", "error", cerr)
			}
			return Resolution{}, err
		}
		s.applied = s.dev.Resolution()
		s.logger.Warn("Resolution change failed", "index", s.index, "requested", Resolution{w, h}.String(), "resolution", s.applied.String(), "error", err)
		return s.applied, err
	}
	s.applied = applied
	s.logger.Info("Resolution set", "index", s.index, "requested", Resolution{w, h}.String(), "resolution", applied.String())
	return applied, nil
}

// ReadFrame returns ErrNoDevice when closed and wraps any device error in
// ErrReadTransient. It never retries.
func (s *Session) ReadFrame() (*frame.Frame, error) {
	if s.dev == nil {
		return nil, ErrNoDevice
	}
	f, err := s.dev.ReadFrame()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadTransient, err)
	}
	return f, nil
}

// Close releases the device. Safe when already closed.
func (s *Session) Close() error {
	if s.dev == nil {
		return nil
	}
	err := s.dev.Close()
	s.dev, s.applied = nil, Resolution{}
	s.logger.Debug("Camera closed", "index", s.index)
	s.index = -1
	return err
}

// IsOpen reports whether a device is open.
func (s *Session) IsOpen() bool {
	return s.dev != nil
}

// Index returns the open device index, or -1.
func (s *Session) Index() int {
	return s.index
}

// Resolution returns the size the open device last applied.
func (s *Session) Resolution() Resolution {
	return s.applied
}
