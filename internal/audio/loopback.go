// Package audio passes one capture device through to the playback output.
package audio

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrDeviceUnavailable is returned when a duplex stream cannot be opened.
var ErrDeviceUnavailable = errors.New("audio device unavailable")

// Callback processes one block. in and out have the same length and are
// reused between calls; implementations must not retain or allocate.
type Callback func(in, out []float32)

// Passthrough copies input to output unchanged.
func Passthrough(in, out []float32) {
	copy(out, in)
}

// StreamConfig describes the duplex stream.
type StreamConfig struct {
	SampleRate  int
	Channels    int
	BlockFrames int
}

// DefaultStreamConfig is mono float32 at 44.1 kHz in 512-frame blocks.
var DefaultStreamConfig = StreamConfig{SampleRate: 44100, Channels: 1, BlockFrames: 512}

// Stream is a running duplex stream.
type Stream interface {
	// Done is closed once the stream stopped, on Close or on a device error.
	Done() <-chan struct{}
	Close() error
}

// Backend opens duplex streams from an input index to the default output.
type Backend interface {
	OpenDuplex(input int, cfg StreamConfig, cb Callback) (Stream, error)
}

// Loopback owns at most one running stream.
type Loopback struct {
	backend Backend
	cfg     StreamConfig
	logger  *slog.Logger
	stream  Stream
	input   int
}

// NewLoopback returns a stopped loopback.
func NewLoopback(backend Backend, cfg StreamConfig, logger *slog.Logger) *Loopback {
	return &Loopback{backend: backend, cfg: cfg, logger: logger, input: -1}
}

// Start stops any running stream, then starts passing input index through.
// On failure the loopback stays stopped.
func (l *Loopback) Start(index int) error {
	if err := l.Stop(); err != nil {
		l.logger.Warn("Error stopping previous mic", "index", l.input, "error", err)
	}

	stream, err := l.backend.OpenDuplex(index, l.cfg, Passthrough)
	if err != nil {
		l.logger.Warn("Mic not available", "index", index, "error", err)
		return fmt.Errorf("%w: mic %d: %w", ErrDeviceUnavailable, index, err)
	}
	l.stream, l.input = stream, index
	l.logger.Info("Mic started", "index", index, "rate", l.cfg.SampleRate, "block", l.cfg.BlockFrames)
	return nil
}

// Stop closes the running stream. Safe when stopped.
func (l *Loopback) Stop() error {
	if l.stream == nil {
		return nil
	}
	err := l.stream.Close()
	l.logger.Debug("Mic stopped", "index", l.input)
	l.stream, l.input = nil, -1
	return err
}

// Running reports whether a stream is open and has not died.
func (l *Loopback) Running() bool {
	if l.stream == nil {
		return false
	}
	select {
	case <-l.stream.Done():
		return false
	default:
		return true
	}
}

// Input returns the current input index, or -1.
func (l *Loopback) Input() int {
	return l.input
}
