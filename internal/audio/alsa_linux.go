//go:build linux && (amd64 || arm64)

package audio

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/smazurov/vitaview/internal/metrics"
	"github.com/smazurov/vitaview/pkg/linuxav/alsa"
)

// DeviceResolver maps mic indices and the default output to hw:CARD,DEVICE.
type DeviceResolver interface {
	MicDevice(index int) (string, error)
	DefaultOutput() (string, error)
}

// ALSABackend runs duplex streams over two hw PCMs. Output overrides the
// resolver's default playback device when set.
type ALSABackend struct {
	Resolver DeviceResolver
	Output   string
	Logger   *slog.Logger
}

// OpenDuplex opens both PCMs synchronously and starts the pump goroutine.
func (b *ALSABackend) OpenDuplex(input int, cfg StreamConfig, cb Callback) (Stream, error) {
	inName, err := b.Resolver.MicDevice(input)
	if err != nil {
		return nil, err
	}
	outName := b.Output
	if outName == "" {
		if outName, err = b.Resolver.DefaultOutput(); err != nil {
			return nil, err
		}
	}

	params := alsa.HwParams{Rate: cfg.SampleRate, Channels: cfg.Channels, PeriodFrames: cfg.BlockFrames}
	if cfg.Channels == 1 {
		// Either side may settle on stereo; the pump converts to and from
		// the mono callback.
		params.FallbackChannels = 2
	}
	capture, err := openPCM(inName, alsa.StreamCapture, params)
	if err != nil {
		return nil, err
	}
	playback, err := openPCM(outName, alsa.StreamPlayback, params)
	if err != nil {
		capture.Close()
		return nil, err
	}
	if b.Logger != nil && (capture.Channels() != cfg.Channels || playback.Channels() != cfg.Channels) {
		b.Logger.Info("Converting audio channels", "input", inName, "input_channels", capture.Channels(),
			"output", outName, "output_channels", playback.Channels())
	}

	s := newALSAStream(capture, playback, cb, cfg, b.Logger)
	go s.pump()
	return s, nil
}

func openPCM(name string, stream int, params alsa.HwParams) (*alsa.PCM, error) {
	card, dev, err := alsa.ParseALSADevice(name)
	if err != nil {
		return nil, err
	}
	return alsa.OpenPCM(card, dev, stream, params)
}

type alsaStream struct {
	capture  *alsa.PCM
	playback *alsa.PCM
	cb       Callback
	channels int // callback channels

	// rawIn and rawOut are the device-side interleaved buffers; they alias
	// in and out when the device channel count matches the callback's.
	rawIn, rawOut []float32
	in, out       []float32

	stop   atomic.Bool
	done   chan struct{}
	once   sync.Once
	err    error
	logger *slog.Logger
}

func newALSAStream(capture, playback *alsa.PCM, cb Callback, cfg StreamConfig, logger *slog.Logger) *alsaStream {
	s := &alsaStream{
		capture:  capture,
		playback: playback,
		cb:       cb,
		channels: cfg.Channels,
		in:       make([]float32, cfg.BlockFrames*cfg.Channels),
		out:      make([]float32, cfg.BlockFrames*cfg.Channels),
		done:     make(chan struct{}),
		logger:   logger,
	}
	s.rawIn, s.rawOut = s.in, s.out
	if ch := capture.Channels(); ch != cfg.Channels {
		s.rawIn = make([]float32, cfg.BlockFrames*ch)
	}
	if ch := playback.Channels(); ch != cfg.Channels {
		s.rawOut = make([]float32, cfg.BlockFrames*ch)
	}
	return s
}

// pump owns both PCMs until it returns. Blocking reads pace the loop, one
// period per iteration, so stop is observed within a block.
func (s *alsaStream) pump() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(s.done)
	defer func() {
		s.err = errors.Join(s.capture.Close(), s.playback.Close())
	}()

	inCh, outCh := s.capture.Channels(), s.playback.Channels()

	// One period of silence so the first write does not underrun.
	clear(s.rawOut)
	if _, err := s.playback.WriteFloat32(s.rawOut); err != nil && !errors.Is(err, unix.EPIPE) {
		s.fail("playback", err)
		return
	}

	for !s.stop.Load() {
		n, err := s.capture.ReadFloat32(s.rawIn)
		if err != nil {
			if errors.Is(err, unix.EPIPE) {
				metrics.AudioXrun("capture")
				continue
			}
			s.fail("capture", err)
			return
		}

		frames := min(n, len(s.in)/s.channels)
		if inCh != s.channels {
			frames = Downmix(s.in, s.rawIn[:n*inCh], inCh)
		}
		samples := frames * s.channels
		s.cb(s.in[:samples], s.out[:samples])

		write := s.out[:samples]
		if outCh != s.channels {
			write = s.rawOut[:Upmix(s.rawOut, s.out[:samples], outCh)*outCh]
		}
		if _, err := s.playback.WriteFloat32(write); err != nil {
			if errors.Is(err, unix.EPIPE) {
				metrics.AudioXrun("playback")
				continue
			}
			s.fail("playback", err)
			return
		}
	}
}

func (s *alsaStream) fail(direction string, err error) {
	if s.logger != nil {
		s.logger.Error("Audio stream stopped", "direction", direction, "error", err)
	}
}

func (s *alsaStream) Done() <-chan struct{} {
	return s.done
}

// Close stops the pump and waits for it to release both devices.
func (s *alsaStream) Close() error {
	s.once.Do(func() {
		s.stop.Store(true)
	})
	<-s.done
	if s.err != nil {
		return fmt.Errorf("close audio stream: %w", s.err)
	}
	return nil
}
