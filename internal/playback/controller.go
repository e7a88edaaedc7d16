// Package playback runs the fixed-rate frame loop and applies user intents
// to the capture session, audio loopback and display mode.
package playback

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/smazurov/vitaview/internal/capture"
	"github.com/smazurov/vitaview/internal/compositor"
	"github.com/smazurov/vitaview/internal/display"
	"github.com/smazurov/vitaview/internal/events"
	"github.com/smazurov/vitaview/internal/frame"
	"github.com/smazurov/vitaview/internal/metrics"
	"github.com/smazurov/vitaview/internal/overlay"
)

// Capture is the video side the controller drives. *capture.Session implements it.
type Capture interface {
	Open(index int, res capture.Resolution) error
	SetResolution(w, h int) (capture.Resolution, error)
	ReadFrame() (*frame.Frame, error)
	Close() error
	IsOpen() bool
	Index() int
	Resolution() capture.Resolution
}

// Audio is the loopback the controller drives. *audio.Loopback implements it.
type Audio interface {
	Start(index int) error
	Stop() error
}

// Composer renders a frame for a mode. *compositor.Compositor implements it.
type Composer interface {
	Compose(f *frame.Frame, mode compositor.Mode) (*frame.Frame, error)
}

// Options configures a Controller.
type Options struct {
	TickInterval time.Duration
	Resolutions  []capture.Resolution
	// Camera and Mic are opened by Start. A negative Mic leaves audio off.
	Camera int
	Mic    int
}

// DefaultTickInterval paces the frame loop at roughly 33 fps.
const DefaultTickInterval = 30 * time.Millisecond

// Controller owns the display mode and is the only user of its capture
// session, loopback, composer and sink. All methods except Intents must be
// called from one goroutine; Run is that goroutine in production.
type Controller struct {
	capture  Capture
	audio    Audio
	composer Composer
	sink     display.Sink
	bus      *events.Bus
	logger   *slog.Logger

	opts        Options
	resolutions *ResolutionTable
	mode        compositor.Mode
	intents     chan Intent
	lastErr     string
	closed      bool
}

// New wires a controller. audio and bus may be nil.
func New(video Capture, audio Audio, composer Composer, sink display.Sink, bus *events.Bus, logger *slog.Logger, opts Options) *Controller {
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	return &Controller{
		capture:     video,
		audio:       audio,
		composer:    composer,
		sink:        sink,
		bus:         bus,
		logger:      logger,
		opts:        opts,
		resolutions: NewResolutionTable(opts.Resolutions),
		mode:        compositor.PlainMode(),
		intents:     make(chan Intent, 16),
	}
}

// Intents returns the channel Run reads intents from.
func (c *Controller) Intents() chan<- Intent {
	return c.intents
}

// Mode returns the current display mode.
func (c *Controller) Mode() compositor.Mode {
	return c.mode
}

// Resolutions returns the resolution table.
func (c *Controller) Resolutions() *ResolutionTable {
	return c.resolutions
}

// Start opens the startup camera and mic. Failures are reported and
// returned joined; playback continues without the device.
func (c *Controller) Start() error {
	errs := []error{c.Apply(SelectCamera{Index: c.opts.Camera})}
	if c.audio != nil && c.opts.Mic >= 0 {
		errs = append(errs, c.Apply(SelectMic{Index: c.opts.Mic}))
	}
	return errors.Join(errs...)
}

// Run ticks and applies intents until ctx is done. A slow tick delays the
// next one; ticks are never run concurrently.
func (c *Controller) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.opts.TickInterval)
	defer ticker.Stop()

	c.logger.Info("Playback started", "tick", c.opts.TickInterval, "mode", c.mode.String())
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Playback stopped")
			return nil
		case in := <-c.intents:
			_ = c.Apply(in)
		case <-ticker.C:
			_ = c.Tick()
		}
	}
}

// Apply executes one intent. Errors are also logged and published.
func (c *Controller) Apply(in Intent) error {
	c.logger.Debug("Intent", "intent", in.String())

	switch in := in.(type) {
	case SelectCamera:
		return c.selectCamera(in.Index)
	case SelectMic:
		return c.selectMic(in.Index)
	case ToggleUpscale:
		return c.toggleUpscale()
	case ToggleOverlay:
		return c.toggleOverlay(in.ID)
	case CycleResolution:
		return c.cycleResolution(in.Step)
	case ToggleFullscreen:
		c.sink.SetFullscreen(!c.sink.Fullscreen())
		c.logger.Info("Fullscreen toggled", "fullscreen", c.sink.Fullscreen())
		return nil
	default:
		return c.report(NewError(CodeInvalidIntent, "unknown intent "+in.String(), nil))
	}
}

func (c *Controller) selectCamera(index int) error {
	prev := c.capture.Index()
	err := c.capture.Open(index, c.resolutions.Current())
	if err == nil {
		metrics.DeviceSwitch(events.KindCamera, true)
		applied := c.capture.Resolution()
		c.logger.Info("Camera switched", "index", index, "resolution", applied.String())
		c.bus.Publish(events.DeviceSwitchedEvent{
			Kind:       events.KindCamera,
			Index:      index,
			Resolution: applied.String(),
			Timestamp:  time.Now(),
		})
		if c.mode.Kind == compositor.Overlay {
			c.setMode(compositor.PlainMode())
		}
		return nil
	}

	metrics.DeviceSwitch(events.KindCamera, false)
	restored := false
	if prev >= 0 {
		if rerr := c.capture.Open(prev, c.resolutions.Current()); rerr != nil {
			c.logger.Error("Failed to restore previous camera", "index", prev, "error", rerr)
		} else {
			restored = true
		}
	}
	c.bus.Publish(events.DeviceFailedEvent{
		Kind:      events.KindCamera,
		Index:     index,
		Error:     err.Error(),
		Restored:  restored,
		Timestamp: time.Now(),
	})
	return c.report(NewError(CodeCameraUnavailable, "camera not available", err))
}

func (c *Controller) selectMic(index int) error {
	if c.audio == nil {
		return c.report(NewError(CodeMicUnavailable, "audio disabled", nil))
	}
	if err := c.audio.Start(index); err != nil {
		metrics.DeviceSwitch(events.KindMic, false)
		c.bus.Publish(events.DeviceFailedEvent{Kind: events.KindMic, Index: index, Error: err.Error(), Timestamp: time.Now()})
		return c.report(NewError(CodeMicUnavailable, "mic not available", err))
	}
	metrics.DeviceSwitch(events.KindMic, true)
	c.logger.Info("Mic switched", "index", index)
	c.bus.Publish(events.DeviceSwitchedEvent{Kind: events.KindMic, Index: index, Timestamp: time.Now()})
	return nil
}

func (c *Controller) toggleUpscale() error {
	switch c.mode.Kind {
	case compositor.Overlay:
		return c.report(NewError(CodeModeConflict, "upscale is unavailable while an overlay is shown", ErrModeConflict))
	case compositor.Upscaled:
		c.setMode(compositor.PlainMode())
	default:
		c.setMode(compositor.UpscaledMode())
	}
	return nil
}

func (c *Controller) toggleOverlay(id overlay.ID) error {
	if _, ok := overlay.Get(id); !ok {
		return c.report(NewError(CodeInvalidIntent, "unknown overlay "+string(id), nil))
	}
	if c.mode == compositor.OverlayMode(id) {
		c.setMode(compositor.PlainMode())
		return nil
	}
	c.setMode(compositor.OverlayMode(id))
	return nil
}

func (c *Controller) cycleResolution(step int) error {
	want := c.resolutions.Step(step)
	c.logger.Info("Resolution selected", "index", c.resolutions.Index(), "resolution", want.String())
	if !c.capture.IsOpen() {
		return nil
	}

	index := c.capture.Index()
	applied, err := c.capture.SetResolution(want.Width, want.Height)
	if err != nil {
		if !c.capture.IsOpen() {
			c.bus.Publish(events.DeviceFailedEvent{
				Kind:      events.KindCamera,
				Index:     index,
				Error:     err.Error(),
				Timestamp: time.Now(),
			})
		}
		return c.report(NewError(CodeResolution, "set resolution "+want.String(), err))
	}
	c.bus.Publish(events.ResolutionAppliedEvent{Requested: want.String(), Applied: applied.String(), Timestamp: time.Now()})
	return nil
}

func (c *Controller) setMode(m compositor.Mode) {
	if m == c.mode {
		return
	}
	c.mode = m
	c.lastErr = ""
	c.logger.Info("Mode changed", "mode", m.String())
	c.bus.Publish(events.ModeChangedEvent{Mode: m.String(), Timestamp: time.Now()})
}

// Tick reads, composes and presents one frame. A missing device or frame
// skips the tick without error. A failed compose keeps the previous image
// on the sink.
func (c *Controller) Tick() error {
	metrics.Tick()
	if !c.capture.IsOpen() {
		metrics.SkipTick(metrics.SkipNoDevice)
		return nil
	}

	f, err := c.capture.ReadFrame()
	if err != nil {
		metrics.SkipTick(metrics.SkipNoFrame)
		c.logger.Debug("No frame", "error", err)
		return nil
	}

	start := time.Now()
	img, err := c.composer.Compose(f, c.mode)
	metrics.ObserveCompose(c.mode.String(), time.Since(start))
	if err != nil {
		metrics.SkipTick(metrics.SkipCompose)
		return c.reportOnce(NewError(CodeCompose, "compose "+c.mode.String(), err))
	}

	q := display.Fast
	if c.mode.Kind == compositor.Upscaled {
		q = display.Smooth
	}
	if err := c.sink.Present(img, q); err != nil {
		return c.reportOnce(NewError(CodePresent, "present frame", err))
	}
	c.lastErr = ""
	metrics.FramePresented(time.Now())
	return nil
}

// Close releases capture and audio. Safe to call more than once.
func (c *Controller) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	var errs []error
	if err := c.capture.Close(); err != nil {
		errs = append(errs, err)
	}
	if c.audio != nil {
		if err := c.audio.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	c.logger.Info("Playback closed")
	return errors.Join(errs...)
}

func (c *Controller) report(e *Error) error {
	c.logger.Warn(e.Message, "code", e.Code, "error", e.Cause)
	c.bus.Publish(events.DiagnosticEvent{Module: "playback", Code: e.Code, Message: e.Error(), Timestamp: time.Now()})
	return e
}

// reportOnce reports per-tick failures only when they differ from the last
// one, so a missing asset is not logged thirty times a second.
func (c *Controller) reportOnce(e *Error) error {
	if msg := e.Error(); msg != c.lastErr {
		c.lastErr = msg
		return c.report(e)
	}
	return e
}
