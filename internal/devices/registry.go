// Package devices maps the small integer indices used by the key bindings
// to capture nodes and ALSA PCMs.
package devices

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
)

// ErrUnknownIndex is returned when no device sits at the requested index.
var ErrUnknownIndex = errors.New("no device at index")

// ErrNotSupported is returned when the enumerator cannot query devices.
var ErrNotSupported = errors.New("device queries not supported")

// Camera is a V4L2 capture node. Index is its position among capture nodes,
// which are listed in /dev/videoN order.
type Camera struct {
	Index int
	Path  string
	Name  string
	ID    string
}

// PCM is an ALSA PCM. Index is its position among PCMs of the same direction.
type PCM struct {
	Index  int
	Device string // hw:CARD,DEVICE
	Card   string
	Name   string
}

// Snapshot is one enumeration of everything the viewer can open.
type Snapshot struct {
	Cameras []Camera
	Mics    []PCM
	Outputs []PCM
}

// Enumerator lists devices present right now.
type Enumerator interface {
	Enumerate() (Snapshot, error)
}

// Describer queries a single camera node. Enumerators that can open nodes
// implement it.
type Describer interface {
	Describe(path string) (CameraDetails, error)
}

// FrameSize is one capture size and the frame rates offered at it.
type FrameSize struct {
	Width  uint32
	Height uint32
	FPS    []float64
}

// Format is a pixel format a camera offers.
type Format struct {
	FourCC   string
	Name     string
	Emulated bool
	Sizes    []FrameSize
}

// Signal is the input state of an HDMI capture card.
type Signal struct {
	State  string
	Width  uint32
	Height uint32
	FPS    float64
}

// CameraDetails is what a camera node reports when queried directly.
// Signal is nil for devices without DV timings.
type CameraDetails struct {
	Type    string
	Ready   bool
	Signal  *Signal
	Formats []Format
}

// Registry caches the last Snapshot and resolves indices against it.
type Registry struct {
	enum   Enumerator
	logger *slog.Logger

	mu   sync.RWMutex
	snap Snapshot
}

// NewRegistry returns an empty registry; call Refresh to populate it.
func NewRegistry(enum Enumerator, logger *slog.Logger) *Registry {
	return &Registry{enum: enum, logger: logger}
}

// Refresh re-enumerates and logs devices that appeared or went away.
func (r *Registry) Refresh() error {
	snap, err := r.enum.Enumerate()
	if err != nil {
		return fmt.Errorf("enumerate devices: %w", err)
	}

	r.mu.Lock()
	added, removed := diff(r.snap, snap)
	r.snap = snap
	r.mu.Unlock()

	for _, d := range removed {
		r.logger.Info("Device removed", "device", d)
	}
	for _, d := range added {
		r.logger.Info("Device added", "device", d)
	}
	return nil
}

// Snapshot returns the cached enumeration.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap
}

// CameraPath returns the node of the index-th capture device. A miss
// triggers one re-enumeration so freshly plugged devices resolve without
// waiting for the hotplug watcher.
func (r *Registry) CameraPath(index int) (string, error) {
	find := func(s Snapshot) (string, bool) {
		if index < 0 || index >= len(s.Cameras) {
			return "", false
		}
		return s.Cameras[index].Path, true
	}
	return lookup(r, find, "camera", index)
}

// Describe queries the formats and signal state of camera index.
func (r *Registry) Describe(index int) (CameraDetails, error) {
	d, ok := r.enum.(Describer)
	if !ok {
		return CameraDetails{}, ErrNotSupported
	}
	path, err := r.CameraPath(index)
	if err != nil {
		return CameraDetails{}, err
	}
	details, err := d.Describe(path)
	if err != nil {
		return details, fmt.Errorf("describe %s: %w", path, err)
	}
	return details, nil
}

// MicDevice returns the hw name of capture PCM index.
func (r *Registry) MicDevice(index int) (string, error) {
	find := func(s Snapshot) (string, bool) {
		if index < 0 || index >= len(s.Mics) {
			return "", false
		}
		return s.Mics[index].Device, true
	}
	return lookup(r, find, "mic", index)
}

// DefaultOutput returns the first playback PCM.
func (r *Registry) DefaultOutput() (string, error) {
	find := func(s Snapshot) (string, bool) {
		if len(s.Outputs) == 0 {
			return "", false
		}
		return s.Outputs[0].Device, true
	}
	return lookup(r, find, "output", 0)
}

func lookup(r *Registry, find func(Snapshot) (string, bool), kind string, index int) (string, error) {
	if v, ok := find(r.Snapshot()); ok {
		return v, nil
	}
	if err := r.Refresh(); err != nil {
		return "", err
	}
	if v, ok := find(r.Snapshot()); ok {
		return v, nil
	}
	return "", fmt.Errorf("%w: %s %d", ErrUnknownIndex, kind, index)
}

func diff(old, cur Snapshot) (added, removed []string) {
	keys := func(s Snapshot) map[string]bool {
		m := make(map[string]bool)
		for _, c := range s.Cameras {
			m[c.Path] = true
		}
		for _, p := range s.Mics {
			m[p.Device+" capture"] = true
		}
		for _, p := range s.Outputs {
			m[p.Device+" playback"] = true
		}
		return m
	}
	before, after := keys(old), keys(cur)
	for k := range after {
		if !before[k] {
			added = append(added, k)
		}
	}
	for k := range before {
		if !after[k] {
			removed = append(removed, k)
		}
	}
	return added, removed
}

func (c Camera) String() string {
	return strconv.Itoa(c.Index) + ": " + c.Path + " (" + c.Name + ")"
}

func (s FrameSize) String() string {
	return strconv.FormatUint(uint64(s.Width), 10) + "x" + strconv.FormatUint(uint64(s.Height), 10)
}

func (p PCM) String() string {
	return strconv.Itoa(p.Index) + ": " + p.Device + " (" + p.Card + ", " + p.Name + ")"
}
