package events

import "time"

// Event type constants for kelindar/event.
const (
	TypeDeviceSwitched uint32 = iota + 1
	TypeDeviceFailed
	TypeModeChanged
	TypeResolutionApplied
	TypeHotplug
	TypeDiagnostic
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// Device kinds carried by device events.
const (
	KindCamera = "camera"
	KindMic    = "mic"
)

// DeviceSwitchedEvent is published after a camera or mic was opened.
type DeviceSwitchedEvent struct {
	Kind       string
	Index      int
	Path       string
	Resolution string // camera only, e.g. "896x504"
	Timestamp  time.Time
}

// Type returns the event type identifier for DeviceSwitchedEvent.
func (e DeviceSwitchedEvent) Type() uint32 { return TypeDeviceSwitched }

// DeviceFailedEvent is published when opening a device failed.
// Restored reports whether the previously open camera was brought back.
type DeviceFailedEvent struct {
	Kind      string
	Index     int
	Error     string
	Restored  bool
	Timestamp time.Time
}

// Type returns the event type identifier for DeviceFailedEvent.
func (e DeviceFailedEvent) Type() uint32 { return TypeDeviceFailed }

// ModeChangedEvent carries the display mode after an intent was applied.
type ModeChangedEvent struct {
	Mode      string
	Timestamp time.Time
}

// Type returns the event type identifier for ModeChangedEvent.
func (e ModeChangedEvent) Type() uint32 { return TypeModeChanged }

// ResolutionAppliedEvent reports what the driver accepted for a requested size.
type ResolutionAppliedEvent struct {
	Requested string
	Applied   string
	Timestamp time.Time
}

// Type returns the event type identifier for ResolutionAppliedEvent.
func (e ResolutionAppliedEvent) Type() uint32 { return TypeResolutionApplied }

// HotplugEvent mirrors a kernel uevent for a capture or sound node.
type HotplugEvent struct {
	Action    string
	Subsystem string
	Node      string
	Timestamp time.Time
}

// Type returns the event type identifier for HotplugEvent.
func (e HotplugEvent) Type() uint32 { return TypeHotplug }

// DiagnosticEvent is a coded, operator-facing message such as a compose
// failure or a rejected mode change.
type DiagnosticEvent struct {
	Module    string
	Code      string
	Message   string
	Timestamp time.Time
}

// Type returns the event type identifier for DiagnosticEvent.
func (e DiagnosticEvent) Type() uint32 { return TypeDiagnostic }
