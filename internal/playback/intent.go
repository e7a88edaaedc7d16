package playback

import (
	"fmt"

	"github.com/smazurov/vitaview/internal/overlay"
)

// Intent is a named user action applied on the playback goroutine.
type Intent interface {
	fmt.Stringer
	intent()
}

// SelectCamera switches video to camera Index.
type SelectCamera struct{ Index int }

// SelectMic switches the audio loopback input to mic Index.
type SelectMic struct{ Index int }

// ToggleUpscale flips between Plain and Upscaled.
type ToggleUpscale struct{}

// ToggleOverlay shows overlay ID, or returns to Plain if it is already shown.
type ToggleOverlay struct{ ID overlay.ID }

// CycleResolution moves Step entries through the resolution table.
type CycleResolution struct{ Step int }

// ToggleFullscreen is forwarded to the display sink.
type ToggleFullscreen struct{}

func (SelectCamera) intent()     {}
func (SelectMic) intent()        {}
func (ToggleUpscale) intent()    {}
func (ToggleOverlay) intent()    {}
func (CycleResolution) intent()  {}
func (ToggleFullscreen) intent() {}

func (i SelectCamera) String() string    { return fmt.Sprintf("select-camera(%d)", i.Index) }
func (i SelectMic) String() string       { return fmt.Sprintf("select-mic(%d)", i.Index) }
func (ToggleUpscale) String() string     { return "toggle-upscale" }
func (i ToggleOverlay) String() string   { return "toggle-overlay(" + string(i.ID) + ")" }
func (i CycleResolution) String() string { return fmt.Sprintf("cycle-resolution(%+d)", i.Step) }
func (ToggleFullscreen) String() string  { return "toggle-fullscreen" }
