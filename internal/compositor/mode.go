package compositor

import "github.com/smazurov/vitaview/internal/overlay"

// Kind is the display mode family.
type Kind int

// Display modes. Upscaled and Overlay never hold at the same time.
const (
	Plain Kind = iota
	Upscaled
	Overlay
)

// Mode is the display mode plus the overlay it refers to, if any.
type Mode struct {
	Kind    Kind
	Overlay overlay.ID
}

// PlainMode returns the pass-through mode.
func PlainMode() Mode { return Mode{Kind: Plain} }

// UpscaledMode returns pass-through with smooth display scaling.
func UpscaledMode() Mode { return Mode{Kind: Upscaled} }

// OverlayMode returns the mode compositing into overlay id.
func OverlayMode(id overlay.ID) Mode { return Mode{Kind: Overlay, Overlay: id} }

func (m Mode) String() string {
	switch m.Kind {
	case Plain:
		return "plain"
	case Upscaled:
		return "upscaled"
	case Overlay:
		return "overlay:" + string(m.Overlay)
	default:
		return "unknown"
	}
}
