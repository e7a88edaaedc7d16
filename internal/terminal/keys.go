package terminal

import (
	"github.com/gdamore/tcell/v2"

	"github.com/smazurov/vitaview/internal/overlay"
	"github.com/smazurov/vitaview/internal/playback"
)

// Translate maps a key press to an intent. quit is set for q, Esc and
// Ctrl-C; unmapped keys return a nil intent.
func Translate(ev *tcell.EventKey) (in playback.Intent, quit bool) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return nil, true
	case tcell.KeyF11:
		return playback.ToggleFullscreen{}, false
	case tcell.KeyRune:
	default:
		return nil, false
	}

	switch r := ev.Rune(); {
	case r >= '1' && r <= '5':
		return playback.SelectCamera{Index: int(r - '1')}, false
	case r >= '6' && r <= '8':
		return playback.SelectMic{Index: int(r - '6')}, false
	case r == '9':
		return playback.ToggleUpscale{}, false
	case r == '0':
		return playback.ToggleOverlay{ID: overlay.Vita2000}, false
	case r == '-':
		return playback.ToggleOverlay{ID: overlay.Vita1000}, false
	case r == '=':
		return playback.ToggleOverlay{ID: overlay.PSP}, false
	case r == '[':
		return playback.CycleResolution{Step: -1}, false
	case r == ']':
		return playback.CycleResolution{Step: 1}, false
	case r == 'f':
		return playback.ToggleFullscreen{}, false
	case r == 'q':
		return nil, true
	}
	return nil, false
}

// Help is the key legend shown on startup.
const Help = "1-5 camera  6-8 mic  9 upscale  0/-/= overlay  [ ] resolution  f fullscreen  q quit"
