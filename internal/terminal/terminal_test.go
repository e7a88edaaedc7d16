package terminal

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/smazurov/vitaview/internal/display"
	"github.com/smazurov/vitaview/internal/events"
	"github.com/smazurov/vitaview/internal/frame"
	"github.com/smazurov/vitaview/internal/logging"
	"github.com/smazurov/vitaview/internal/metrics"
	"github.com/smazurov/vitaview/internal/overlay"
	"github.com/smazurov/vitaview/internal/playback"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// newSink returns a sink over a simulated cols×rows terminal.
func newSink(t *testing.T, cols, rows int) (tcell.SimulationScreen, *Sink) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	s, err := NewSink(screen, nil, discard)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Close)
	screen.SetSize(cols, rows)
	return screen, s
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		ev   *tcell.EventKey
		want playback.Intent
		quit bool
	}{
		{"camera 1", tcell.NewEventKey(tcell.KeyRune, '1', 0), playback.SelectCamera{Index: 0}, false},
		{"camera 5", tcell.NewEventKey(tcell.KeyRune, '5', 0), playback.SelectCamera{Index: 4}, false},
		{"mic 6", tcell.NewEventKey(tcell.KeyRune, '6', 0), playback.SelectMic{Index: 0}, false},
		{"mic 8", tcell.NewEventKey(tcell.KeyRune, '8', 0), playback.SelectMic{Index: 2}, false},
		{"upscale", tcell.NewEventKey(tcell.KeyRune, '9', 0), playback.ToggleUpscale{}, false},
		{"vita2000", tcell.NewEventKey(tcell.KeyRune, '0', 0), playback.ToggleOverlay{ID: overlay.Vita2000}, false},
		{"vita1000", tcell.NewEventKey(tcell.KeyRune, '-', 0), playback.ToggleOverlay{ID: overlay.Vita1000}, false},
		{"psp", tcell.NewEventKey(tcell.KeyRune, '=', 0), playback.ToggleOverlay{ID: overlay.PSP}, false},
		{"resolution down", tcell.NewEventKey(tcell.KeyRune, '[', 0), playback.CycleResolution{Step: -1}, false},
		{"resolution up", tcell.NewEventKey(tcell.KeyRune, ']', 0), playback.CycleResolution{Step: 1}, false},
		{"f11", tcell.NewEventKey(tcell.KeyF11, 0, 0), playback.ToggleFullscreen{}, false},
		{"quit", tcell.NewEventKey(tcell.KeyRune, 'q', 0), nil, true},
		{"escape", tcell.NewEventKey(tcell.KeyEscape, 0, 0), nil, true},
		{"unmapped", tcell.NewEventKey(tcell.KeyRune, 'x', 0), nil, false},
		{"arrow", tcell.NewEventKey(tcell.KeyUp, 0, 0), nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, quit := Translate(tt.ev)
			if got != tt.want || quit != tt.quit {
				t.Errorf("Translate = %v, %v; want %v, %v", got, quit, tt.want, tt.quit)
			}
		})
	}
}

func TestPresentHalfBlocks(t *testing.T) {
	screen, s := newSink(t, 80, 25)

	if w, h := s.Size(); w != 80 || h != 48 {
		t.Fatalf("Size = %dx%d, want 80x48", w, h)
	}

	// Top half red, bottom half blue, at the video area's own aspect.
	img := frame.New(80, 48, frame.RGB)
	for y := range 48 {
		row := img.Row(y)
		for x := 0; x < len(row); x += 3 {
			if y < 24 {
				row[x] = 255
			} else {
				row[x+2] = 255
			}
		}
	}
	if err := s.Present(img, display.Fast); err != nil {
		t.Fatal(err)
	}

	check := func(x, y int, fg, bg tcell.Color) {
		t.Helper()
		r, _, style, _ := screen.GetContent(x, y)
		gotFg, gotBg, _ := style.Decompose()
		if r != upperHalf || gotFg != fg || gotBg != bg {
			t.Errorf("cell (%d,%d) = %q fg %v bg %v, want fg %v bg %v", x, y, r, gotFg, gotBg, fg, bg)
		}
	}
	red, blue := tcell.NewRGBColor(255, 0, 0), tcell.NewRGBColor(0, 0, 255)
	check(0, 0, red, red)
	check(79, 11, red, red)
	check(40, 12, blue, blue)
	check(40, 23, blue, blue)

	// Status line on the last row.
	r, _, _, _ := screen.GetContent(1, 24)
	if r != 'p' {
		t.Errorf("status line starts with %q, want mode name", r)
	}
}

func TestFullscreenUsesEveryRow(t *testing.T) {
	_, s := newSink(t, 80, 25)

	s.SetFullscreen(true)
	if !s.Fullscreen() {
		t.Fatal("Fullscreen = false")
	}
	if w, h := s.Size(); w != 80 || h != 50 {
		t.Errorf("Size = %dx%d, want 80x50", w, h)
	}
}

func TestPresentTooSmall(t *testing.T) {
	screen, s := newSink(t, 30, 10)

	if err := s.Present(frame.New(4, 4, frame.RGB), display.Fast); err != nil {
		t.Fatal(err)
	}
	r, _, _, _ := screen.GetContent(0, 0)
	if r != 't' {
		t.Errorf("cell (0,0) = %q, want notice text", r)
	}
}

func TestStatusFromEvents(t *testing.T) {
	_, s := newSink(t, 80, 25)

	s.onMode(events.ModeChangedEvent{Mode: "overlay:psp"})
	s.onSwitch(events.DeviceSwitchedEvent{Kind: events.KindCamera, Index: 1, Resolution: "896x504"})
	s.onSwitch(events.DeviceSwitchedEvent{Kind: events.KindMic, Index: 2})
	s.onResolution(events.ResolutionAppliedEvent{Requested: "960x544", Applied: "640x480"})

	line := statusLine(s.status, metrics.Stats{FPS: 29.5, Compose: 2 * time.Millisecond}, logging.Entry{}, time.Now())
	for _, want := range []string{"overlay:psp", "cam 2 640x480", "mic 3", "29.5 fps", "compose 2ms", Help} {
		if !strings.Contains(line, want) {
			t.Errorf("status %q missing %q", line, want)
		}
	}
}

func TestStatusShowsRecentWarning(t *testing.T) {
	now := time.Now()
	st := status{mode: "plain", camera: -1, mic: -1}
	warn := logging.Entry{Time: now.Add(-time.Second), Level: slog.LevelWarn, Message: "Camera not available"}

	line := statusLine(st, metrics.Stats{}, warn, now)
	if !strings.Contains(line, "Camera not available") || !strings.Contains(line, "no camera") {
		t.Errorf("status = %q", line)
	}
	if line := statusLine(st, metrics.Stats{}, warn, now.Add(time.Minute)); strings.Contains(line, "Camera not available") {
		t.Errorf("stale warning still shown: %q", line)
	}
}

func TestRunForwardsKeys(t *testing.T) {
	screen, s := newSink(t, 80, 25)

	intents := make(chan playback.Intent, 4)
	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background(), intents) }()

	screen.InjectKey(tcell.KeyRune, '9', 0)
	screen.InjectKey(tcell.KeyRune, ']', 0)
	screen.InjectKey(tcell.KeyRune, 'q', 0)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return on q")
	}
	if got := <-intents; got != (playback.ToggleUpscale{}) {
		t.Errorf("first intent = %v", got)
	}
	if got := <-intents; got != (playback.CycleResolution{Step: 1}) {
		t.Errorf("second intent = %v", got)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	_, s := newSink(t, 80, 25)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, make(chan playback.Intent)) }()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
