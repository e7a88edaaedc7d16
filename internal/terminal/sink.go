// Package terminal presents frames on a true-color terminal using half-block
// cells and turns key presses into playback intents.
package terminal

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/smazurov/vitaview/internal/display"
	"github.com/smazurov/vitaview/internal/events"
	"github.com/smazurov/vitaview/internal/frame"
	"github.com/smazurov/vitaview/internal/logging"
	"github.com/smazurov/vitaview/internal/metrics"
	"github.com/smazurov/vitaview/internal/playback"
)

// Screen is the subset of tcell.Screen the sink draws on.
type Screen interface {
	Init() error
	Fini()
	Size() (int, int)
	Clear()
	Show()
	Sync()
	HideCursor()
	SetContent(x, y int, mainc rune, combc []rune, style tcell.Style)
	PollEvent() tcell.Event
	PostEvent(ev tcell.Event) error
}

// A 320x240 window at 8x16 pixel cells. Smaller terminals get a notice
// instead of video.
const (
	MinCols = 40
	MinRows = 15
)

const upperHalf = '▀'

var statusStyle = tcell.StyleDefault.Reverse(true)

// Sink draws onto a Screen. Present runs on the playback goroutine and Run
// on its own; mu serializes their use of the screen.
type Sink struct {
	screen Screen
	logger *slog.Logger

	mu         sync.Mutex
	fullscreen bool
	canvas     *image.RGBA
	status     status
	unsub      []func()
}

type status struct {
	mode       string
	camera     int
	resolution string
	mic        int
}

// NewSink initialises screen and subscribes to bus for the status line.
func NewSink(screen Screen, bus *events.Bus, logger *slog.Logger) (*Sink, error) {
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init terminal: %w", err)
	}
	screen.HideCursor()
	screen.Clear()

	s := &Sink{
		screen: screen,
		logger: logger,
		status: status{mode: "plain", camera: -1, mic: -1},
	}
	if bus != nil {
		s.unsub = append(s.unsub,
			bus.Subscribe(s.onMode),
			bus.Subscribe(s.onSwitch),
			bus.Subscribe(s.onResolution),
		)
	}
	return s, nil
}

// Close restores the terminal.
func (s *Sink) Close() {
	for _, u := range s.unsub {
		u()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.screen.Fini()
}

func (s *Sink) onMode(e events.ModeChangedEvent) {
	s.mu.Lock()
	s.status.mode = e.Mode
	s.mu.Unlock()
}

func (s *Sink) onSwitch(e events.DeviceSwitchedEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch e.Kind {
	case events.KindCamera:
		s.status.camera, s.status.resolution = e.Index, e.Resolution
	case events.KindMic:
		s.status.mic = e.Index
	}
}

func (s *Sink) onResolution(e events.ResolutionAppliedEvent) {
	s.mu.Lock()
	s.status.resolution = e.Applied
	s.mu.Unlock()
}

// SetFullscreen hides the status line and gives the video every row.
func (s *Sink) SetFullscreen(on bool) {
	s.mu.Lock()
	s.fullscreen = on
	s.mu.Unlock()
}

// Fullscreen implements display.Sink.
func (s *Sink) Fullscreen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fullscreen
}

// Size returns the video area in pixels: one per column, two per row.
func (s *Sink) Size() (w, h int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cols, rows := s.videoCells()
	return cols, rows * 2
}

func (s *Sink) videoCells() (cols, rows int) {
	cols, rows = s.screen.Size()
	if !s.fullscreen {
		rows--
	}
	return cols, max(rows, 0)
}

// Present letterboxes img into the video area and redraws the status line.
func (s *Sink) Present(img *frame.Frame, q display.Quality) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cols, rows := s.screen.Size()
	if cols < MinCols || rows < MinRows {
		s.screen.Clear()
		drawText(s.screen, 0, 0, cols, fmt.Sprintf("terminal too small (%dx%d, need %dx%d)", cols, rows, MinCols, MinRows), tcell.StyleDefault)
		s.screen.Show()
		return nil
	}

	vc, vr := s.videoCells()
	bounds := image.Rect(0, 0, vc, vr*2)
	if s.canvas == nil || s.canvas.Rect != bounds {
		s.canvas = image.NewRGBA(bounds)
	}
	display.Render(s.canvas, img, q)

	for y := range vr {
		top := s.canvas.Pix[2*y*s.canvas.Stride:]
		bottom := s.canvas.Pix[(2*y+1)*s.canvas.Stride:]
		for x := range vc {
			i := x * 4
			style := tcell.StyleDefault.
				Foreground(tcell.NewRGBColor(int32(top[i]), int32(top[i+1]), int32(top[i+2]))).
				Background(tcell.NewRGBColor(int32(bottom[i]), int32(bottom[i+1]), int32(bottom[i+2])))
			s.screen.SetContent(x, y, upperHalf, nil, style)
		}
	}

	if !s.fullscreen {
		last, _ := logging.Recent().Last(slog.LevelWarn)
		line := statusLine(s.status, metrics.Snapshot(), last, time.Now())
		drawText(s.screen, 0, rows-1, cols, line, statusStyle)
	}
	s.screen.Show()
	return nil
}

// Run forwards key presses to intents until the user quits or ctx is done.
// It returns nil in both cases.
func (s *Sink) Run(ctx context.Context, intents chan<- playback.Intent) error {
	go func() {
		<-ctx.Done()
		_ = s.screen.PostEvent(tcell.NewEventInterrupt(nil))
	}()

	for {
		ev := s.screen.PollEvent()
		switch ev := ev.(type) {
		case nil:
			return nil
		case *tcell.EventInterrupt:
			if ctx.Err() != nil {
				return nil
			}
		case *tcell.EventResize:
			s.mu.Lock()
			s.screen.Sync()
			s.mu.Unlock()
		case *tcell.EventKey:
			in, quit := Translate(ev)
			if quit {
				s.logger.Info("Quit requested")
				return nil
			}
			if in == nil {
				continue
			}
			select {
			case intents <- in:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// statusLine renders the bottom row. Recent warnings stay visible for ten
// seconds.
func statusLine(st status, stats metrics.Stats, last logging.Entry, now time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, " %s", st.mode)
	if st.camera >= 0 {
		fmt.Fprintf(&sb, " | cam %d %s", st.camera+1, st.resolution)
	} else {
		sb.WriteString(" | no camera")
	}
	if st.mic >= 0 {
		fmt.Fprintf(&sb, " | mic %d", st.mic+1)
	}
	fmt.Fprintf(&sb, " | %.1f fps | compose %s", stats.FPS, stats.Compose.Round(100*time.Microsecond))
	if !last.Time.IsZero() && now.Sub(last.Time) < 10*time.Second {
		sb.WriteString(" | ")
		sb.WriteString(last.Message)
	} else {
		sb.WriteString(" | ")
		sb.WriteString(Help)
	}
	return sb.String()
}

// drawText writes text on row y, padding or truncating it to width cells.
func drawText(screen Screen, x, y, width int, text string, style tcell.Style) {
	runes := []rune(text)
	for i := range width {
		r := ' '
		if i < len(runes) {
			r = runes[i]
		}
		screen.SetContent(x+i, y, r, nil, style)
	}
}
