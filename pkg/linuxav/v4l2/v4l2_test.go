//go:build linux && (amd64 || arm64)

package v4l2

import (
	"encoding/binary"
	"math"
	"testing"

	"golang.org/x/sys/unix"
)

func TestFormatFourCC(t *testing.T) {
	tests := []struct {
		name     string
		format   uint32
		expected string
	}{
		{"YUYV", PixFmtYUYV, "YUYV"},
		{"MJPEG", PixFmtMJPEG, "MJPG"},
		{"RGB24", PixFmtRGB24, "RGB3"},
		{"BGR24", PixFmtBGR24, "BGR3"},
		{"JPEG", PixFmtJPEG, "JPEG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatFourCC(tt.format); got != tt.expected {
				t.Errorf("FormatFourCC(0x%08x) = %q, want %q", tt.format, got, tt.expected)
			}
		})
	}
}

func TestFramerateFPS(t *testing.T) {
	tests := []struct {
		name     string
		rate     Framerate
		expected float64
	}{
		{"30 fps", Framerate{1, 30}, 30},
		{"NTSC", Framerate{1001, 30000}, 29.97},
		{"zero numerator", Framerate{0, 30}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rate.FPS(); math.Abs(got-tt.expected) > 0.01 {
				t.Errorf("FPS() = %f, want %f", got, tt.expected)
			}
		})
	}
}

func makeTimings(width, height uint32, clock uint64, hfp, hs, hbp, vfp, vs, vbp uint32, interlaced bool) *v4l2DVTimings {
	t := &v4l2DVTimings{}
	put := func(off int, v uint32) { binary.LittleEndian.PutUint32(t.raw[4+off:], v) }
	put(0, width)
	put(4, height)
	if interlaced {
		put(8, 1)
	}
	binary.LittleEndian.PutUint64(t.raw[4+16:], clock)
	put(24, hfp)
	put(28, hs)
	put(32, hbp)
	put(36, vfp)
	put(40, vs)
	put(44, vbp)
	return t
}

func TestCalculateFPS(t *testing.T) {
	tests := []struct {
		name     string
		timings  *v4l2DVTimings
		expected float64
	}{
		{"1920x1080p60", makeTimings(1920, 1080, 148500000, 88, 44, 148, 4, 5, 36, false), 60},
		{"1280x720p60", makeTimings(1280, 720, 74250000, 110, 40, 220, 5, 5, 20, false), 60},
		{"no clock", makeTimings(1920, 1080, 0, 88, 44, 148, 4, 5, 36, false), 0},
		{"zero geometry", makeTimings(0, 0, 74250000, 0, 0, 0, 0, 0, 0, false), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := calculateFPS(tt.timings); math.Abs(got-tt.expected) > 0.01 {
				t.Errorf("calculateFPS() = %f, want %f", got, tt.expected)
			}
		})
	}
}

func TestDVTimingsAccessors(t *testing.T) {
	timings := makeTimings(1280, 720, 74250000, 110, 40, 220, 5, 5, 20, true)

	if timings.width() != 1280 || timings.height() != 720 {
		t.Errorf("size = %dx%d, want 1280x720", timings.width(), timings.height())
	}
	if !timings.interlaced() {
		t.Error("interlaced() = false, want true")
	}
	if timings.pixelclock() != 74250000 {
		t.Errorf("pixelclock() = %d", timings.pixelclock())
	}
	w, h := timings.totals()
	if w != 1650 || h != 750 {
		t.Errorf("totals() = %dx%d, want 1650x750", w, h)
	}
}

func TestSignalStateFromErrno(t *testing.T) {
	tests := []struct {
		err      error
		expected SignalState
	}{
		{unix.ENOLINK, SignalStateNoLink},
		{unix.ENOLCK, SignalStateUnstable},
		{unix.ERANGE, SignalStateOutOfRange},
		{unix.ENOTTY, SignalStateNotSupported},
		{unix.EIO, SignalStateNoSignal},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := signalStateFromErrno(tt.err); got != tt.expected {
				t.Errorf("signalStateFromErrno(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestStepwiseResolutions(t *testing.T) {
	s := &v4l2FrmsizeStepwise{
		minWidth: 320, maxWidth: 960, stepWidth: 16,
		minHeight: 240, maxHeight: 544, stepHeight: 8,
	}

	got := stepwiseResolutions(s)
	want := []Resolution{{480, 272}, {896, 504}, {960, 544}, {640, 480}}
	if len(got) != len(want) {
		t.Fatalf("stepwiseResolutions() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("resolution %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestNodeNumber(t *testing.T) {
	if got := nodeNumber("video12"); got != 12 {
		t.Errorf("nodeNumber(video12) = %d", got)
	}
	if got := nodeNumber("video"); got < 1<<30 {
		t.Errorf("nodeNumber(video) = %d, want to sort last", got)
	}
}

func TestCstr(t *testing.T) {
	if got := cstr([]byte{'u', 'v', 'c', 0, 'x'}); got != "uvc" {
		t.Errorf("cstr() = %q, want uvc", got)
	}
	if got := cstr([]byte("plain")); got != "plain" {
		t.Errorf("cstr() = %q, want plain", got)
	}
}

func TestPixFormatLayout(t *testing.T) {
	f := v4l2Format{typ: bufTypeVideoCapture}
	f.pix().width = 896
	f.pix().height = 504
	if got := binary.LittleEndian.Uint32(f.fmt[0:]); got != 896 {
		t.Errorf("width at union offset 0 = %d, want 896", got)
	}
	if got := binary.LittleEndian.Uint32(f.fmt[4:]); got != 504 {
		t.Errorf("height at union offset 4 = %d, want 504", got)
	}
}
