//go:build linux && (amd64 || arm64)

package alsa

import (
	"math"
	"testing"
)

func TestFormatALSADevice(t *testing.T) {
	tests := []struct {
		card, device int
		want         string
	}{
		{0, 0, "hw:0,0"},
		{0, 1, "hw:0,1"},
		{2, 0, "hw:2,0"},
		{10, 5, "hw:10,5"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatALSADevice(tt.card, tt.device); got != tt.want {
				t.Errorf("FormatALSADevice(%d, %d) = %q, want %q", tt.card, tt.device, got, tt.want)
			}
		})
	}
}

func TestParseALSADevice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantCard   int
		wantDevice int
		wantErr    bool
	}{
		{name: "first device", input: "hw:0,0"},
		{name: "usb card", input: "hw:3,1", wantCard: 3, wantDevice: 1},
		{name: "missing device", input: "hw:1", wantErr: true},
		{name: "plugin name", input: "default", wantErr: true},
		{name: "negative card", input: "hw:-1,0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card, device, err := ParseALSADevice(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseALSADevice(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if card != tt.wantCard || device != tt.wantDevice {
				t.Errorf("ParseALSADevice(%q) = %d,%d, want %d,%d", tt.input, card, device, tt.wantCard, tt.wantDevice)
			}
		})
	}
}

func TestFormatName(t *testing.T) {
	tests := []struct {
		format int
		want   string
	}{
		{FormatS16LE, "S16_LE"},
		{FormatS24LE, "S24_LE"},
		{FormatFloatLE, "FLOAT_LE"},
		{FormatFloat64BE, "FLOAT64_BE"},
		{FormatMuLaw, "MU_LAW"},
		{18, "UNKNOWN"},
		{-1, "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatName(tt.format); got != tt.want {
				t.Errorf("FormatName(%d) = %q, want %q", tt.format, got, tt.want)
			}
		})
	}
}

func TestPCMPath(t *testing.T) {
	if got := pcmPath(1, 0, StreamCapture); got != "/dev/snd/pcmC1D0c" {
		t.Errorf("capture path = %q", got)
	}
	if got := pcmPath(0, 3, StreamPlayback); got != "/dev/snd/pcmC0D3p" {
		t.Errorf("playback path = %q", got)
	}
	if StreamName(StreamCapture) != "capture" || StreamName(StreamPlayback) != "playback" {
		t.Error("unexpected stream names")
	}
}

func TestHwParamsMasks(t *testing.T) {
	hw := sndPCMHwParams{}
	hw.init()

	if !hw.checkMask(sndrvPCMHwParamFormat, FormatS16LE) {
		t.Fatal("init should leave every format open")
	}

	hw.setMask(sndrvPCMHwParamFormat, FormatFloatLE)
	if !hw.checkMask(sndrvPCMHwParamFormat, FormatFloatLE) {
		t.Error("FLOAT_LE should be set")
	}
	if hw.checkMask(sndrvPCMHwParamFormat, FormatS16LE) {
		t.Error("S16_LE should be cleared after setMask")
	}

	hw.setInterval(sndrvPCMHwParamRate, 44100)
	lo, hi := hw.getInterval(sndrvPCMHwParamRate)
	if lo != 44100 || hi != 44100 {
		t.Errorf("rate interval = [%d, %d], want [44100, 44100]", lo, hi)
	}
	if hw.intervals[sndrvPCMHwParamRate-sndrvPCMHwParamFirstInterval].flags&intervalInteger == 0 {
		t.Error("rate interval should be marked integer")
	}
}

func TestSampleConversion(t *testing.T) {
	src := []float32{0, 0.5, -0.5, 1, -1, 2, -2}
	s16 := make([]int16, len(src))
	Float32ToS16(s16, src)

	want := []int16{0, 16384, -16384, math.MaxInt16, math.MinInt16, math.MaxInt16, math.MinInt16}
	for i := range want {
		if s16[i] != want[i] {
			t.Errorf("Float32ToS16[%d] = %d, want %d", i, s16[i], want[i])
		}
	}

	back := make([]float32, len(s16))
	S16ToFloat32(back, s16)
	if back[1] != 0.5 || back[2] != -0.5 || back[4] != -1 {
		t.Errorf("S16ToFloat32 = %v", back)
	}
}
