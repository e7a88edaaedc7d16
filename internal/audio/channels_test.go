package audio

import (
	"slices"
	"testing"
)

func TestUpmix(t *testing.T) {
	tests := []struct {
		name string
		src  []float32
		ch   int
		dst  int
		want []float32
	}{
		{"mono", []float32{0.1, -0.2}, 1, 2, []float32{0.1, -0.2}},
		{"stereo", []float32{0.1, -0.2, 0.3}, 2, 6, []float32{0.1, 0.1, -0.2, -0.2, 0.3, 0.3}},
		{"short dst", []float32{0.1, -0.2, 0.3}, 2, 4, []float32{0.1, 0.1, -0.2, -0.2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := make([]float32, tt.dst)
			n := Upmix(dst, tt.src, tt.ch)
			if got := dst[:n*tt.ch]; !slices.Equal(got, tt.want) {
				t.Errorf("Upmix = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDownmix(t *testing.T) {
	tests := []struct {
		name string
		src  []float32
		ch   int
		want []float32
	}{
		{"mono", []float32{0.5, -0.5}, 1, []float32{0.5, -0.5}},
		{"stereo", []float32{0.5, 0.25, -1, 1, 0.5, 0.5}, 2, []float32{0.375, 0, 0.5}},
		{"partial frame dropped", []float32{0.5, 0.5, 1}, 2, []float32{0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := make([]float32, 8)
			n := Downmix(dst, tt.src, tt.ch)
			if got := dst[:n]; !slices.Equal(got, tt.want) {
				t.Errorf("Downmix = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChannelConversionDoesNotAllocate(t *testing.T) {
	mono := make([]float32, 512)
	stereo := make([]float32, 1024)
	allocs := testing.AllocsPerRun(100, func() {
		Downmix(mono, stereo, 2)
		Upmix(stereo, mono, 2)
	})
	if allocs != 0 {
		t.Errorf("allocs per block = %v, want 0", allocs)
	}
}
