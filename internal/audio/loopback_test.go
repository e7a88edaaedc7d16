package audio

import (
	"errors"
	"io"
	"log/slog"
	"slices"
	"testing"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeStream struct {
	done   chan struct{}
	closed int
}

func (s *fakeStream) Done() <-chan struct{} { return s.done }

func (s *fakeStream) Close() error {
	s.closed++
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	return nil
}

// fakeBackend opens any index in inputs and runs one block through cb.
type fakeBackend struct {
	inputs  map[int][]float32
	streams []*fakeStream
	heard   []float32
}

func (b *fakeBackend) OpenDuplex(input int, cfg StreamConfig, cb Callback) (Stream, error) {
	in, ok := b.inputs[input]
	if !ok {
		return nil, errors.New("no such pcm")
	}
	out := make([]float32, len(in))
	cb(in, out)
	b.heard = out

	s := &fakeStream{done: make(chan struct{})}
	b.streams = append(b.streams, s)
	return s, nil
}

func newBackend() *fakeBackend {
	return &fakeBackend{inputs: map[int][]float32{
		0: {0.1, 0.2, 0.3},
		1: {-1, 0, 1},
	}}
}

func TestPassthrough(t *testing.T) {
	in := []float32{0.5, -0.25, 1, -1}
	out := make([]float32, len(in))
	Passthrough(in, out)
	if !slices.Equal(in, out) {
		t.Errorf("out = %v, want %v", out, in)
	}

	allocs := testing.AllocsPerRun(100, func() { Passthrough(in, out) })
	if allocs != 0 {
		t.Errorf("Passthrough allocated %v times per call", allocs)
	}
}

func TestLoopbackStart(t *testing.T) {
	b := newBackend()
	l := NewLoopback(b, DefaultStreamConfig, discard)

	if err := l.Start(1); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !l.Running() || l.Input() != 1 {
		t.Errorf("Running=%v Input=%d", l.Running(), l.Input())
	}
	if !slices.Equal(b.heard, b.inputs[1]) {
		t.Errorf("output %v, want input copied", b.heard)
	}
}

func TestLoopbackSwitchStopsPrevious(t *testing.T) {
	b := newBackend()
	l := NewLoopback(b, DefaultStreamConfig, discard)
	if err := l.Start(0); err != nil {
		t.Fatal(err)
	}
	if err := l.Start(1); err != nil {
		t.Fatal(err)
	}
	if b.streams[0].closed != 1 {
		t.Errorf("first stream closed %d times, want 1", b.streams[0].closed)
	}
	if l.Input() != 1 {
		t.Errorf("Input = %d, want 1", l.Input())
	}
}

func TestLoopbackStartFailure(t *testing.T) {
	b := newBackend()
	l := NewLoopback(b, DefaultStreamConfig, discard)
	if err := l.Start(0); err != nil {
		t.Fatal(err)
	}

	err := l.Start(2)
	if !errors.Is(err, ErrDeviceUnavailable) {
		t.Fatalf("Start(2) = %v, want ErrDeviceUnavailable", err)
	}
	if l.Running() || l.Input() != -1 {
		t.Errorf("loopback still running on %d", l.Input())
	}
	if b.streams[0].closed != 1 {
		t.Error("previous stream left open")
	}
}

func TestLoopbackStopIdempotent(t *testing.T) {
	b := newBackend()
	l := NewLoopback(b, DefaultStreamConfig, discard)
	if err := l.Stop(); err != nil {
		t.Errorf("Stop on fresh loopback: %v", err)
	}
	if err := l.Start(0); err != nil {
		t.Fatal(err)
	}
	for range 2 {
		if err := l.Stop(); err != nil {
			t.Errorf("Stop: %v", err)
		}
	}
	if b.streams[0].closed != 1 {
		t.Errorf("stream closed %d times, want 1", b.streams[0].closed)
	}
}

func TestLoopbackRunningAfterStreamDied(t *testing.T) {
	b := newBackend()
	l := NewLoopback(b, DefaultStreamConfig, discard)
	if err := l.Start(0); err != nil {
		t.Fatal(err)
	}
	close(b.streams[0].done)
	if l.Running() {
		t.Error("Running = true after stream ended")
	}
}
