// Package metrics provides Prometheus metrics for the frame and audio pipelines.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Skip reasons for SkipTick.
const (
	SkipNoDevice = "no_device"
	SkipNoFrame  = "no_frame"
	SkipCompose  = "compose"
)

var (
	ticks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "vitaview",
		Subsystem: "playback",
		Name:      "ticks_total",
		Help:      "Timer ticks handled by the playback loop",
	})

	ticksSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vitaview",
		Subsystem: "playback",
		Name:      "ticks_skipped_total",
		Help:      "Ticks that presented nothing, by reason",
	}, []string{"reason"})

	framesPresented = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "vitaview",
		Subsystem: "playback",
		Name:      "frames_presented_total",
		Help:      "Frames handed to the display sink",
	})

	composeSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "vitaview",
		Subsystem: "compositor",
		Name:      "compose_seconds",
		Help:      "Time spent converting and compositing one frame",
		Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.02, 0.03, 0.05, 0.1},
	}, []string{"mode"})

	deviceSwitches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vitaview",
		Subsystem: "devices",
		Name:      "switches_total",
		Help:      "Camera and mic switch attempts, by outcome",
	}, []string{"kind", "result"})

	audioXruns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vitaview",
		Subsystem: "audio",
		Name:      "xruns_total",
		Help:      "Capture overruns and playback underruns",
	}, []string{"direction"})

	// Local snapshot for the terminal status line.
	statsMu sync.Mutex
	stats   Stats
	window  = rateWindow{span: 2 * time.Second}
)

// Stats is a point-in-time view of the pipeline counters.
type Stats struct {
	Ticks     uint64
	Presented uint64
	Skipped   uint64
	FPS       float64
	Compose   time.Duration // last compose duration
}

// Tick counts one timer tick.
func Tick() {
	ticks.Inc()
	statsMu.Lock()
	stats.Ticks++
	statsMu.Unlock()
}

// SkipTick counts a tick that presented nothing.
func SkipTick(reason string) {
	ticksSkipped.WithLabelValues(reason).Inc()
	statsMu.Lock()
	stats.Skipped++
	statsMu.Unlock()
}

// FramePresented counts a presented frame and feeds the FPS estimate.
func FramePresented(now time.Time) {
	framesPresented.Inc()
	statsMu.Lock()
	stats.Presented++
	stats.FPS = window.add(now)
	statsMu.Unlock()
}

// ObserveCompose records how long one Compose call took.
func ObserveCompose(mode string, d time.Duration) {
	composeSeconds.WithLabelValues(mode).Observe(d.Seconds())
	statsMu.Lock()
	stats.Compose = d
	statsMu.Unlock()
}

// DeviceSwitch counts a switch attempt; kind is "camera" or "mic".
func DeviceSwitch(kind string, ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	deviceSwitches.WithLabelValues(kind, result).Inc()
}

// AudioXrun counts an overrun ("capture") or underrun ("playback").
func AudioXrun(direction string) {
	audioXruns.WithLabelValues(direction).Inc()
}

// Snapshot returns the current local stats.
func Snapshot() Stats {
	statsMu.Lock()
	defer statsMu.Unlock()
	return stats
}

// rateWindow estimates events per second over a sliding span.
type rateWindow struct {
	span  time.Duration
	times []time.Time
}

func (w *rateWindow) add(now time.Time) float64 {
	w.times = append(w.times, now)
	cutoff := now.Add(-w.span)
	i := 0
	for i < len(w.times) && w.times[i].Before(cutoff) {
		i++
	}
	w.times = append(w.times[:0], w.times[i:]...)
	if len(w.times) < 2 {
		return 0
	}
	elapsed := w.times[len(w.times)-1].Sub(w.times[0]).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(len(w.times)-1) / elapsed
}
