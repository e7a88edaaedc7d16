package api

import (
	"sync"

	"github.com/smazurov/vitaview/internal/api/models"
	"github.com/smazurov/vitaview/internal/events"
)

// statusTracker folds bus events into the state /api/status reports. The
// controller is single-goroutine, so the API never reads it directly.
type statusTracker struct {
	mu    sync.RWMutex
	state models.StatusData
	unsub []func()
}

func newStatusTracker(bus *events.Bus) *statusTracker {
	t := &statusTracker{
		state: models.StatusData{Mode: "plain", Camera: -1, Mic: -1},
	}
	if bus == nil {
		return t
	}
	t.unsub = []func(){
		bus.Subscribe(func(e events.ModeChangedEvent) {
			t.update(func(s *models.StatusData) { s.Mode = e.Mode })
		}),
		bus.Subscribe(func(e events.DeviceSwitchedEvent) {
			t.update(func(s *models.StatusData) {
				switch e.Kind {
				case events.KindCamera:
					s.Camera, s.Resolution = e.Index, e.Resolution
				case events.KindMic:
					s.Mic = e.Index
				}
			})
		}),
		bus.Subscribe(func(e events.DeviceFailedEvent) {
			t.update(func(s *models.StatusData) {
				s.LastError = e.Error
				if e.Kind == events.KindCamera && !e.Restored {
					s.Camera, s.Resolution = -1, ""
				}
				if e.Kind == events.KindMic {
					s.Mic = -1
				}
			})
		}),
		bus.Subscribe(func(e events.ResolutionAppliedEvent) {
			t.update(func(s *models.StatusData) { s.Resolution = e.Applied })
		}),
		bus.Subscribe(func(e events.DiagnosticEvent) {
			t.update(func(s *models.StatusData) { s.LastError = e.Code + ": " + e.Message })
		}),
	}
	return t
}

func (t *statusTracker) update(fn func(*models.StatusData)) {
	t.mu.Lock()
	fn(&t.state)
	t.mu.Unlock()
}

func (t *statusTracker) get() models.StatusData {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

func (t *statusTracker) close() {
	for _, u := range t.unsub {
		u()
	}
	t.unsub = nil
}
