package led

import (
	"sync"

	"github.com/smazurov/vitaview/internal/events"
	"github.com/smazurov/vitaview/internal/logging"
)

// Manager drives the status LED from device events: solid while a camera
// is delivering, blinking while none is open.
type Manager struct {
	controller Controller
	eventBus   *events.Bus
	logger     logging.Logger
	unsub      []func()

	mu   sync.Mutex
	live bool
}

// NewManager creates a manager; call Start to begin reacting to events.
func NewManager(controller Controller, eventBus *events.Bus, logger logging.Logger) *Manager {
	return &Manager{
		controller: controller,
		eventBus:   eventBus,
		logger:     logger,
	}
}

// Start shows the idle pattern and subscribes to device events.
func (m *Manager) Start() {
	m.apply(false)
	m.unsub = []func(){
		m.eventBus.Subscribe(m.onSwitched),
		m.eventBus.Subscribe(m.onFailed),
	}
	m.logger.Debug("LED manager started")
}

// Stop unsubscribes and switches the LED off.
func (m *Manager) Stop() {
	for _, u := range m.unsub {
		u()
	}
	m.unsub = nil
	if err := m.controller.Set(RoleStatus, false, ""); err != nil {
		m.logger.Debug("Failed to switch status LED off", "error", err)
	}
}

func (m *Manager) onSwitched(e events.DeviceSwitchedEvent) {
	if e.Kind == events.KindCamera {
		m.apply(true)
	}
}

func (m *Manager) onFailed(e events.DeviceFailedEvent) {
	// A restored camera keeps the LED solid.
	if e.Kind == events.KindCamera && !e.Restored {
		m.apply(false)
	}
}

func (m *Manager) apply(live bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.live = live

	pattern := PatternBlink
	if live {
		pattern = PatternSolid
	}
	if err := m.controller.Set(RoleStatus, true, pattern); err != nil {
		m.logger.Warn("Failed to set status LED", "pattern", pattern, "error", err)
	}
}

// Live reports whether the LED currently shows an open camera.
func (m *Manager) Live() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live
}
