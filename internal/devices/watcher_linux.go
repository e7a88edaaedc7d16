//go:build linux

package devices

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/smazurov/vitaview/internal/events"
	"github.com/smazurov/vitaview/pkg/linuxav/hotplug"
)

// Watcher refreshes a Registry on hotplug uevents and republishes them on
// the event bus.
type Watcher struct {
	registry *Registry
	bus      *events.Bus
	logger   *slog.Logger
	// Settle is how long to wait after an add before re-enumerating, so
	// udev has created the node and applied permissions.
	Settle time.Duration
}

// NewWatcher returns a watcher with a one second settle delay.
func NewWatcher(registry *Registry, bus *events.Bus, logger *slog.Logger) *Watcher {
	return &Watcher{registry: registry, bus: bus, logger: logger, Settle: time.Second}
}

// Run blocks until ctx is done or the netlink socket fails.
func (w *Watcher) Run(ctx context.Context) error {
	mon, err := hotplug.NewMonitor(hotplug.SubsystemVideo4Linux, hotplug.SubsystemSound)
	if err != nil {
		return fmt.Errorf("hotplug monitor: %w", err)
	}
	defer mon.Close()

	ch := make(chan hotplug.Event, 16)
	errCh := make(chan error, 1)
	go func() { errCh <- mon.Run(ctx, ch) }()

	w.logger.Info("Hotplug monitoring started")
	for ev := range ch {
		w.handle(ctx, ev)
	}
	w.logger.Info("Hotplug monitor stopped")
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (w *Watcher) handle(ctx context.Context, ev hotplug.Event) {
	if ev.Action != hotplug.ActionAdd && ev.Action != hotplug.ActionRemove {
		return
	}
	w.logger.Debug("Hotplug event", "action", ev.Action, "subsystem", ev.Subsystem, "node", ev.Node())

	w.bus.Publish(events.HotplugEvent{
		Action:    ev.Action,
		Subsystem: ev.Subsystem,
		Node:      ev.Node(),
		Timestamp: time.Now(),
	})

	if ev.Action == hotplug.ActionAdd && w.Settle > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(w.Settle):
		}
	}
	if err := w.registry.Refresh(); err != nil {
		w.logger.Warn("Device refresh failed", "error", err)
	}
}
