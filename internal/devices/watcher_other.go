//go:build !linux

package devices

import (
	"context"
	"log/slog"
	"time"

	"github.com/smazurov/vitaview/internal/events"
)

// Watcher is a no-op where netlink uevents do not exist.
type Watcher struct {
	logger *slog.Logger
	Settle time.Duration
}

// NewWatcher returns a watcher whose Run waits for ctx.
func NewWatcher(_ *Registry, _ *events.Bus, logger *slog.Logger) *Watcher {
	return &Watcher{logger: logger}
}

// Run blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("Hotplug monitoring not supported on this platform")
	<-ctx.Done()
	return nil
}
