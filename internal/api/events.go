package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/smazurov/vitaview/internal/events"
)

// registerEventRoutes exposes the bus as a Server-Sent Events stream.
func (s *Server) registerEventRoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Device switches and failures, mode and resolution changes, hotplug and diagnostics",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"device-switched":    events.DeviceSwitchedEvent{},
		"device-failed":      events.DeviceFailedEvent{},
		"mode-changed":       events.ModeChangedEvent{},
		"resolution-applied": events.ResolutionAppliedEvent{},
		"hotplug":            events.HotplugEvent{},
		"diagnostic":         events.DiagnosticEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		bus := s.options.Bus
		if bus == nil {
			<-ctx.Done()
			return
		}

		eventCh := make(chan any, 16)
		unsubscribers := []func(){
			events.SubscribeToChannel[events.DeviceSwitchedEvent](bus, eventCh),
			events.SubscribeToChannel[events.DeviceFailedEvent](bus, eventCh),
			events.SubscribeToChannel[events.ModeChangedEvent](bus, eventCh),
			events.SubscribeToChannel[events.ResolutionAppliedEvent](bus, eventCh),
			events.SubscribeToChannel[events.HotplugEvent](bus, eventCh),
			events.SubscribeToChannel[events.DiagnosticEvent](bus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-eventCh:
				if err := send.Data(ev); err != nil {
					return
				}
			}
		}
	})
}
