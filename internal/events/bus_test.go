package events

import (
	"sync"
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan DeviceSwitchedEvent, 1)

	unsub := bus.Subscribe(func(e DeviceSwitchedEvent) {
		received <- e
	})
	defer unsub()

	bus.Publish(DeviceSwitchedEvent{Kind: KindCamera, Index: 1, Path: "/dev/video1", Resolution: "896x504"})

	select {
	case got := <-received:
		if got.Index != 1 || got.Resolution != "896x504" {
			t.Errorf("got %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	received := make(chan ModeChangedEvent, 1)

	unsub := bus.Subscribe(func(e ModeChangedEvent) {
		received <- e
	})

	bus.Publish(ModeChangedEvent{Mode: "upscaled"})
	<-received

	unsub()

	bus.Publish(ModeChangedEvent{Mode: "plain"})
	select {
	case <-received:
		t.Fatal("received event after unsubscribe")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestBus_TypeSafety(t *testing.T) {
	bus := New()
	hotplug := make(chan HotplugEvent, 1)
	diag := make(chan DiagnosticEvent, 1)

	defer bus.Subscribe(func(e HotplugEvent) { hotplug <- e })()
	defer bus.Subscribe(func(e DiagnosticEvent) { diag <- e })()

	bus.Publish(HotplugEvent{Action: "add", Node: "/dev/video2"})
	<-hotplug

	select {
	case <-diag:
		t.Fatal("diagnostic subscriber received a hotplug event")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestBus_UnknownHandler(t *testing.T) {
	bus := New()
	unsub := bus.Subscribe(func(string) {})
	unsub()

	var nilBus *Bus
	nilBus.Publish(ModeChangedEvent{})
}

func TestBus_ConcurrentPublish(t *testing.T) {
	bus := New()
	const goroutines, perGoroutine = 8, 50
	received := make(chan struct{}, goroutines*perGoroutine)

	defer bus.Subscribe(func(DeviceFailedEvent) { received <- struct{}{} })()

	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perGoroutine {
				bus.Publish(DeviceFailedEvent{Kind: KindMic, Index: 7})
			}
		}()
	}
	wg.Wait()

	for range goroutines * perGoroutine {
		select {
		case <-received:
		case <-time.After(2 * time.Second):
			t.Fatal("timeout waiting for events")
		}
	}
}

func TestSubscribeToChannel(t *testing.T) {
	bus := New()
	ch := make(chan any, 1)
	defer SubscribeToChannel[ResolutionAppliedEvent](bus, ch)()

	bus.Publish(ResolutionAppliedEvent{Requested: "960x544", Applied: "960x540"})

	select {
	case v := <-ch:
		e, ok := v.(ResolutionAppliedEvent)
		if !ok || e.Applied != "960x540" {
			t.Errorf("got %#v", v)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout")
	}
}
