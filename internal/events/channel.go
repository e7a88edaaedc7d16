package events

import "github.com/kelindar/event"

// SubscribeToChannel forwards events of type T into ch so they can be
// consumed from a select loop. Events are dropped when ch is full.
func SubscribeToChannel[T Event](bus *Bus, ch chan<- any) func() {
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
		}
	})
}
