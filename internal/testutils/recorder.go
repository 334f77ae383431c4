package testutils

import (
	"sync"

	"corelab/internal/events"
	"corelab/pkg/coretypes"
)

// EventRecorder collects the events delivered to it, in delivery order.
type EventRecorder struct {
	mu     sync.Mutex
	events []coretypes.Event
}

// RecordEvents subscribes a new recorder to every given type on bus.
func RecordEvents(bus *events.Bus, types ...coretypes.EventType) *EventRecorder {
	r := &EventRecorder{}
	for _, t := range types {
		bus.Subscribe(t.Key(), r.handle)
	}
	return r
}

func (r *EventRecorder) handle(e coretypes.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *EventRecorder) Events() []coretypes.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]coretypes.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Keys returns the rendered keys of the recorded events.
func (r *EventRecorder) Keys() []string {
	evts := r.Events()
	keys := make([]string, len(evts))
	for i, e := range evts {
		keys[i] = e.Key()
	}
	return keys
}
