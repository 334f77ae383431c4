// Package events provides the in-process publish/subscribe bus apps use to
// announce state changes to each other.
//
// Delivery is synchronous and best-effort: Emit appends to the log, then calls
// the handlers that were subscribed at that moment. A Subscribe racing with an
// in-flight Emit on another goroutine may or may not observe that event.
// Nothing is persisted and nothing crosses the process boundary.
package events

import (
	"sync"

	"github.com/google/uuid"

	"corelab/internal/logger"
	"corelab/pkg/coretypes"
)

type subscription struct {
	id      coretypes.SubscriptionID
	handler coretypes.EventHandler
}

// Bus is the event dispatcher with an append-only history. Handlers and the
// log are guarded by separate locks so readers of one never wait on writers
// of the other.
type Bus struct {
	handlersMu sync.RWMutex
	handlers   map[string][]subscription
	keyByID    map[coretypes.SubscriptionID]string

	logMu sync.RWMutex
	log   []coretypes.Event
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[string][]subscription),
		keyByID:  make(map[coretypes.SubscriptionID]string),
	}
}

// Subscribe registers handler under the exact key (see coretypes.EventType.Key).
// Duplicate registrations are kept and all fire, in registration order.
func (b *Bus) Subscribe(key string, handler coretypes.EventHandler) coretypes.SubscriptionID {
	id := coretypes.SubscriptionID(uuid.New().String())

	b.handlersMu.Lock()
	b.handlers[key] = append(b.handlers[key], subscription{id: id, handler: handler})
	b.keyByID[id] = key
	b.handlersMu.Unlock()

	logger.Debug("Event subscription added", "event", key, "subscription", id)
	return id
}

// Unsubscribe removes one subscription. It reports whether id was known.
func (b *Bus) Unsubscribe(id coretypes.SubscriptionID) bool {
	b.handlersMu.Lock()
	defer b.handlersMu.Unlock()

	key, ok := b.keyByID[id]
	if !ok {
		return false
	}
	delete(b.keyByID, id)

	subs := b.handlers[key]
	kept := make([]subscription, 0, len(subs))
	for _, s := range subs {
		if s.id != id {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		delete(b.handlers, key)
	} else {
		b.handlers[key] = kept
	}

	logger.Debug("Event subscription removed", "event", key, "subscription", id)
	return true
}

// Emit logs a copy of evt and dispatches it to the handlers of its key.
// Each handler receives its own copy of Data, so nothing a handler or the
// caller does afterwards changes the logged event.
//
// A panicking handler is not recovered: the panic leaves Emit and the
// remaining handlers of this call do not run. The event stays logged.
func (b *Bus) Emit(evt coretypes.Event) {
	key := evt.Type.Key()

	b.logMu.Lock()
	b.log = append(b.log, evt.Clone())
	b.logMu.Unlock()

	// Dispatch from a snapshot so handlers may subscribe or emit.
	b.handlersMu.RLock()
	subs := b.handlers[key]
	snapshot := make([]subscription, len(subs))
	copy(snapshot, subs)
	b.handlersMu.RUnlock()

	logger.EventDispatch(key, evt.Source, len(snapshot))

	for _, s := range snapshot {
		s.handler(evt.Clone())
	}
}

// GetLog returns copies of up to limit of the most recent events, newest
// first.
func (b *Bus) GetLog(limit int) []coretypes.Event {
	if limit <= 0 {
		return []coretypes.Event{}
	}

	b.logMu.RLock()
	defer b.logMu.RUnlock()

	n := len(b.log)
	if limit > n {
		limit = n
	}
	out := make([]coretypes.Event, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, b.log[i].Clone())
	}
	return out
}

// Len returns the number of logged events.
func (b *Bus) Len() int {
	b.logMu.RLock()
	defer b.logMu.RUnlock()
	return len(b.log)
}

// SubscriberCount returns how many handlers are registered under key.
func (b *Bus) SubscriberCount(key string) int {
	b.handlersMu.RLock()
	defer b.handlersMu.RUnlock()
	return len(b.handlers[key])
}
