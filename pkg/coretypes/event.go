package coretypes

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

type eventKind uint8

const (
	kindCustom eventKind = iota
	kindPersonCreated
	kindPersonUpdated
	kindConversationCreated
	kindMemoryExtracted
	kindAIRequestCompleted
)

var kindNames = map[eventKind]string{
	kindPersonCreated:       "PersonCreated",
	kindPersonUpdated:       "PersonUpdated",
	kindConversationCreated: "ConversationCreated",
	kindMemoryExtracted:     "MemoryExtracted",
	kindAIRequestCompleted:  "AIRequestCompleted",
}

// EventType is a tagged variant over the built-in event kinds plus an open
// custom case. The zero value is Custom("").
type EventType struct {
	kind eventKind
	name string
}

// Built-in event types.
var (
	PersonCreated       = EventType{kind: kindPersonCreated}
	PersonUpdated       = EventType{kind: kindPersonUpdated}
	ConversationCreated = EventType{kind: kindConversationCreated}
	MemoryExtracted     = EventType{kind: kindMemoryExtracted}
	AIRequestCompleted  = EventType{kind: kindAIRequestCompleted}
)

// Custom returns an app-defined event type. Two custom types with the same
// name render to the same key and therefore share subscribers.
func Custom(name string) EventType {
	return EventType{kind: kindCustom, name: name}
}

// IsCustom reports whether t is the open extension case.
func (t EventType) IsCustom() bool {
	return t.kind == kindCustom
}

// CustomName returns the wrapped name of a custom type, or "" for built-ins.
func (t EventType) CustomName() string {
	return t.name
}

// Key returns the subscription key for t: the bare variant name for built-in
// types and Custom("name") for the custom case.
func (t EventType) Key() string {
	if t.kind == kindCustom {
		return "Custom(" + strconv.Quote(t.name) + ")"
	}
	return kindNames[t.kind]
}

// String implements fmt.Stringer.
func (t EventType) String() string {
	return t.Key()
}

// MarshalText renders t as its subscription key.
func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.Key()), nil
}

// UnmarshalText parses a subscription key back into an EventType.
func (t *EventType) UnmarshalText(text []byte) error {
	parsed, err := ParseEventType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseEventType is the inverse of EventType.Key.
func ParseEventType(key string) (EventType, error) {
	for kind, name := range kindNames {
		if key == name {
			return EventType{kind: kind}, nil
		}
	}
	if strings.HasPrefix(key, "Custom(") && strings.HasSuffix(key, ")") {
		inner := key[len("Custom(") : len(key)-1]
		name, err := strconv.Unquote(inner)
		if err != nil {
			return EventType{}, fmt.Errorf("invalid custom event key %q: %w", key, err)
		}
		return Custom(name), nil
	}
	return EventType{}, fmt.Errorf("unknown event type %q", key)
}

// Event is an immutable record of a state change announced by a module.
// Handlers receive it by value and must treat Data as read-only.
type Event struct {
	Type      EventType      `json:"event_type" yaml:"event_type"`
	Source    string         `json:"source" yaml:"source"`
	Data      map[string]any `json:"data" yaml:"data"`
	Timestamp time.Time      `json:"timestamp" yaml:"timestamp"`
}

// NewEvent creates a timestamped event.
func NewEvent(eventType EventType, source string, data map[string]any) Event {
	return Event{
		Type:      eventType,
		Source:    source,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// Clone returns a copy of e whose Data shares no maps or slices with e.
func (e Event) Clone() Event {
	e.Data = cloneMap(e.Data)
	return e
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

// cloneValue deep-copies the container types event payloads use. Other
// values are returned as is.
func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case []int64:
		return slices.Clone(val)
	case []int:
		return slices.Clone(val)
	case []string:
		return slices.Clone(val)
	case []byte:
		return slices.Clone(val)
	default:
		return v
	}
}

// Key is shorthand for e.Type.Key().
func (e Event) Key() string {
	return e.Type.Key()
}

// EventHandler is invoked synchronously by the bus, possibly from any
// goroutine. State captured by the closure must be safe for concurrent use.
type EventHandler func(Event)

// SubscriptionID identifies one Subscribe call so it can be removed later.
type SubscriptionID string
