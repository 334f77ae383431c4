// Package memory is the built-in app that turns conversations into memories.
//
// On every ConversationCreated event it asks the active provider to extract
// facts from the conversation text, stores them for the person and emits
// MemoryExtracted.
package memory

import (
	"context"
	"sync"
	"time"

	"corelab/internal/events"
	"corelab/internal/logger"
	"corelab/internal/version"
	"corelab/pkg/coretypes"
)

// AppID is the registry id of the memory app.
const AppID = "memory"

// DefaultTimeout bounds one extraction when none is configured.
const DefaultTimeout = 60 * time.Second

// App extracts and stores memories from new conversations.
type App struct {
	store    coretypes.Store
	provider coretypes.AIProvider
	timeout  time.Duration

	mu    sync.Mutex
	subID coretypes.SubscriptionID
}

// New creates the memory app.
func New(store coretypes.Store, provider coretypes.AIProvider, timeout time.Duration) *App {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &App{store: store, provider: provider, timeout: timeout}
}

// Info describes the app for the registry.
func (a *App) Info() coretypes.AppInfo {
	return coretypes.AppInfo{
		ID:          AppID,
		Name:        "Memory",
		Version:     version.GetBaseVersion(),
		Description: "Extracts durable facts about people from conversation notes",
	}
}

// Start subscribes to ConversationCreated.
func (a *App) Start(bus *events.Bus) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.subID = bus.Subscribe(coretypes.ConversationCreated.Key(), func(evt coretypes.Event) {
		a.handleConversation(bus, evt)
	})
	return nil
}

// Stop removes the subscription.
func (a *App) Stop(bus *events.Bus) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.subID != "" {
		bus.Unsubscribe(a.subID)
		a.subID = ""
	}
}

func (a *App) handleConversation(bus *events.Bus, evt coretypes.Event) {
	personID, ok := int64Field(evt.Data, "person_id")
	if !ok {
		logger.Warn("Conversation event without person id", "app", AppID)
		return
	}
	content, _ := evt.Data["content"].(string)
	conversationID, _ := int64Field(evt.Data, "conversation_id")

	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	ids, err := a.ExtractAndStore(ctx, personID, content)
	if err != nil && len(ids) == 0 {
		logger.Warn("Memory extraction skipped", "app", AppID, "person_id", personID, "error", err)
		return
	}

	data := map[string]any{
		"person_id":       personID,
		"conversation_id": conversationID,
		"memory_ids":      ids,
		"count":           len(ids),
	}
	if err != nil {
		// Some memories were stored before the failure; announce those.
		logger.Warn("Memory storage incomplete", "app", AppID, "person_id", personID, "stored", len(ids), "error", err)
		data["error"] = err.Error()
	}
	bus.Emit(coretypes.NewEvent(coretypes.MemoryExtracted, AppID, data))
}

// ExtractAndStore runs extraction on text and stores every memory for the
// person. It returns the new memory ids. A store failure stops at that
// memory; earlier ones stay stored.
func (a *App) ExtractAndStore(ctx context.Context, personID int64, text string) ([]int64, error) {
	extracted, err := a.provider.ExtractMemories(ctx, text)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(extracted))
	for _, m := range extracted {
		id, err := a.store.CreateMemory(ctx, personID, m.Key, m.Value, m.Importance)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}

	logger.Debug("Memories stored", "app", AppID, "person_id", personID, "count", len(ids))
	return ids, nil
}

func int64Field(data map[string]any, key string) (int64, bool) {
	switch v := data[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
