package commands

import (
	"context"
	"sort"
	"strings"
	"time"

	"corelab/internal/ai"
	"corelab/internal/events"
	"corelab/internal/logger"
	"corelab/internal/registry"
	"corelab/pkg/coretypes"
)

// EventSource is the Source of every event the command layer emits.
const EventSource = "core"

// DefaultAITimeout bounds provider calls when Deps.AITimeout is zero.
const DefaultAITimeout = 60 * time.Second

// Deps are the services the command layer operates on. The host builds them
// once and passes them in.
type Deps struct {
	Store     coretypes.Store
	Bus       *events.Bus
	Registry  *registry.Registry
	Provider  coretypes.AIProvider
	AITimeout time.Duration
}

// Core is the operation surface shared by the RPC server and the CLI. Each
// mutating operation writes to the store first, then emits the matching event.
// Every returned error is a *CommandError.
type Core struct {
	store     coretypes.Store
	bus       *events.Bus
	registry  *registry.Registry
	provider  coretypes.AIProvider
	aiTimeout time.Duration
}

// New creates a Core.
func New(deps Deps) *Core {
	timeout := deps.AITimeout
	if timeout <= 0 {
		timeout = DefaultAITimeout
	}
	return &Core{
		store:     deps.Store,
		bus:       deps.Bus,
		registry:  deps.Registry,
		provider:  deps.Provider,
		aiTimeout: timeout,
	}
}

// Bus returns the event bus the core emits on.
func (c *Core) Bus() *events.Bus {
	return c.bus
}

// Registry returns the app registry.
func (c *Core) Registry() *registry.Registry {
	return c.registry
}

// Provider returns the active AI provider.
func (c *Core) Provider() coretypes.AIProvider {
	return c.provider
}

func (c *Core) emit(t coretypes.EventType, data map[string]any) {
	c.bus.Emit(coretypes.NewEvent(t, EventSource, data))
}

// GetPersons lists active persons.
func (c *Core) GetPersons(ctx context.Context) ([]coretypes.Person, error) {
	persons, err := c.store.ListActivePersons(ctx)
	if err != nil {
		return nil, AsCommandError(err)
	}
	return persons, nil
}

// GetPerson returns one person by id, active or not.
func (c *Core) GetPerson(ctx context.Context, id int64) (coretypes.Person, error) {
	p, err := c.store.GetPerson(ctx, id)
	if err != nil {
		return coretypes.Person{}, AsCommandError(err)
	}
	return p, nil
}

// CreatePerson stores a new person and emits PersonCreated.
func (c *Core) CreatePerson(ctx context.Context, name string, notes *string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, validationError("person name is required")
	}

	id, err := c.store.CreatePerson(ctx, name, notes)
	if err != nil {
		return 0, AsCommandError(err)
	}

	logger.ServiceOperation("commands", "create_person", "person_id", id)
	c.emit(coretypes.PersonCreated, map[string]any{"person_id": id, "name": name})
	return id, nil
}

// UpdatePerson overwrites a person and emits PersonUpdated.
func (c *Core) UpdatePerson(ctx context.Context, id int64, name string, notes *string, isActive bool) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return validationError("person name is required")
	}

	if err := c.store.UpdatePerson(ctx, id, name, notes, isActive); err != nil {
		return AsCommandError(err)
	}

	logger.ServiceOperation("commands", "update_person", "person_id", id)
	c.emit(coretypes.PersonUpdated, map[string]any{"person_id": id, "name": name, "is_active": isActive})
	return nil
}

// GetConversations lists a person's conversations, newest first.
func (c *Core) GetConversations(ctx context.Context, personID int64) ([]coretypes.Conversation, error) {
	convs, err := c.store.ListConversations(ctx, personID)
	if err != nil {
		return nil, AsCommandError(err)
	}
	return convs, nil
}

// CreateConversation stores a conversation and emits ConversationCreated.
// Subscribers such as the memory app run before this returns.
func (c *Core) CreateConversation(ctx context.Context, personID int64, content string, convContext *string) (int64, error) {
	if strings.TrimSpace(content) == "" {
		return 0, validationError("conversation content is required")
	}

	id, err := c.store.CreateConversation(ctx, personID, content, convContext)
	if err != nil {
		return 0, AsCommandError(err)
	}

	logger.ServiceOperation("commands", "create_conversation", "person_id", personID, "conversation_id", id)
	c.emit(coretypes.ConversationCreated, map[string]any{
		"conversation_id": id,
		"person_id":       personID,
		"content":         content,
	})
	return id, nil
}

// GetMemories lists a person's memories, most important first.
func (c *Core) GetMemories(ctx context.Context, personID int64) ([]coretypes.Memory, error) {
	memories, err := c.store.ListMemories(ctx, personID)
	if err != nil {
		return nil, AsCommandError(err)
	}
	return memories, nil
}

// CreateMemory stores a memory entered by hand.
func (c *Core) CreateMemory(ctx context.Context, personID int64, key, value string, importance int) (int64, error) {
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if key == "" || value == "" {
		return 0, validationError("memory key and value are required")
	}
	if importance < ai.MinImportance || importance > ai.MaxImportance {
		return 0, validationError("importance must be between %d and %d, got %d", ai.MinImportance, ai.MaxImportance, importance)
	}

	id, err := c.store.CreateMemory(ctx, personID, key, value, importance)
	if err != nil {
		return 0, AsCommandError(err)
	}
	logger.ServiceOperation("commands", "create_memory", "person_id", personID, "memory_id", id)
	return id, nil
}

// ExtractMemories runs extraction on text with the active provider and
// emits AIRequestCompleted. Nothing is stored.
func (c *Core) ExtractMemories(ctx context.Context, text string) ([]coretypes.ExtractedMemory, error) {
	ctx, cancel := context.WithTimeout(ctx, c.aiTimeout)
	defer cancel()

	memories, err := c.provider.ExtractMemories(ctx, text)
	if err != nil {
		logger.Warn("Memory extraction failed", "provider", c.provider.Name(), "error", err)
		return nil, AsCommandError(err)
	}

	c.emit(coretypes.AIRequestCompleted, map[string]any{
		"provider":  c.provider.Name(),
		"operation": "extract_memories",
		"count":     len(memories),
	})
	return memories, nil
}

// Complete sends a one-shot completion to the active provider and emits
// AIRequestCompleted.
func (c *Core) Complete(ctx context.Context, req coretypes.AIRequest) (coretypes.AIResponse, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return coretypes.AIResponse{}, validationError("prompt is required")
	}

	ctx, cancel := context.WithTimeout(ctx, c.aiTimeout)
	defer cancel()

	resp, err := c.provider.Complete(ctx, req)
	if err != nil {
		logger.Warn("Completion failed", "provider", c.provider.Name(), "error", err)
		return coretypes.AIResponse{}, AsCommandError(err)
	}

	data := map[string]any{
		"provider":  c.provider.Name(),
		"operation": "complete",
	}
	if resp.TokensUsed != nil {
		data["tokens_used"] = *resp.TokensUsed
	}
	c.emit(coretypes.AIRequestCompleted, data)
	return resp, nil
}

// ListApps returns the registered apps sorted by id.
func (c *Core) ListApps() []coretypes.AppInfo {
	apps := c.registry.List()
	sort.Slice(apps, func(i, j int) bool { return apps[i].ID < apps[j].ID })
	return apps
}

// EventLog returns up to limit recent events, newest first.
func (c *Core) EventLog(limit int) []coretypes.Event {
	return c.bus.GetLog(limit)
}

// ProviderStatus describes the active provider.
type ProviderStatus struct {
	Name      string `json:"name" yaml:"name"`
	Available bool   `json:"available" yaml:"available"`
}

// ProviderStatus probes the active provider.
func (c *Core) ProviderStatus(ctx context.Context) ProviderStatus {
	ctx, cancel := context.WithTimeout(ctx, c.aiTimeout)
	defer cancel()

	return ProviderStatus{
		Name:      c.provider.Name(),
		Available: c.provider.IsAvailable(ctx),
	}
}
