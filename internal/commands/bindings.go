package commands

import (
	"context"

	"corelab/pkg/coretypes"
)

// DefaultEventLogLimit is used by event_log when no limit is given.
const DefaultEventLogLimit = 50

type noArgs struct{}

type personIDArgs struct {
	PersonID int64 `json:"person_id"`
}

type createPersonArgs struct {
	Name  string  `json:"name"`
	Notes *string `json:"notes"`
}

type updatePersonArgs struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Notes    *string `json:"notes"`
	IsActive *bool   `json:"is_active"`
}

type createConversationArgs struct {
	PersonID int64   `json:"person_id"`
	Content  string  `json:"content"`
	Context  *string `json:"context"`
}

type createMemoryArgs struct {
	PersonID   int64  `json:"person_id"`
	Key        string `json:"key"`
	Value      string `json:"value"`
	Importance int    `json:"importance"`
}

type extractArgs struct {
	Text string `json:"text"`
}

type completeArgs struct {
	Prompt       string   `json:"prompt"`
	SystemPrompt string   `json:"system_prompt"`
	MaxTokens    *int     `json:"max_tokens"`
	Temperature  *float64 `json:"temperature"`
	JSON         bool     `json:"json"`
}

type eventLogArgs struct {
	Limit *int `json:"limit"`
}

// IDResult is returned by the create commands.
type IDResult struct {
	ID int64 `json:"id" yaml:"id"`
}

func requireID(field string, id int64) error {
	if id <= 0 {
		return validationError("%s is required", field)
	}
	return nil
}

// Commands returns the invoke bindings for every core operation, named in
// snake_case.
func (c *Core) Commands() []Command {
	return []Command{
		bind("get_persons", "List active persons", func(ctx context.Context, _ noArgs) (any, error) {
			return c.GetPersons(ctx)
		}),
		bind("get_person", "Get one person by id", func(ctx context.Context, a struct {
			ID int64 `json:"id"`
		}) (any, error) {
			if err := requireID("id", a.ID); err != nil {
				return nil, err
			}
			return c.GetPerson(ctx, a.ID)
		}),
		bind("create_person", "Create a person", func(ctx context.Context, a createPersonArgs) (any, error) {
			id, err := c.CreatePerson(ctx, a.Name, a.Notes)
			if err != nil {
				return nil, err
			}
			return IDResult{ID: id}, nil
		}),
		bind("update_person", "Update a person", func(ctx context.Context, a updatePersonArgs) (any, error) {
			if err := requireID("id", a.ID); err != nil {
				return nil, err
			}
			if a.IsActive == nil {
				return nil, validationError("is_active is required")
			}
			return nil, c.UpdatePerson(ctx, a.ID, a.Name, a.Notes, *a.IsActive)
		}),
		bind("get_conversations", "List a person's conversations, newest first", func(ctx context.Context, a personIDArgs) (any, error) {
			if err := requireID("person_id", a.PersonID); err != nil {
				return nil, err
			}
			return c.GetConversations(ctx, a.PersonID)
		}),
		bind("create_conversation", "Record a conversation with a person", func(ctx context.Context, a createConversationArgs) (any, error) {
			if err := requireID("person_id", a.PersonID); err != nil {
				return nil, err
			}
			id, err := c.CreateConversation(ctx, a.PersonID, a.Content, a.Context)
			if err != nil {
				return nil, err
			}
			return IDResult{ID: id}, nil
		}),
		bind("get_memories", "List a person's memories, most important first", func(ctx context.Context, a personIDArgs) (any, error) {
			if err := requireID("person_id", a.PersonID); err != nil {
				return nil, err
			}
			return c.GetMemories(ctx, a.PersonID)
		}),
		bind("create_memory", "Store a memory about a person", func(ctx context.Context, a createMemoryArgs) (any, error) {
			if err := requireID("person_id", a.PersonID); err != nil {
				return nil, err
			}
			id, err := c.CreateMemory(ctx, a.PersonID, a.Key, a.Value, a.Importance)
			if err != nil {
				return nil, err
			}
			return IDResult{ID: id}, nil
		}),
		bind("extract_memories", "Extract memories from text with the active provider", func(ctx context.Context, a extractArgs) (any, error) {
			return c.ExtractMemories(ctx, a.Text)
		}),
		bind("complete", "Run a one-shot completion with the active provider", func(ctx context.Context, a completeArgs) (any, error) {
			return c.Complete(ctx, coretypes.AIRequest{
				Prompt:       a.Prompt,
				SystemPrompt: a.SystemPrompt,
				MaxTokens:    a.MaxTokens,
				Temperature:  a.Temperature,
				JSON:         a.JSON,
			})
		}),
		bind("list_apps", "List registered apps", func(context.Context, noArgs) (any, error) {
			return c.ListApps(), nil
		}),
		bind("event_log", "Show recent events, newest first", func(_ context.Context, a eventLogArgs) (any, error) {
			limit := DefaultEventLogLimit
			if a.Limit != nil {
				limit = *a.Limit
			}
			return c.EventLog(limit), nil
		}),
		bind("provider_status", "Probe the active AI provider", func(ctx context.Context, _ noArgs) (any, error) {
			return c.ProviderStatus(ctx), nil
		}),
	}
}

// RegisterAll registers every core command in r.
func (c *Core) RegisterAll(r *Registry) error {
	for _, cmd := range c.Commands() {
		if err := r.Register(cmd); err != nil {
			return err
		}
	}
	return nil
}
