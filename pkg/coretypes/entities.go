package coretypes

import "context"

// Person is someone the user keeps notes and memories about.
type Person struct {
	ID        int64   `json:"id" yaml:"id"`
	Name      string  `json:"name" yaml:"name"`
	Notes     *string `json:"notes" yaml:"notes"`
	IsActive  bool    `json:"is_active" yaml:"is_active"`
	CreatedAt string  `json:"created_at" yaml:"created_at"`
}

// Conversation is a free-text note of an exchange with a person.
type Conversation struct {
	ID        int64   `json:"id" yaml:"id"`
	PersonID  int64   `json:"person_id" yaml:"person_id"`
	Content   string  `json:"content" yaml:"content"`
	Context   *string `json:"context" yaml:"context"`
	CreatedAt string  `json:"created_at" yaml:"created_at"`
}

// Memory is a durable key/value fact about a person.
type Memory struct {
	ID         int64  `json:"id" yaml:"id"`
	PersonID   int64  `json:"person_id" yaml:"person_id"`
	Key        string `json:"key" yaml:"key"`
	Value      string `json:"value" yaml:"value"`
	Importance int    `json:"importance" yaml:"importance"`
	CreatedAt  string `json:"created_at" yaml:"created_at"`
}

// Store is the persistence surface the core and its apps rely on.
// Implementations may serialise all calls; callers must not assume
// operations run in parallel.
type Store interface {
	ListActivePersons(ctx context.Context) ([]Person, error)
	GetPerson(ctx context.Context, id int64) (Person, error)
	CreatePerson(ctx context.Context, name string, notes *string) (int64, error)
	UpdatePerson(ctx context.Context, id int64, name string, notes *string, isActive bool) error

	ListConversations(ctx context.Context, personID int64) ([]Conversation, error)
	CreateConversation(ctx context.Context, personID int64, content string, convContext *string) (int64, error)

	ListMemories(ctx context.Context, personID int64) ([]Memory, error)
	CreateMemory(ctx context.Context, personID int64, key, value string, importance int) (int64, error)
}
