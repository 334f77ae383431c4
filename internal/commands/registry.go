package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"corelab/internal/logger"
	"corelab/pkg/coretypes"
)

// Command is one named operation callable with JSON arguments. It is the
// shape transports such as the RPC server invoke.
type Command interface {
	Name() string
	Description() string
	Execute(ctx context.Context, args json.RawMessage) (any, error)
}

// Registry manages command registration and lookup.
// It provides thread-safe registration and retrieval of commands by name.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command
}

// NewRegistry creates a new command registry with an empty command map.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]Command),
	}
}

// Register adds a command to the registry. Returns an error if the command
// name is empty or if a command with the same name is already registered.
func (r *Registry) Register(cmd Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cmd.Name() == "" {
		return fmt.Errorf("command name cannot be empty: %w", coretypes.ErrValidation)
	}
	if _, exists := r.commands[cmd.Name()]; exists {
		return fmt.Errorf("command %s already registered: %w", cmd.Name(), coretypes.ErrDuplicate)
	}

	r.commands[cmd.Name()] = cmd
	return nil
}

// Get retrieves a command by name.
func (r *Registry) Get(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, exists := r.commands[name]
	return cmd, exists
}

// GetAll returns every registered command sorted by name.
func (r *Registry) GetAll() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	commands := make([]Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		commands = append(commands, cmd)
	}
	sort.Slice(commands, func(i, j int) bool { return commands[i].Name() < commands[j].Name() })
	return commands
}

// Execute runs a command by name. Unknown commands fail with a NotFound
// CommandError; every other failure is converted by AsCommandError.
func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) (any, error) {
	cmd, exists := r.Get(name)
	if !exists {
		return nil, AsCommandError(fmt.Errorf("unknown command: %s: %w", name, coretypes.ErrNotFound))
	}

	logger.Debug("Executing command", "command", name)
	result, err := cmd.Execute(ctx, args)
	if err != nil {
		return nil, AsCommandError(err)
	}
	return result, nil
}

type command struct {
	name        string
	description string
	run         func(ctx context.Context, args json.RawMessage) (any, error)
}

func (c command) Name() string        { return c.name }
func (c command) Description() string { return c.description }

func (c command) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	return c.run(ctx, args)
}

// bind builds a Command whose arguments decode into A. Empty arguments
// decode as the zero A; unknown fields are rejected.
func bind[A any](name, description string, fn func(ctx context.Context, args A) (any, error)) Command {
	return command{
		name:        name,
		description: description,
		run: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var args A
			if len(bytes.TrimSpace(raw)) > 0 && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
				dec := json.NewDecoder(bytes.NewReader(raw))
				dec.DisallowUnknownFields()
				if err := dec.Decode(&args); err != nil {
					return nil, validationError("invalid arguments for %s: %v", name, err)
				}
			}
			return fn(ctx, args)
		},
	}
}
