package action

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Handler is the function signature for domain action implementations.
// Handlers receive the request context and the raw JSON object of the command
// block, and validate their own payload shape.
type Handler func(ctx context.Context, data json.RawMessage) (Result, error)

// Result is a handler's success output. Message, when set, overrides the
// default notification text for the action.
type Result struct {
	Payload any
	Message string
}

// Registry maps action names to handlers. Unlike a global registry, each
// engine instance owns its own, so hosts can register different action sets
// per deployment. Thread-safe for concurrent access.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds a handler for an action name. Returns ErrAlreadyExists if
// the name is taken; use Replace to update an existing handler.
func (r *Registry) Register(name string, handler Handler) error {
	if name == "" {
		return ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, name)
	}
	r.handlers[name] = handler
	return nil
}

// Replace updates the handler for an already-registered action name.
func (r *Registry) Replace(name string, handler Handler) error {
	if name == "" {
		return ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[name]; !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	r.handlers[name] = handler
	return nil
}

// Get retrieves a handler by action name.
func (r *Registry) Get(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, exists := r.handlers[name]
	return h, exists
}

// List returns the registered action names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
