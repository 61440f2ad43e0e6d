package cache

import (
	"slices"
	"sync"

	"github.com/clinicore/assistant/conversation"
)

// Messages is the optimistic local message cache, keyed by conversation id.
// The session manager appends locally before persisting remotely; Replace
// reconciles a conversation against the authoritative store copy. Safe for
// concurrent use.
type Messages struct {
	mu       sync.RWMutex
	byConv   map[string][]conversation.Message
	resident map[string]bool
}

// NewMessages creates an empty message cache.
func NewMessages() *Messages {
	return &Messages{
		byConv:   make(map[string][]conversation.Message),
		resident: make(map[string]bool),
	}
}

// Has reports whether a conversation's messages are cached, even if empty.
func (m *Messages) Has(conversationID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.resident[conversationID]
}

// Get returns a defensive copy of a conversation's cached messages.
func (m *Messages) Get(conversationID string) []conversation.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.byConv[conversationID])
}

// Append adds a message to a conversation's cache in arrival order.
func (m *Messages) Append(conversationID string, msg conversation.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byConv[conversationID] = append(m.byConv[conversationID], msg)
	m.resident[conversationID] = true
}

// Replace swaps a conversation's cached messages with the given slice.
func (m *Messages) Replace(conversationID string, msgs []conversation.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byConv[conversationID] = slices.Clone(msgs)
	m.resident[conversationID] = true
}

// Drop removes a conversation from the cache entirely.
func (m *Messages) Drop(conversationID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byConv, conversationID)
	delete(m.resident, conversationID)
}
