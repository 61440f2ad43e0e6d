package conversation

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/assistant/core/protocol"
)

// MemoryStore is an in-memory Store for tests and single-process use.
type MemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]Conversation
	messages      map[string][]Message
	now           func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[string]Conversation),
		messages:      make(map[string][]Message),
		now:           time.Now,
	}
}

func (s *MemoryStore) CreateConversation(ctx context.Context, scopeID, title string) (Conversation, error) {
	if scopeID == "" {
		return Conversation{}, ErrEmptyScope
	}

	conv := Conversation{
		ID:           uuid.Must(uuid.NewV7()).String(),
		OwnerScopeID: scopeID,
		Title:        title,
		CreatedAt:    s.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[conv.ID] = conv
	return conv, nil
}

func (s *MemoryStore) GetConversation(ctx context.Context, id string) (Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[id]
	if !ok {
		return Conversation{}, ErrNotFound
	}
	return conv, nil
}

func (s *MemoryStore) ListConversations(ctx context.Context, scopeID string) ([]Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var convs []Conversation
	for _, conv := range s.conversations {
		if conv.OwnerScopeID == scopeID {
			convs = append(convs, conv)
		}
	}

	sort.Slice(convs, func(i, j int) bool {
		return convs[i].CreatedAt.After(convs[j].CreatedAt)
	})
	return convs, nil
}

func (s *MemoryStore) GetMessages(ctx context.Context, conversationID string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.conversations[conversationID]; !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(s.messages[conversationID]), nil
}

func (s *MemoryStore) SaveMessage(ctx context.Context, conversationID string, role protocol.Role, content string) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[conversationID]; !ok {
		return Message{}, ErrNotFound
	}

	msg := Message{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      s.now(),
	}
	s.messages[conversationID] = append(s.messages[conversationID], msg)
	return msg, nil
}

func (s *MemoryStore) DeleteConversation(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[id]; !ok {
		return ErrNotFound
	}
	delete(s.conversations, id)
	delete(s.messages, id)
	return nil
}

func (s *MemoryStore) ArchiveConversation(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return ErrNotFound
	}
	conv.Archived = true
	s.conversations[id] = conv
	return nil
}

func (s *MemoryStore) UpdateConversationTitle(ctx context.Context, id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return ErrNotFound
	}
	conv.Title = title
	s.conversations[id] = conv
	return nil
}
