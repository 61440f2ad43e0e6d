// Package conversation defines the persisted conversation model and the
// storage collaborator the session manager speaks to. Implementations must be
// safe for concurrent use.
package conversation

import (
	"context"
	"errors"
	"time"

	"github.com/clinicore/assistant/core/protocol"
)

// Sentinel errors for conversation storage.
var (
	ErrNotFound   = errors.New("conversation not found")
	ErrEmptyScope = errors.New("owner scope is empty")
)

// Conversation is one assistant thread owned by a clinic scope. The engine
// never mutates it beyond the title and archived flags.
type Conversation struct {
	ID           string    `json:"id"`
	OwnerScopeID string    `json:"owner_scope_id"`
	Title        string    `json:"title"`
	Archived     bool      `json:"archived"`
	CreatedAt    time.Time `json:"created_at"`
}

// Message is one persisted turn within a conversation, ordered by creation
// time. Assistant messages carry display text only; command blocks are
// stripped before persistence.
type Message struct {
	ID             string        `json:"id"`
	ConversationID string        `json:"conversation_id"`
	Role           protocol.Role `json:"role"`
	Content        string        `json:"content"`
	CreatedAt      time.Time     `json:"created_at"`
}

// Store is the persistence collaborator for conversations and messages.
type Store interface {
	// CreateConversation creates an empty conversation under the given scope.
	CreateConversation(ctx context.Context, scopeID, title string) (Conversation, error)
	// GetConversation returns a conversation by id, or ErrNotFound.
	GetConversation(ctx context.Context, id string) (Conversation, error)
	// ListConversations returns a scope's conversations, newest first.
	ListConversations(ctx context.Context, scopeID string) ([]Conversation, error)
	// GetMessages returns a conversation's messages in creation order.
	GetMessages(ctx context.Context, conversationID string) ([]Message, error)
	// SaveMessage appends a message and returns the stored copy.
	SaveMessage(ctx context.Context, conversationID string, role protocol.Role, content string) (Message, error)
	// DeleteConversation removes a conversation and its messages.
	DeleteConversation(ctx context.Context, id string) error
	// ArchiveConversation marks a conversation archived.
	ArchiveConversation(ctx context.Context, id string) error
	// UpdateConversationTitle renames a conversation.
	UpdateConversationTitle(ctx context.Context, id, title string) error
}
