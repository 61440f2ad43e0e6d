package session

import "errors"

// Sentinel errors for the session manager.
var (
	// ErrNoActiveConversation signals a send with no conversation selected.
	// The call is a pure no-op: no network, no cache mutation.
	ErrNoActiveConversation = errors.New("no active conversation")
	// ErrEmptyMessage signals a send with empty or whitespace-only content.
	// Also a pure no-op.
	ErrEmptyMessage = errors.New("message content is empty")
	// ErrConversationBusy rejects a send for a conversation that already has
	// an in-flight cycle. Sends to other conversations proceed independently.
	ErrConversationBusy = errors.New("conversation has a send in flight")
	// ErrNoCompleter is returned by New when neither config nor options
	// provided a completion client.
	ErrNoCompleter = errors.New("no completion client configured")
)
