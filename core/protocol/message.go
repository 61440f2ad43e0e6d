// Package protocol defines the chat wire types shared by the completion
// backends. Both providers marshal the same Message shape, so conversation
// history assembled once by the session manager can be replayed verbatim
// against either backend during fallback.
package protocol

// Role identifies the sender of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single chat message sent to a completion backend.
// Content is always plain text; extracted action commands never appear here
// as structured data.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewMessage creates a Message with the given role and content.
//
// Example:
//
//	msg := protocol.NewMessage(protocol.RoleUser, "Hello, world!")
func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content}
}

// InitMessages creates a single-element message slice from a role and content
// string. Convenience wrapper for initializing a history from a prompt.
func InitMessages(role Role, content string) []Message {
	return []Message{NewMessage(role, content)}
}
