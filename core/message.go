package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message is one record of the conversation. After it has been appended to a
// History it must be treated as immutable.
//
// TurnIndex is the 1-based position of an Agent message among all Agent
// messages of the run; it is zero for every other role.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	TurnIndex int       `json:"turn_index,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage creates a message with a fresh id and UTC timestamp.
func NewMessage(role Role, author, content string) Message {
	return Message{
		ID:        NewID(),
		Role:      role,
		Author:    author,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// NewUserMessage creates a user-authored message.
func NewUserMessage(content string) Message {
	return NewMessage(RoleUser, "user", content)
}

// NewAgentMessage creates a reply authored by the named participant.
func NewAgentMessage(author, content string) Message {
	return NewMessage(RoleAgent, author, content)
}

// NewToolMessage creates a tool record. Content may be empty.
func NewToolMessage(author, content string) Message {
	return NewMessage(RoleTool, author, content)
}

// NewSystemMessage creates a system notice.
func NewSystemMessage(content string) Message {
	return NewMessage(RoleSystem, "system", content)
}

// NewID generates a new unique identifier.
func NewID() string { return uuid.NewString() }

// IsEmpty reports whether the message carries no visible text.
func (m Message) IsEmpty() bool { return strings.TrimSpace(m.Content) == "" }

// IsAgent reports whether the message is a participant reply.
func (m Message) IsAgent() bool { return m.Role == RoleAgent }
