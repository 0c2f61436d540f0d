package testutil

import (
	"github.com/hupe1980/groupchat/core"
)

// MessageBuilder provides a fluent helper for constructing messages in tests.
// Example:
//
//	msg := NewMessageBuilder().Author("planner").Agent("step one").Build()
//
// Chain only the parts you need; sensible defaults are applied.
type MessageBuilder struct {
	id      string
	role    core.Role
	author  string
	content string
	turn    int
}

// NewMessageBuilder creates a builder for an agent message authored by "agent".
func NewMessageBuilder() *MessageBuilder {
	return &MessageBuilder{role: core.RoleAgent, author: "agent"}
}

// ID overrides the generated id (chainable). Use where determinism matters.
func (b *MessageBuilder) ID(id string) *MessageBuilder { b.id = id; return b }

// Author sets the author (chainable).
func (b *MessageBuilder) Author(a string) *MessageBuilder { b.author = a; return b }

// Turn sets the turn index (chainable).
func (b *MessageBuilder) Turn(n int) *MessageBuilder { b.turn = n; return b }

// User sets role user and content (chainable).
func (b *MessageBuilder) User(text string) *MessageBuilder {
	b.role = core.RoleUser
	b.author = "user"
	b.content = text
	return b
}

// Agent sets role agent and content (chainable).
func (b *MessageBuilder) Agent(text string) *MessageBuilder {
	b.role = core.RoleAgent
	b.content = text
	return b
}

// Tool sets role tool and content (chainable).
func (b *MessageBuilder) Tool(text string) *MessageBuilder {
	b.role = core.RoleTool
	b.content = text
	return b
}

// System sets role system and content (chainable).
func (b *MessageBuilder) System(text string) *MessageBuilder {
	b.role = core.RoleSystem
	b.author = "system"
	b.content = text
	return b
}

// Build constructs the core.Message value.
func (b *MessageBuilder) Build() core.Message {
	m := core.NewMessage(b.role, b.author, b.content)
	if b.id != "" {
		m.ID = b.id
	}
	m.TurnIndex = b.turn
	return m
}

// Ptr builds the message and returns a pointer to it.
func (b *MessageBuilder) Ptr() *core.Message {
	m := b.Build()
	return &m
}
