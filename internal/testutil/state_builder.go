package testutil

import (
	"fmt"

	"github.com/hupe1980/groupchat/core"
)

// StateBuilder helps construct strategy states with fluent chaining.
// Example:
//
//	st := NewStateBuilder().Participants("A", "B").Prompt("hi").Replies(2).Build()
type StateBuilder struct {
	history      *core.History
	round        int
	participants []core.AgentHandle
}

// NewStateBuilder creates an empty builder.
func NewStateBuilder() *StateBuilder {
	return &StateBuilder{history: core.NewHistory()}
}

// Participants adds ephemeral handles with ids "id-<name>" (chainable).
func (b *StateBuilder) Participants(names ...string) *StateBuilder {
	for _, n := range names {
		b.participants = append(b.participants, core.AgentHandle{ID: "id-" + n, DisplayName: n, Ephemeral: true})
	}
	return b
}

// Round sets the completed round count (chainable).
func (b *StateBuilder) Round(n int) *StateBuilder { b.round = n; return b }

// Prompt appends a user message (chainable).
func (b *StateBuilder) Prompt(text string) *StateBuilder {
	b.history.Append(core.NewUserMessage(text))
	return b
}

// Message appends an arbitrary message (chainable).
func (b *StateBuilder) Message(m core.Message) *StateBuilder {
	b.history.Append(m)
	return b
}

// Replies appends n agent replies authored round-robin by the participants
// and advances the round accordingly (chainable).
func (b *StateBuilder) Replies(n int) *StateBuilder {
	for i := 0; i < n; i++ {
		author := "agent"
		if len(b.participants) > 0 {
			author = b.participants[b.round%len(b.participants)].Name()
		}
		b.history.Append(core.NewAgentMessage(author, fmt.Sprintf("reply %d", i+1)))
		b.round++
	}
	return b
}

// Build returns the snapshot.
func (b *StateBuilder) Build() core.State {
	return core.NewState(b.history, b.round, b.participants)
}
