package backend

import (
	"context"

	"github.com/hupe1980/groupchat/core"
)

// Backend is the minimal interface the engine needs to drive a conversation.
type Backend interface {
	// CreateAgent creates a remote agent and returns an ephemeral handle.
	CreateAgent(ctx context.Context, model, name, instructions string) (core.AgentHandle, error)

	// Invoke asks agent for its next reply given the ordered history. A nil
	// message means the agent produced nothing this turn.
	Invoke(ctx context.Context, agent core.AgentHandle, history []core.Message) (*core.Message, error)

	// DeleteAgent removes an agent. Deleting an already deleted agent is not an error.
	DeleteAgent(ctx context.Context, agent core.AgentHandle) error
}

// Retriever is implemented by backends that can resolve an existing agent
// id into a handle. Retrieved handles are never ephemeral.
type Retriever interface {
	RetrieveAgent(ctx context.Context, id string) (core.AgentHandle, error)
}

// Info contains metadata about a backend implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

// Describer is implemented by backends that expose Info.
type Describer interface {
	Info() Info
}
