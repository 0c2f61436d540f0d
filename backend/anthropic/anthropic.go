// Package anthropic provides a backend.Backend for the Anthropic Messages API.
//
// The Messages API has no server-side agents, so participants live in a
// local registry: creating an agent records its name, model and
// instructions, and invoking it sends the conversation with the
// instructions as system prompt.
package anthropic

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hupe1980/groupchat/backend"
	"github.com/hupe1980/groupchat/core"
)

// DefaultModel is used when neither Options.Model nor CreateAgent names one.
const DefaultModel = anthropic.ModelClaude3_5Sonnet20241022

// Options configures the Anthropic backend.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string

	// Namespace is stripped from agent names to form display names.
	Namespace string
}

type agent struct {
	name         string
	model        anthropic.Model
	instructions string
}

// Backend runs participants against Claude.
type Backend struct {
	client *anthropic.Client
	opts   Options

	mu     sync.RWMutex
	agents map[string]agent
}

// NewBackend creates a backend using the official client. The API key falls
// back to ANTHROPIC_API_KEY when not set.
func NewBackend(optFns ...func(o *Options)) *Backend {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)

	return newBackend(&client, opts)
}

// NewBackendFromClient creates a backend from an existing client.
func NewBackendFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Backend {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return newBackend(client, opts)
}

func defaultOptions() Options {
	return Options{
		Model:       DefaultModel,
		Temperature: 0.7,
		MaxTokens:   1024,
	}
}

func newBackend(client *anthropic.Client, opts Options) *Backend {
	return &Backend{
		client: client,
		opts:   opts,
		agents: make(map[string]agent),
	}
}

var (
	_ backend.Backend   = (*Backend)(nil)
	_ backend.Retriever = (*Backend)(nil)
	_ backend.Describer = (*Backend)(nil)
)

// Info implements backend.Describer.
func (b *Backend) Info() backend.Info {
	return backend.Info{Name: "messages", Provider: "anthropic"}
}

// CreateAgent registers a participant. An empty model selects Options.Model.
func (b *Backend) CreateAgent(ctx context.Context, model, name, instructions string) (core.AgentHandle, error) {
	if err := ctx.Err(); err != nil {
		return core.AgentHandle{}, err
	}

	m := b.opts.Model
	if model != "" {
		m = anthropic.Model(model)
	}

	id := "agent_" + core.NewID()

	b.mu.Lock()
	b.agents[id] = agent{name: name, model: m, instructions: instructions}
	b.mu.Unlock()

	return core.AgentHandle{
		ID:          id,
		DisplayName: core.ShortName(name, b.opts.Namespace),
		Ephemeral:   true,
	}, nil
}

// RetrieveAgent resolves a registered participant.
func (b *Backend) RetrieveAgent(_ context.Context, id string) (core.AgentHandle, error) {
	b.mu.RLock()
	a, ok := b.agents[id]
	b.mu.RUnlock()
	if !ok {
		return core.AgentHandle{}, core.NewBackendError("retrieve", id, fmt.Errorf("agent %s not found", id))
	}
	return core.AgentHandle{ID: id, DisplayName: core.ShortName(a.name, b.opts.Namespace)}, nil
}

// DeleteAgent removes a participant. Unknown ids are ignored.
func (b *Backend) DeleteAgent(_ context.Context, h core.AgentHandle) error {
	b.mu.Lock()
	delete(b.agents, h.ID)
	b.mu.Unlock()
	return nil
}

// Invoke asks Claude for the participant's next reply.
func (b *Backend) Invoke(ctx context.Context, h core.AgentHandle, history []core.Message) (*core.Message, error) {
	b.mu.RLock()
	a, ok := b.agents[h.ID]
	b.mu.RUnlock()
	if !ok {
		return nil, core.NewBackendError("invoke", h.Name(), fmt.Errorf("agent %s not found", h.ID))
	}

	messages := BuildMessages(h.Name(), history)
	if len(messages) == 0 {
		return nil, nil
	}

	params := anthropic.MessageNewParams{
		Model:       a.model,
		Messages:    messages,
		MaxTokens:   b.opts.MaxTokens,
		Temperature: anthropic.Float(b.opts.Temperature),
	}
	if a.instructions != "" {
		params.System = []anthropic.TextBlockParam{{Text: a.instructions}}
	}

	resp, err := b.client.Messages.New(ctx, params)
	if err != nil {
		return nil, core.NewBackendError("invoke", h.Name(), err)
	}

	var parts []string
	for _, block := range resp.Content {
		if block.Type == "text" {
			if text := block.AsText().Text; strings.TrimSpace(text) != "" {
				parts = append(parts, text)
			}
		}
	}
	if len(parts) == 0 {
		return nil, nil
	}

	reply := core.NewAgentMessage(h.Name(), strings.Join(parts, "\n"))
	return &reply, nil
}

const continuePrompt = "Continue the conversation."

type turn struct {
	assistant bool
	text      []string
}

// BuildMessages converts history into the speaker's point of view: its own
// replies become assistant turns, everything else user turns. Other agents'
// replies are prefixed with their name. Consecutive turns of the same side
// are merged so that roles alternate.
func BuildMessages(self string, history []core.Message) []anthropic.MessageParam {
	var turns []turn
	for _, m := range history {
		if m.IsEmpty() {
			continue
		}

		var (
			assistant bool
			text      string
		)
		switch {
		case m.Role == core.RoleAgent && m.Author == self:
			assistant, text = true, m.Content
		case m.Role == core.RoleAgent:
			text = fmt.Sprintf("[%s]: %s", m.Author, m.Content)
		case m.Role == core.RoleUser:
			text = m.Content
		default:
			text = fmt.Sprintf("[%s]: %s", m.Role, m.Content)
		}

		if n := len(turns); n > 0 && turns[n-1].assistant == assistant {
			turns[n-1].text = append(turns[n-1].text, text)
			continue
		}
		turns = append(turns, turn{assistant: assistant, text: []string{text}})
	}

	// Claude expects the conversation to open with a user turn.
	if len(turns) > 0 && turns[0].assistant {
		turns = turns[1:]
	}
	// A trailing assistant turn would be treated as a prefill.
	if n := len(turns); n > 0 && turns[n-1].assistant {
		turns = append(turns, turn{text: []string{continuePrompt}})
	}

	messages := make([]anthropic.MessageParam, 0, len(turns))
	for _, t := range turns {
		block := anthropic.NewTextBlock(strings.Join(t.text, "\n\n"))
		if t.assistant {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}
	return messages
}
