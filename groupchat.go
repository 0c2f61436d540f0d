// Package groupchat provides a high-level façade over the engine: a bounded,
// round-robin conversation among several assistant agents that streams its
// transcript and cleans up the agents it created.
//
// Most applications interact with this package by:
//  1. Choosing a backend (backend/openai, backend/anthropic or the mock)
//  2. Creating a GroupChat via New
//  3. Streaming (Stream) or collecting (Generate) a transcript
//
// The façade delegates orchestration to engine.Engine.
package groupchat

import (
	"context"

	"github.com/hupe1980/groupchat/backend"
	"github.com/hupe1980/groupchat/core"
	"github.com/hupe1980/groupchat/engine"
	"github.com/hupe1980/groupchat/logging"
	"github.com/hupe1980/groupchat/strategy"
)

// DefaultPrompt seeds the group chat when no prompt is configured.
const DefaultPrompt = "Draft a lightweight product launch plan for a new AI-powered note-taking app."

// QuickstartPrompt seeds the single-agent quickstart.
const QuickstartPrompt = "Give me a concise update on the RAG concept in AI."

// DefaultProfiles returns the planner, researcher and editor profiles.
func DefaultProfiles() []core.Profile {
	return []core.Profile{
		{
			Name: "planner",
			Instructions: "You are the facilitator. Break the task into actionable steps, " +
				"call on teammates when you hand off, and keep responses under six sentences.",
		},
		{
			Name: "researcher",
			Instructions: "You surface real-world context or data that supports the plan. " +
				"If asked for specifics you cannot access, state what assumptions you are making.",
		},
		{
			Name: "editor",
			Instructions: "You synthesize what others proposed into a concise recommendation " +
				"with next actions and open questions.",
		},
	}
}

// QuickstartProfile returns the profile of the single quickstart assistant.
func QuickstartProfile() core.Profile {
	return core.Profile{
		Name:         "quickstart",
		Instructions: "You are a helpful Azure AI demo assistant. Keep answers short.",
	}
}

// Options configures a GroupChat.
type Options struct {
	// EngineConfig holds model, namespace, keep flag and run limits.
	EngineConfig engine.Config

	// MaxIterations is the number of agent turns after which the
	// conversation stops. Ignored when Termination is set.
	MaxIterations int

	// Selection overrides round-robin selection.
	Selection strategy.SelectionStrategy

	// Termination overrides the max-iterations termination.
	Termination strategy.TerminationStrategy

	// Callbacks observe every run.
	Callbacks *engine.CallbackManager

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// GroupChat runs conversations among agents of a single backend.
type GroupChat struct {
	opts    Options
	backend backend.Backend
	engine  *engine.Engine
}

// New creates a GroupChat on top of be.
func New(be backend.Backend, optFns ...func(o *Options)) *GroupChat {
	opts := Options{
		EngineConfig:  engine.DefaultConfig,
		MaxIterations: strategy.DefaultMaxIterations,
		Logger:        logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &GroupChat{
		opts:    opts,
		backend: be,
		engine:  newEngine(be, opts, opts.MaxIterations),
	}
}

func newEngine(be backend.Backend, opts Options, maxIterations int) *engine.Engine {
	return engine.New(be, func(o *engine.Options) {
		o.Config = opts.EngineConfig
		o.Selection = opts.Selection
		o.Termination = opts.Termination
		if o.Termination == nil {
			o.Termination = strategy.NewMaxIterations(maxIterations)
		}
		o.Callbacks = opts.Callbacks
		o.Logger = opts.Logger
	})
}

// Engine returns the underlying engine.
func (g *GroupChat) Engine() *engine.Engine { return g.engine }

// Stream starts a conversation among agents created from profiles. With no
// profiles, DefaultProfiles is used.
func (g *GroupChat) Stream(ctx context.Context, prompt string, profiles ...core.Profile) (*engine.Transcript, error) {
	if len(profiles) == 0 {
		profiles = DefaultProfiles()
	}
	return g.engine.Stream(ctx, engine.Request{Prompt: prompt, Profiles: profiles})
}

// StreamRequest starts a conversation described by req.
func (g *GroupChat) StreamRequest(ctx context.Context, req engine.Request) (*engine.Transcript, error) {
	return g.engine.Stream(ctx, req)
}

// Generate is a synchronous helper that drains Stream and returns all
// entries. On error the entries emitted before the failure are returned
// together with the error.
func (g *GroupChat) Generate(ctx context.Context, prompt string, profiles ...core.Profile) ([]engine.Entry, error) {
	t, err := g.Stream(ctx, prompt, profiles...)
	if err != nil {
		return nil, err
	}
	return engine.Collect(t)
}

// Quickstart runs a single turn. When existing is non-nil that agent answers
// and is left untouched; otherwise a quickstart assistant is created and,
// unless keep is configured, deleted afterwards.
func (g *GroupChat) Quickstart(ctx context.Context, prompt string, existing *core.AgentHandle) (*engine.Transcript, error) {
	req := engine.Request{Prompt: prompt}
	if existing != nil {
		req.Agents = []core.AgentHandle{*existing}
	} else {
		req.Profiles = []core.Profile{QuickstartProfile()}
	}

	opts := g.opts
	opts.Termination = nil
	return newEngine(g.backend, opts, 1).Stream(ctx, req)
}

// Retrieve resolves an existing agent id when the backend supports it.
func (g *GroupChat) Retrieve(ctx context.Context, id string) (core.AgentHandle, error) {
	r, ok := g.backend.(backend.Retriever)
	if !ok {
		return core.AgentHandle{}, core.NewConfigurationError("backend", "does not support retrieving existing agents")
	}
	return r.RetrieveAgent(ctx, id)
}
