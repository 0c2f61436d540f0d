package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/groupchat/backend"
	"github.com/hupe1980/groupchat/core"
	"github.com/hupe1980/groupchat/logging"
	"github.com/hupe1980/groupchat/strategy"
)

// ErrRoundLimit ends a run whose Config.MaxRounds was reached before the
// termination strategy asked to stop.
var ErrRoundLimit = errors.New("round limit reached before termination")

// Config defines tuning parameters for a run.
type Config struct {
	// Model is the deployment or model id used to create agents from profiles.
	Model string

	// Namespace prefixes the backend name of every created agent so that
	// independent runs and demos cannot collide.
	Namespace string

	// Keep leaves created agents in place after the run.
	Keep bool

	// EchoPrompt emits the prompt as the first entry, labelled "user".
	EchoPrompt bool

	// MaxRounds is a hard cap on backend invocations per run, independent of
	// the termination strategy. Reaching it before the strategy stops the
	// run ends the run with ErrRoundLimit. Zero disables the cap.
	MaxRounds int

	// EntryBufferSize is the capacity of the entry channel. Zero keeps the
	// run in lock-step with the consumer.
	EntryBufferSize int

	// ReleaseConcurrency bounds parallel agent deletions during teardown.
	ReleaseConcurrency int

	// ReleaseTimeout bounds teardown. Teardown runs on a context detached
	// from cancellation, so it also completes after the run was cancelled.
	ReleaseTimeout time.Duration
}

// DefaultConfig holds the values used when no Config is supplied.
var DefaultConfig = Config{
	Namespace:          "groupchat-demo",
	MaxRounds:          0,
	EntryBufferSize:    0,
	ReleaseConcurrency: 4,
	ReleaseTimeout:     30 * time.Second,
}

// LabelFunc renders the label of an agent entry from its 1-based turn index
// and author.
type LabelFunc func(turn int, author string) string

// DefaultLabel renders "turn <n>: <author>".
func DefaultLabel(turn int, author string) string {
	return fmt.Sprintf("turn %d: %s", turn, author)
}

// Options configures an Engine.
type Options struct {
	// Config contains the run parameters. Defaults to DefaultConfig.
	Config Config

	// Selection decides who speaks next. Defaults to round-robin.
	Selection strategy.SelectionStrategy

	// Termination decides when to stop. Defaults to DefaultMaxIterations
	// agent turns.
	Termination strategy.TerminationStrategy

	// Labeler renders entry labels. Defaults to DefaultLabel.
	Labeler LabelFunc

	// Callbacks are executed at the lifecycle points of every run.
	Callbacks *CallbackManager

	// Logger provides structured logging. Defaults to a no-op logger.
	Logger logging.Logger
}

// Engine runs group conversations against a backend. An Engine holds no
// per-run state and is safe for concurrent use; every Stream call owns its
// history, its agents and its teardown.
type Engine struct {
	backend     backend.Backend
	lifecycle   *Lifecycle
	config      Config
	selection   strategy.SelectionStrategy
	termination strategy.TerminationStrategy
	labeler     LabelFunc
	callbacks   *CallbackManager
	logger      logging.Logger
}

// New creates an Engine on top of be.
//
// Example:
//
//	eng := engine.New(be, func(o *engine.Options) {
//	    o.Config.Model = "gpt-4o"
//	    o.Termination = strategy.NewMaxIterations(6)
//	})
func New(be backend.Backend, optFns ...func(o *Options)) *Engine {
	opts := Options{
		Config:      DefaultConfig,
		Selection:   strategy.NewRoundRobin(),
		Termination: strategy.NewMaxIterations(strategy.DefaultMaxIterations),
		Labeler:     DefaultLabel,
		Logger:      logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Selection == nil {
		opts.Selection = strategy.NewRoundRobin()
	}
	if opts.Termination == nil {
		opts.Termination = strategy.NewMaxIterations(strategy.DefaultMaxIterations)
	}
	if opts.Labeler == nil {
		opts.Labeler = DefaultLabel
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Callbacks == nil {
		opts.Callbacks = NewCallbackManager()
	}
	if opts.Config.ReleaseTimeout <= 0 {
		opts.Config.ReleaseTimeout = DefaultConfig.ReleaseTimeout
	}

	return &Engine{
		backend: be,
		lifecycle: NewLifecycle(be, func(o *LifecycleOptions) {
			o.Model = opts.Config.Model
			o.Namespace = opts.Config.Namespace
			o.Concurrency = opts.Config.ReleaseConcurrency
			o.Logger = opts.Logger
		}),
		config:      opts.Config,
		selection:   opts.Selection,
		termination: opts.Termination,
		labeler:     opts.Labeler,
		callbacks:   opts.Callbacks,
		logger:      opts.Logger,
	}
}

// Config returns the engine's run parameters.
func (e *Engine) Config() Config { return e.config }

// Lifecycle returns the agent lifecycle manager used by the engine.
func (e *Engine) Lifecycle() *Lifecycle { return e.lifecycle }

// Request describes a single run.
type Request struct {
	// Prompt seeds the conversation as a user message.
	Prompt string

	// Profiles are created as ephemeral agents for the run, in order.
	Profiles []core.Profile

	// Agents are caller-owned participants. They follow the created agents
	// in speaking order and are never deleted by the run.
	Agents []core.AgentHandle
}

// Stream validates req and starts the run. Configuration problems are
// returned before any agent is created; everything after that, including
// agent creation failures, is reported through the Transcript.
//
// The caller must drain the transcript or Close it.
func (e *Engine) Stream(ctx context.Context, req Request) (*Transcript, error) {
	if err := e.validate(req); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	t := newTranscript(uuid.NewString(), e.config.EntryBufferSize, cancel)

	go e.run(runCtx, t, req)

	return t, nil
}

// Generate runs req to completion and returns all entries.
func (e *Engine) Generate(ctx context.Context, req Request) ([]Entry, error) {
	t, err := e.Stream(ctx, req)
	if err != nil {
		return nil, err
	}
	return Collect(t)
}

func (e *Engine) validate(req Request) error {
	if e.backend == nil {
		return core.NewConfigurationError("backend", "is required")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return core.NewConfigurationError("prompt", "must not be empty")
	}
	if len(req.Profiles)+len(req.Agents) == 0 {
		return &core.EmptyParticipantsError{}
	}
	if len(req.Profiles) > 0 && e.config.Model == "" {
		return core.NewConfigurationError("model", "is required to create agents")
	}

	seen := make(map[string]struct{}, len(req.Profiles))
	for i, p := range req.Profiles {
		if strings.TrimSpace(p.Name) == "" {
			return core.NewConfigurationError("profiles", fmt.Sprintf("profile %d has no name", i))
		}
		if _, dup := seen[p.Name]; dup {
			return core.NewConfigurationError("profiles", fmt.Sprintf("duplicate profile %q", p.Name))
		}
		seen[p.Name] = struct{}{}
	}
	for i, a := range req.Agents {
		if a.ID == "" {
			return core.NewConfigurationError("agents", fmt.Sprintf("agent %d has no id", i))
		}
	}

	return nil
}
