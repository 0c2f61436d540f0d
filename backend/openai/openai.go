// Package openai provides a backend.Backend on top of the OpenAI Assistants
// API. Every participant is a server-side assistant; every invocation runs
// the assistant on a fresh thread seeded with the conversation so far and
// returns the assistant's reply. The same client works against Azure OpenAI
// when it is constructed with the azure request options.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"

	"github.com/hupe1980/groupchat/backend"
	"github.com/hupe1980/groupchat/core"
	"github.com/hupe1980/groupchat/logging"
)

// DefaultAPIVersion is the Azure OpenAI API version used when none is set.
const DefaultAPIVersion = "2024-12-01-preview"

// Options configure the Assistants backend.
type Options struct {
	// Namespace is stripped from assistant names to form display names.
	Namespace string

	// PollInterval is the delay between run status checks.
	PollInterval time.Duration

	// Provider is reported by Info ("openai" or "azure").
	Provider string

	// Logger receives diagnostics.
	Logger logging.Logger
}

// Backend drives participants through the Assistants API.
type Backend struct {
	client *openai.Client
	opts   Options
}

// NewBackend creates a backend with a client configured from the standard
// OPENAI_* environment variables and any additional request options.
func NewBackend(reqOpts []option.RequestOption, optFns ...func(o *Options)) *Backend {
	client := openai.NewClient(reqOpts...)
	return NewBackendFromClient(&client, optFns...)
}

// NewAzureBackend creates a backend for an Azure OpenAI resource.
func NewAzureBackend(endpoint, apiKey, apiVersion string, optFns ...func(o *Options)) *Backend {
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	client := openai.NewClient(
		azure.WithEndpoint(endpoint, apiVersion),
		azure.WithAPIKey(apiKey),
	)
	return NewBackendFromClient(&client, append([]func(o *Options){func(o *Options) {
		o.Provider = "azure"
	}}, optFns...)...)
}

// NewBackendFromClient creates a backend from an existing client.
func NewBackendFromClient(client *openai.Client, optFns ...func(o *Options)) *Backend {
	opts := Options{
		PollInterval: 500 * time.Millisecond,
		Provider:     "openai",
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 500 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Backend{client: client, opts: opts}
}

var (
	_ backend.Backend   = (*Backend)(nil)
	_ backend.Retriever = (*Backend)(nil)
	_ backend.Describer = (*Backend)(nil)
)

// Info implements backend.Describer.
func (b *Backend) Info() backend.Info {
	return backend.Info{Name: "assistants", Provider: b.opts.Provider}
}

// CreateAgent creates an assistant on model (the deployment name on Azure).
func (b *Backend) CreateAgent(ctx context.Context, model, name, instructions string) (core.AgentHandle, error) {
	params := openai.BetaAssistantNewParams{
		Model: openai.ChatModel(model),
		Name:  openai.String(name),
	}
	if instructions != "" {
		params.Instructions = openai.String(instructions)
	}

	asst, err := b.client.Beta.Assistants.New(ctx, params)
	if err != nil {
		return core.AgentHandle{}, core.NewBackendError("create", name, err)
	}

	return core.AgentHandle{
		ID:          asst.ID,
		DisplayName: core.ShortName(asst.Name, b.opts.Namespace),
		Ephemeral:   true,
	}, nil
}

// RetrieveAgent resolves an existing assistant. The handle is caller owned.
func (b *Backend) RetrieveAgent(ctx context.Context, id string) (core.AgentHandle, error) {
	asst, err := b.client.Beta.Assistants.Get(ctx, id)
	if err != nil {
		return core.AgentHandle{}, core.NewBackendError("retrieve", id, err)
	}
	return core.AgentHandle{
		ID:          asst.ID,
		DisplayName: core.ShortName(asst.Name, b.opts.Namespace),
	}, nil
}

// DeleteAgent deletes the assistant. A missing assistant counts as deleted.
func (b *Backend) DeleteAgent(ctx context.Context, agent core.AgentHandle) error {
	if _, err := b.client.Beta.Assistants.Delete(ctx, agent.ID); err != nil {
		if isNotFound(err) {
			return nil
		}
		return core.NewBackendError("delete", agent.Name(), err)
	}
	return nil
}

// Invoke runs agent on a new thread that replays history and returns the
// concatenated text of the assistant messages produced by the run.
func (b *Backend) Invoke(ctx context.Context, agent core.AgentHandle, history []core.Message) (*core.Message, error) {
	run, err := b.client.Beta.Threads.NewAndRun(ctx, openai.BetaThreadNewAndRunParams{
		AssistantID: agent.ID,
		Thread: openai.BetaThreadNewAndRunParamsThread{
			Messages: ThreadMessages(history),
		},
	})
	if err != nil {
		return nil, core.NewBackendError("invoke", agent.Name(), err)
	}

	defer b.deleteThread(ctx, run.ThreadID)

	run, err = b.wait(ctx, run)
	if err != nil {
		return nil, core.NewBackendError("invoke", agent.Name(), err)
	}

	page, err := b.client.Beta.Threads.Messages.List(ctx, run.ThreadID, openai.BetaThreadMessageListParams{
		RunID: openai.String(run.ID),
		Order: openai.BetaThreadMessageListParamsOrderAsc,
	})
	if err != nil {
		return nil, core.NewBackendError("invoke", agent.Name(), err)
	}

	text := ReplyText(page.Data)
	if text == "" {
		return nil, nil
	}

	reply := core.NewAgentMessage(agent.Name(), text)
	return &reply, nil
}

// wait polls run until it reaches a terminal status.
func (b *Backend) wait(ctx context.Context, run *openai.Run) (*openai.Run, error) {
	ticker := time.NewTicker(b.opts.PollInterval)
	defer ticker.Stop()

	for {
		switch run.Status {
		case openai.RunStatusCompleted:
			return run, nil
		case openai.RunStatusFailed, openai.RunStatusCancelled, openai.RunStatusExpired,
			openai.RunStatusIncomplete, openai.RunStatusRequiresAction:
			return nil, runError(run)
		}

		select {
		case <-ctx.Done():
			b.cancelRun(run)
			return nil, ctx.Err()
		case <-ticker.C:
		}

		next, err := b.client.Beta.Threads.Runs.Get(ctx, run.ThreadID, run.ID)
		if err != nil {
			return nil, err
		}
		run = next
	}
}

func (b *Backend) cancelRun(run *openai.Run) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := b.client.Beta.Threads.Runs.Cancel(ctx, run.ThreadID, run.ID); err != nil {
		b.opts.Logger.Debug("Run cancellation failed", "run", run.ID, "error", err)
	}
}

func (b *Backend) deleteThread(ctx context.Context, threadID string) {
	if threadID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if _, err := b.client.Beta.Threads.Delete(ctx, threadID); err != nil && !isNotFound(err) {
		b.opts.Logger.Warn("Thread deletion failed", "thread", threadID, "error", err)
	}
}

// ThreadMessages maps history to thread messages. User messages keep the
// user role, agent messages become assistant messages; empty messages and
// other roles are skipped.
func ThreadMessages(history []core.Message) []openai.BetaThreadNewAndRunParamsThreadMessage {
	out := make([]openai.BetaThreadNewAndRunParamsThreadMessage, 0, len(history))
	for _, m := range history {
		if m.IsEmpty() {
			continue
		}
		var role string
		switch m.Role {
		case core.RoleUser:
			role = "user"
		case core.RoleAgent:
			role = "assistant"
		default:
			continue
		}
		out = append(out, openai.BetaThreadNewAndRunParamsThreadMessage{
			Role: role,
			Content: openai.BetaThreadNewAndRunParamsThreadMessageContentUnion{
				OfString: openai.String(m.Content),
			},
		})
	}
	return out
}

// ReplyText joins the text blocks of all assistant messages.
func ReplyText(messages []openai.Message) string {
	var parts []string
	for _, m := range messages {
		if m.Role != openai.MessageRoleAssistant {
			continue
		}
		for _, c := range m.Content {
			if c.Type == "text" && strings.TrimSpace(c.Text.Value) != "" {
				parts = append(parts, c.Text.Value)
			}
		}
	}
	return strings.Join(parts, "\n")
}

func runError(run *openai.Run) error {
	if run.LastError.Message != "" {
		return fmt.Errorf("run %s %s: %s: %s", run.ID, run.Status, run.LastError.Code, run.LastError.Message)
	}
	return fmt.Errorf("run %s ended with status %s", run.ID, run.Status)
}

func isNotFound(err error) bool {
	var apiErr *openai.Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
