package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/groupchat/core"
	"github.com/hupe1980/groupchat/logging"
)

// phase tracks the progress of a run. Transitions are one-way:
// seeded -> running -> terminated.
type phase int

const (
	phaseSeeded phase = iota
	phaseRunning
	phaseTerminated
)

func (p phase) String() string {
	switch p {
	case phaseSeeded:
		return "seeded"
	case phaseRunning:
		return "running"
	case phaseTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// run is the state owned by a single Stream call.
type run struct {
	id           string
	history      *core.History
	participants []core.AgentHandle
	round        int
	phase        phase
	logger       logging.Logger
}

func (r *run) state() core.State {
	return core.NewState(r.history, r.round, r.participants)
}

func (r *run) advance(to phase) {
	if to <= r.phase {
		panic(fmt.Sprintf("invalid phase transition %s -> %s", r.phase, to))
	}
	r.phase = to
}

// run drives one conversation on its own goroutine. Teardown happens on
// every exit path, exactly once, before the transcript is finished.
func (e *Engine) run(ctx context.Context, t *Transcript, req Request) {
	logger := runLogger(e.logger, t.runID)
	scope := e.lifecycle.Scope(e.config.Keep)

	var runErr error

	defer func() {
		if r := recover(); r != nil {
			runErr = fmt.Errorf("run panicked: %v", r)
		}

		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.config.ReleaseTimeout)
		releaseErr := scope.Release(releaseCtx)
		cancel()

		handles := scope.Handles()
		failures := 0
		var re *core.ReleaseError
		if errors.As(releaseErr, &re) {
			failures = len(re.Failures)
		}
		logRelease(logger, countEphemeral(handles), failures, e.config.Keep)

		detached := context.WithoutCancel(ctx)
		switch {
		case runErr == nil:
		case IsCancelled(runErr):
			logger.Info("Run cancelled", "error", runErr)
		default:
			logger.Error("Run failed", "error", runErr)
			if err := e.callbacks.ExecuteCallbacks(detached, CallbackOnError, &CallbackContext{RunID: t.runID, Err: runErr}); err != nil {
				logger.Warn("Callback failed", "error", err)
			}
		}
		if err := e.callbacks.ExecuteCallbacks(detached, CallbackOnRelease, &CallbackContext{RunID: t.runID, Err: releaseErr}); err != nil {
			logger.Warn("Callback failed", "error", err)
		}

		t.cancel()
		t.finish(runErr, releaseErr)
	}()

	external := make([]core.AgentHandle, len(req.Agents))
	for i, a := range req.Agents {
		a.Ephemeral = false
		external[i] = a
	}
	scope.Adopt(external...)

	created, err := scope.Acquire(ctx, req.Profiles)
	if err != nil {
		runErr = err
		return
	}

	r := &run{
		id:           t.runID,
		history:      core.NewHistory(),
		participants: append(created, external...),
		logger:       logger,
	}

	logger.Info("Run started", "participants", len(r.participants), "created", len(created))

	runErr = e.converse(ctx, t, r, req.Prompt)
	if runErr == nil {
		logger.Info("Run completed", "rounds", r.round, "turns", r.history.AgentTurns())
	}
}

// converse seeds the history with the prompt and alternates selection,
// invocation, emission and the termination check until the run ends.
func (e *Engine) converse(ctx context.Context, t *Transcript, r *run, prompt string) error {
	seed := r.history.Append(core.NewUserMessage(prompt))
	if e.config.EchoPrompt {
		entry := Entry{Label: seed.Author, Content: seed.Content, AuthorKey: seed.Author, Role: core.RoleUser}
		if err := e.emit(ctx, t, r, entry); err != nil {
			return err
		}
	}

	r.advance(phaseRunning)

	for {
		if e.config.MaxRounds > 0 && r.round >= e.config.MaxRounds {
			return fmt.Errorf("%w: %d rounds", ErrRoundLimit, e.config.MaxRounds)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		state := r.state()
		agent, err := e.selection.Next(state)
		if err != nil {
			return err
		}
		if !state.HasParticipant(agent) {
			return core.NewConfigurationError("selection", fmt.Sprintf("agent %q is not a participant", agent.ID))
		}

		cbCtx := &CallbackContext{RunID: r.id, Round: r.round, Agent: agent}
		if err := e.callbacks.ExecuteCallbacks(ctx, CallbackBeforeInvoke, cbCtx); err != nil {
			return err
		}

		start := time.Now()
		reply, err := e.backend.Invoke(ctx, agent, r.history.Messages())
		logBackendCall(r.logger, "invoke", agent.Name(), time.Since(start), err)

		r.round++

		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			var be *core.BackendError
			if !errors.As(err, &be) {
				err = core.NewBackendError("invoke", agent.Name(), err)
			}
			return err
		}

		cbCtx.Round = r.round
		cbCtx.Message = reply
		if err := e.callbacks.ExecuteCallbacks(ctx, CallbackAfterInvoke, cbCtx); err != nil {
			return err
		}

		if reply == nil {
			r.logger.Debug("No reply", "agent", agent.Name(), "round", r.round)
			continue
		}

		msg := e.normalize(*reply, agent)

		if msg.Role != core.RoleAgent {
			// Tool and system notices are kept for context and shown when
			// they carry text. They never count as a turn.
			stored := r.history.Append(msg)
			if stored.IsEmpty() {
				continue
			}
			entry := Entry{
				Label:     stored.Role.String(),
				Content:   stored.Content,
				AuthorKey: core.DefaultAuthorKey,
				Round:     r.round,
				Role:      stored.Role,
			}
			if err := e.emit(ctx, t, r, entry); err != nil {
				return err
			}
			continue
		}

		if msg.IsEmpty() {
			r.logger.Debug("Empty reply skipped", "agent", agent.Name(), "round", r.round)
			continue
		}

		stored := r.history.Append(msg)
		entry := Entry{
			Label:     e.labeler(stored.TurnIndex, stored.Author),
			Content:   stored.Content,
			AuthorKey: stored.Author,
			Round:     r.round,
			Role:      stored.Role,
		}
		if err := e.emit(ctx, t, r, entry); err != nil {
			return err
		}

		if e.termination.ShouldStop(r.state()) {
			r.advance(phaseTerminated)
			return nil
		}
	}
}

// emit hands entry to the consumer, blocking until it is taken or the run
// is cancelled.
func (e *Engine) emit(ctx context.Context, t *Transcript, r *run, entry Entry) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case t.entries <- entry:
	}

	return e.callbacks.ExecuteCallbacks(ctx, CallbackOnEntry, &CallbackContext{
		RunID: r.id,
		Round: r.round,
		Entry: &entry,
	})
}

// normalize fills in what the backend left out and maps the author to its
// display name.
func (e *Engine) normalize(m core.Message, agent core.AgentHandle) core.Message {
	if m.Author == "" && m.Role == core.RoleAgent {
		m.Author = agent.Name()
	}
	m.Author = core.ShortName(m.Author, e.config.Namespace)
	m.Content = strings.TrimSpace(m.Content)
	if m.ID == "" {
		m.ID = core.NewID()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	return m
}

func runLogger(l logging.Logger, runID string) logging.Logger {
	if rl, ok := l.(*logging.RunLogger); ok {
		return rl.WithRun(runID)
	}
	return l
}

func logBackendCall(l logging.Logger, op, agent string, d time.Duration, err error) {
	if rl, ok := l.(*logging.RunLogger); ok {
		rl.LogBackendCall(op, agent, d, err)
		return
	}
	if err != nil {
		l.Error("Backend call failed", "op", op, "agent", agent, "duration", d, "error", err)
		return
	}
	l.Debug("Backend call completed", "op", op, "agent", agent, "duration", d)
}

func logRelease(l logging.Logger, handles, failures int, keep bool) {
	if handles == 0 {
		return
	}
	if rl, ok := l.(*logging.RunLogger); ok {
		rl.LogRelease(handles, failures, keep)
		return
	}
	if failures > 0 {
		l.Warn("Ephemeral agent release incomplete", "agents", handles, "failures", failures)
		return
	}
	l.Info("Ephemeral agents released", "agents", handles, "keep", keep)
}

func countEphemeral(handles []core.AgentHandle) int {
	n := 0
	for _, h := range handles {
		if h.Ephemeral {
			n++
		}
	}
	return n
}
