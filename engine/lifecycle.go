package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/groupchat/backend"
	"github.com/hupe1980/groupchat/core"
	"github.com/hupe1980/groupchat/logging"
)

// LifecycleOptions configures a Lifecycle.
type LifecycleOptions struct {
	// Model is the deployment or model id passed to CreateAgent.
	Model string

	// Namespace prefixes the backend name of every created agent.
	Namespace string

	// Concurrency bounds parallel deletions during Release. Values <= 0
	// release one agent at a time.
	Concurrency int

	// Logger receives lifecycle diagnostics.
	Logger logging.Logger
}

// Lifecycle creates the ephemeral agents of a run and guarantees their
// deletion.
type Lifecycle struct {
	backend     backend.Backend
	model       string
	namespace   string
	concurrency int
	logger      logging.Logger
}

// NewLifecycle creates a Lifecycle on top of be.
func NewLifecycle(be backend.Backend, optFns ...func(o *LifecycleOptions)) *Lifecycle {
	opts := LifecycleOptions{
		Concurrency: 1,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Lifecycle{
		backend:     be,
		model:       opts.Model,
		namespace:   opts.Namespace,
		concurrency: opts.Concurrency,
		logger:      opts.Logger,
	}
}

// Acquire creates one agent per profile, in order. On failure it returns the
// handles created so far together with the error so that the caller can
// release them.
func (l *Lifecycle) Acquire(ctx context.Context, profiles []core.Profile) ([]core.AgentHandle, error) {
	handles := make([]core.AgentHandle, 0, len(profiles))
	for _, p := range profiles {
		if err := ctx.Err(); err != nil {
			return handles, err
		}

		name := core.QualifiedName(l.namespace, p.Name)
		h, err := l.backend.CreateAgent(ctx, l.model, name, p.Instructions)
		if err != nil {
			var be *core.BackendError
			if !errors.As(err, &be) && !IsCancelled(err) {
				err = core.NewBackendError("create", p.Name, err)
			}
			l.logger.Error("Agent creation failed", "agent", p.Name, "created", len(handles), "error", err)
			return handles, err
		}
		if h.DisplayName == "" {
			h.DisplayName = p.Name
		} else {
			h.DisplayName = core.ShortName(h.DisplayName, l.namespace)
		}
		h.Ephemeral = true

		l.logger.Debug("Agent created", "agent", h.DisplayName, "id", h.ID)
		handles = append(handles, h)
	}

	return handles, nil
}

// Release deletes every ephemeral handle unless keep is set. Failures are
// collected rather than short-circuiting; the result is a *core.ReleaseError
// or nil. Non-ephemeral handles are never deleted.
func (l *Lifecycle) Release(ctx context.Context, handles []core.AgentHandle, keep bool) error {
	owned := make([]core.AgentHandle, 0, len(handles))
	for _, h := range handles {
		if h.Ephemeral {
			owned = append(owned, h)
		}
	}
	if len(owned) == 0 {
		return nil
	}
	if keep {
		l.logger.Info("Keeping ephemeral agents", "count", len(owned))
		return nil
	}

	failures := make([]error, len(owned))

	g := new(errgroup.Group)
	g.SetLimit(l.concurrency)

	for i, h := range owned {
		g.Go(func() error {
			if err := l.backend.DeleteAgent(ctx, h); err != nil {
				var be *core.BackendError
				if !errors.As(err, &be) {
					err = core.NewBackendError("delete", h.Name(), err)
				}
				failures[i] = err
				l.logger.Warn("Agent deletion failed", "agent", h.Name(), "id", h.ID, "error", err)
				return nil
			}
			l.logger.Debug("Agent deleted", "agent", h.Name(), "id", h.ID)
			return nil
		})
	}

	_ = g.Wait()

	var errs []error
	for _, err := range failures {
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return &core.ReleaseError{Failures: errs}
	}

	return nil
}

// Scope ties a set of acquired handles to exactly one release.
type Scope struct {
	lifecycle *Lifecycle
	keep      bool

	mu      sync.Mutex
	handles []core.AgentHandle

	once       sync.Once
	releaseErr error
	released   bool
}

// Scope returns a new, empty scope.
func (l *Lifecycle) Scope(keep bool) *Scope {
	return &Scope{lifecycle: l, keep: keep}
}

// Adopt adds caller-owned or pre-created handles to the scope.
func (s *Scope) Adopt(handles ...core.AgentHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handles = append(s.handles, handles...)
}

// Acquire creates agents for profiles and records them, including any that
// were created before a failure.
func (s *Scope) Acquire(ctx context.Context, profiles []core.Profile) ([]core.AgentHandle, error) {
	handles, err := s.lifecycle.Acquire(ctx, profiles)
	s.Adopt(handles...)
	if err != nil {
		return nil, fmt.Errorf("acquire agents: %w", err)
	}
	return handles, nil
}

// Handles returns the handles recorded so far.
func (s *Scope) Handles() []core.AgentHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.AgentHandle(nil), s.handles...)
}

// Release releases the recorded handles. Only the first call has an effect;
// later calls return the first result.
func (s *Scope) Release(ctx context.Context) error {
	s.once.Do(func() {
		s.releaseErr = s.lifecycle.Release(ctx, s.Handles(), s.keep)
		s.mu.Lock()
		s.released = true
		s.mu.Unlock()
	})
	return s.releaseErr
}

// Released reports whether Release has completed.
func (s *Scope) Released() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}
