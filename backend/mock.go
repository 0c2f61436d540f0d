package backend

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/groupchat/core"
)

// ErrMockFailure is the default error injected by MockBackend failure hooks.
var ErrMockFailure = errors.New("mock backend failure")

// Call records one backend operation observed by MockBackend.
type Call struct {
	Op      string // create, invoke, delete or retrieve
	AgentID string
	Name    string
	History int // history length for invoke calls
}

// MockBackend is a deterministic in-memory Backend useful for tests and
// examples. Replies are looked up by agent display name; agents without a
// canned reply answer "<name> reply <n>". It is safe for concurrent use.
type MockBackend struct {
	mu        sync.Mutex
	namespace string
	agents    map[string]core.AgentHandle
	replies   map[string][]*core.Message
	served    map[string]int
	invokeErr map[int]error
	createErr map[string]error
	deleteErr map[string]error
	calls     []Call
	invokes   int
	nextID    int
	hook      func(ctx context.Context, agent core.AgentHandle) error
}

// NewMockBackend creates an empty MockBackend. Agent names created through
// CreateAgent are shortened with core.ShortName using namespace.
func NewMockBackend(namespace string) *MockBackend {
	return &MockBackend{
		namespace: namespace,
		agents:    map[string]core.AgentHandle{},
		replies:   map[string][]*core.Message{},
		served:    map[string]int{},
		invokeErr: map[int]error{},
		createErr: map[string]error{},
		deleteErr: map[string]error{},
	}
}

// AddReply queues a text reply for the named agent. Queued replies are
// served in order; the last one repeats once the queue is exhausted.
func (m *MockBackend) AddReply(name, content string) *MockBackend {
	msg := core.NewAgentMessage(name, content)
	return m.AddMessage(name, &msg)
}

// AddMessage queues an arbitrary reply (nil for "no reply") for the named agent.
func (m *MockBackend) AddMessage(name string, msg *core.Message) *MockBackend {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies[name] = append(m.replies[name], msg)
	return m
}

// FailInvoke makes the n-th Invoke call (1-based, across all agents) fail.
func (m *MockBackend) FailInvoke(n int, err error) *MockBackend {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		err = ErrMockFailure
	}
	m.invokeErr[n] = err
	return m
}

// FailCreate makes CreateAgent fail for the given (unqualified) profile name.
func (m *MockBackend) FailCreate(name string, err error) *MockBackend {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		err = ErrMockFailure
	}
	m.createErr[name] = err
	return m
}

// FailDelete makes DeleteAgent fail for the named agent.
func (m *MockBackend) FailDelete(name string, err error) *MockBackend {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		err = ErrMockFailure
	}
	m.deleteErr[name] = err
	return m
}

// OnInvoke installs a hook that runs before every Invoke, outside the mock's
// lock. A hook error is returned as the invoke failure.
func (m *MockBackend) OnInvoke(fn func(ctx context.Context, agent core.AgentHandle) error) *MockBackend {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hook = fn
	return m
}

// Register makes an externally owned agent known to the backend so it can be
// retrieved and invoked. The returned handle is not ephemeral.
func (m *MockBackend) Register(id, name string) core.AgentHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := core.AgentHandle{ID: id, DisplayName: name}
	m.agents[id] = h
	return h
}

// CreateAgent implements Backend.
func (m *MockBackend) CreateAgent(ctx context.Context, model, name, instructions string) (core.AgentHandle, error) {
	if err := ctx.Err(); err != nil {
		return core.AgentHandle{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	short := core.ShortName(name, m.namespace)
	m.calls = append(m.calls, Call{Op: "create", Name: short})
	if err, ok := m.createErr[short]; ok {
		return core.AgentHandle{}, core.NewBackendError("create", short, err)
	}
	m.nextID++
	h := core.AgentHandle{
		ID:          fmt.Sprintf("mock-%d-%s", m.nextID, short),
		DisplayName: short,
		Ephemeral:   true,
	}
	m.agents[h.ID] = h
	return h, nil
}

// RetrieveAgent implements Retriever.
func (m *MockBackend) RetrieveAgent(ctx context.Context, id string) (core.AgentHandle, error) {
	if err := ctx.Err(); err != nil {
		return core.AgentHandle{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Op: "retrieve", AgentID: id})
	h, ok := m.agents[id]
	if !ok {
		return core.AgentHandle{}, core.NewBackendError("retrieve", id, fmt.Errorf("agent %s not found", id))
	}
	h.Ephemeral = false
	return h, nil
}

// Invoke implements Backend.
func (m *MockBackend) Invoke(ctx context.Context, agent core.AgentHandle, history []core.Message) (*core.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	hook := m.hook
	m.mu.Unlock()
	if hook != nil {
		if err := hook(ctx, agent); err != nil {
			return nil, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invokes++
	m.calls = append(m.calls, Call{Op: "invoke", AgentID: agent.ID, Name: agent.Name(), History: len(history)})
	if err, ok := m.invokeErr[m.invokes]; ok {
		return nil, core.NewBackendError("invoke", agent.Name(), err)
	}
	name := agent.Name()
	queue := m.replies[name]
	if len(queue) == 0 {
		m.served[name]++
		reply := core.NewAgentMessage(name, fmt.Sprintf("%s reply %d", name, m.served[name]))
		return &reply, nil
	}
	idx := m.served[name]
	if idx >= len(queue) {
		idx = len(queue) - 1
	}
	m.served[name]++
	if queue[idx] == nil {
		return nil, nil
	}
	reply := *queue[idx]
	return &reply, nil
}

// DeleteAgent implements Backend. Unknown ids are ignored.
func (m *MockBackend) DeleteAgent(ctx context.Context, agent core.AgentHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Op: "delete", AgentID: agent.ID, Name: agent.Name()})
	if err, ok := m.deleteErr[agent.Name()]; ok {
		return core.NewBackendError("delete", agent.Name(), err)
	}
	delete(m.agents, agent.ID)
	return nil
}

// Info implements Describer.
func (m *MockBackend) Info() Info { return Info{Name: "mock", Provider: "mock"} }

// Calls returns a copy of all recorded calls in order.
func (m *MockBackend) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallsFor returns the recorded calls of a single operation.
func (m *MockBackend) CallsFor(op string) []Call {
	var out []Call
	for _, c := range m.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Live returns the number of agents currently known to the backend.
func (m *MockBackend) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.agents)
}
