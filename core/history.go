package core

import "sync"

// History is the append-only, ordered record of a conversation. Append order
// is the causal order of the conversation. It is safe for concurrent access,
// although a run only ever appends from its own loop.
type History struct {
	mu       sync.RWMutex
	messages []Message
	turns    int
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{messages: []Message{}}
}

// Append adds a message to the end of the history. Agent messages receive
// the next turn index; the stored copy is returned.
func (h *History) Append(m Message) Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m.Role == RoleAgent {
		h.turns++
		m.TurnIndex = h.turns
	} else {
		m.TurnIndex = 0
	}
	h.messages = append(h.messages, m)
	return m
}

// Messages returns a defensive copy of all messages in append order.
func (h *History) Messages() []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Len returns the number of messages appended so far.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}

// AgentTurns returns the number of Agent messages appended so far.
func (h *History) AgentTurns() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.turns
}

// Last returns the most recent message, if any.
func (h *History) Last() (Message, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.messages) == 0 {
		return Message{}, false
	}
	return h.messages[len(h.messages)-1], true
}
