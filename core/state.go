package core

// State is a read-only view of a run handed to selection and termination
// strategies. Round is the number of completed rounds. Strategies must not
// retain the slices beyond the call.
type State struct {
	History      []Message
	Round        int
	Participants []AgentHandle
}

// NewState snapshots history together with round and participants.
func NewState(h *History, round int, participants []AgentHandle) State {
	ps := make([]AgentHandle, len(participants))
	copy(ps, participants)
	return State{History: h.Messages(), Round: round, Participants: ps}
}

// AgentTurns counts the Agent messages in the view.
func (s State) AgentTurns() int {
	n := 0
	for _, m := range s.History {
		if m.Role == RoleAgent {
			n++
		}
	}
	return n
}

// LastMessage returns the newest message of the view.
func (s State) LastMessage() (Message, bool) {
	if len(s.History) == 0 {
		return Message{}, false
	}
	return s.History[len(s.History)-1], true
}

// LastAgentMessage returns the newest Agent message of the view.
func (s State) LastAgentMessage() (Message, bool) {
	for i := len(s.History) - 1; i >= 0; i-- {
		if s.History[i].Role == RoleAgent {
			return s.History[i], true
		}
	}
	return Message{}, false
}

// HasParticipant reports whether h is one of the participants (by id).
func (s State) HasParticipant(h AgentHandle) bool {
	for _, p := range s.Participants {
		if p.ID == h.ID {
			return true
		}
	}
	return false
}
