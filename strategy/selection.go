package strategy

import (
	"fmt"

	"github.com/hupe1980/groupchat/core"
)

// SelectionStrategy picks the participant that speaks in the next round.
// It must return one of state.Participants.
type SelectionStrategy interface {
	Next(state core.State) (core.AgentHandle, error)
}

// SelectionFunc adapts a plain function to SelectionStrategy.
type SelectionFunc func(state core.State) (core.AgentHandle, error)

// Next implements SelectionStrategy.
func (f SelectionFunc) Next(state core.State) (core.AgentHandle, error) { return f(state) }

// RoundRobin selects participants in order: participants[round mod len].
type RoundRobin struct{}

// NewRoundRobin creates the sequential round-robin selection strategy.
func NewRoundRobin() RoundRobin { return RoundRobin{} }

// Next implements SelectionStrategy.
func (RoundRobin) Next(state core.State) (core.AgentHandle, error) {
	n := len(state.Participants)
	if n == 0 {
		return core.AgentHandle{}, &core.EmptyParticipantsError{}
	}
	round := state.Round
	if round < 0 {
		return core.AgentHandle{}, fmt.Errorf("invalid round %d", round)
	}
	return state.Participants[round%n], nil
}

// ByName always selects the participant with the given display name, falling
// back to next when it is not present. Useful for pinning a facilitator.
func ByName(name string, next SelectionStrategy) SelectionStrategy {
	return SelectionFunc(func(state core.State) (core.AgentHandle, error) {
		for _, p := range state.Participants {
			if p.Name() == name {
				return p, nil
			}
		}
		return next.Next(state)
	})
}
