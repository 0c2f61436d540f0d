package strategy

import (
	"strings"

	"github.com/hupe1980/groupchat/core"
)

// DefaultMaxIterations is the number of agent replies after which
// MaxIterations stops a conversation when no bound is given.
const DefaultMaxIterations = 4

// TerminationStrategy decides, after an agent reply has been appended,
// whether the conversation should stop.
type TerminationStrategy interface {
	ShouldStop(state core.State) bool
}

// TerminationFunc adapts a plain predicate to TerminationStrategy.
type TerminationFunc func(state core.State) bool

// ShouldStop implements TerminationStrategy.
func (f TerminationFunc) ShouldStop(state core.State) bool { return f(state) }

// MaxIterations stops once the number of agent messages reaches the bound.
type MaxIterations struct {
	max int
}

// NewMaxIterations creates a MaxIterations strategy. Non-positive bounds use
// DefaultMaxIterations.
func NewMaxIterations(max int) MaxIterations {
	if max <= 0 {
		max = DefaultMaxIterations
	}
	return MaxIterations{max: max}
}

// Max returns the configured bound.
func (m MaxIterations) Max() int { return m.max }

// ShouldStop implements TerminationStrategy.
func (m MaxIterations) ShouldStop(state core.State) bool {
	max := m.max
	if max <= 0 {
		max = DefaultMaxIterations
	}
	return state.AgentTurns() >= max
}

// Keyword stops when the newest agent reply contains keyword
// (case-insensitive).
func Keyword(keyword string) TerminationStrategy {
	needle := strings.ToLower(keyword)
	return TerminationFunc(func(state core.State) bool {
		if needle == "" {
			return false
		}
		last, ok := state.LastAgentMessage()
		if !ok {
			return false
		}
		return strings.Contains(strings.ToLower(last.Content), needle)
	})
}

// AnyOf stops as soon as one of the strategies asks to stop.
func AnyOf(strategies ...TerminationStrategy) TerminationStrategy {
	return TerminationFunc(func(state core.State) bool {
		for _, s := range strategies {
			if s != nil && s.ShouldStop(state) {
				return true
			}
		}
		return false
	})
}
