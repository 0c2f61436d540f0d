package core

import "strings"

// Role identifies who produced a message. The set is closed; backends map
// their own role vocabulary onto it with RoleFromWire.
type Role int

const (
	// RoleUser marks the seeding prompt or any caller supplied message.
	RoleUser Role = iota
	// RoleAgent marks a reply produced by a participant.
	RoleAgent
	// RoleTool marks tool or function call records surfaced by a backend.
	RoleTool
	// RoleSystem marks backend notices that are neither replies nor tool output.
	RoleSystem
)

// String returns the lower case role name used in labels and logs.
func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAgent:
		return "agent"
	case RoleTool:
		return "tool"
	case RoleSystem:
		return "system"
	default:
		return "unknown"
	}
}

// Wire returns the conventional chat API role name ("assistant" for agents).
func (r Role) Wire() string {
	if r == RoleAgent {
		return "assistant"
	}
	return r.String()
}

// RoleFromWire maps a backend role name onto a Role. Unknown names report false.
func RoleFromWire(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user":
		return RoleUser, true
	case "assistant", "agent", "model":
		return RoleAgent, true
	case "tool", "function":
		return RoleTool, true
	case "system", "developer":
		return RoleSystem, true
	default:
		return RoleSystem, false
	}
}
