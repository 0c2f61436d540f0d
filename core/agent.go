package core

import "strings"

// DefaultAuthorKey is used for messages without an identifiable author.
const DefaultAuthorKey = "assistant"

// AgentHandle identifies a participant known to a backend. Handles are
// immutable once created. Ephemeral handles were created by the current run
// and are owned by it; all others were supplied by the caller.
type AgentHandle struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Ephemeral   bool   `json:"ephemeral"`
}

// Name returns the display name or DefaultAuthorKey when it is empty.
func (h AgentHandle) Name() string {
	if h.DisplayName == "" {
		return DefaultAuthorKey
	}
	return h.DisplayName
}

// Profile describes an agent to be created for a run.
type Profile struct {
	Name         string `json:"name"`
	Instructions string `json:"instructions"`
}

// QualifiedName prefixes name with namespace ("ns-name"). An empty namespace
// returns name unchanged.
func QualifiedName(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "-" + name
}

// ShortName maps a backend agent name to its display form: the namespace
// prefix is stripped and empty names become DefaultAuthorKey.
func ShortName(name, namespace string) string {
	if name == "" {
		return DefaultAuthorKey
	}
	if namespace != "" {
		if short, ok := strings.CutPrefix(name, namespace+"-"); ok && short != "" {
			return short
		}
	}
	return name
}
