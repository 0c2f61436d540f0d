// Package strategy provides the pluggable policies that govern a group chat:
// selection strategies decide who speaks next, termination strategies decide
// when the conversation is over.
//
// Both receive a read-only core.State snapshot. Implementations must be
// deterministic for a fixed state and must not retain the snapshot.
package strategy
