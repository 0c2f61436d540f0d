// Package core provides the foundational domain types used by groupchat.
// It defines the data model shared by the engine, the strategies and the
// backends:
//
//   - Roles (closed set of conversation roles decoupled from any backend)
//   - Messages (immutable conversation records)
//   - AgentHandles and Profiles (participant identities and definitions)
//   - History and State (append-only record and read-only round views)
//   - The error taxonomy (configuration, backend, empty participants, release)
//
// The package keeps orchestration and transport concerns out of scope,
// exposing plain values so strategies and backends stay easy to test.
package core
