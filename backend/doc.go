// Package backend defines the contract between the orchestration core and a
// remote agent service, plus an in-memory MockBackend for tests and offline
// examples.
//
// A Backend creates agents from a name and instructions, invokes an agent
// with the full ordered conversation history and deletes agents it created.
// Concrete implementations live in the subpackages openai (Assistants API,
// including Azure OpenAI deployments) and anthropic (Messages API with
// process-local agent definitions).
//
// Implementations map their own role vocabulary onto core.Role at this
// boundary and report failures as *core.BackendError.
package backend
