// Package engine runs multi-agent group conversations.
//
// A run seeds a fresh history with the user's prompt, creates one ephemeral
// agent per profile, and then repeatedly asks the selection strategy who
// speaks next, invokes that agent through the backend, and emits the reply
// as a transcript entry until the termination strategy stops the
// conversation. Created agents are deleted on every exit path: normal
// completion, backend failure, and cancellation by the caller or by the
// consumer closing the transcript.
//
// # Streaming
//
// Stream returns a Transcript right away. Entries are produced lazily: with
// the default unbuffered channel the run does not invoke the next agent
// until the previous entry has been taken.
//
//	t, err := eng.Stream(ctx, engine.Request{Prompt: prompt, Profiles: profiles})
//	if err != nil {
//	    return err // configuration problem, nothing was created
//	}
//	for entry := range t.All() {
//	    fmt.Println(entry.Label, entry.Content)
//	}
//	return t.Err()
//
// # Errors
//
// Configuration errors are returned by Stream before any agent exists.
// Backend failures and cancellation end the run and are reported by
// Transcript.Err after teardown. Teardown failures never mask the original
// error; they are available through Transcript.ReleaseErr.
//
// # Callbacks
//
// A CallbackManager exposes the points of a run (before and after every
// invocation, for every entry, on error and after release) for tracing,
// auditing or tests.
package engine
