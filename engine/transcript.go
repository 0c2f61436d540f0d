package engine

import (
	"context"
	"errors"
	"iter"
	"sync"

	"github.com/hupe1980/groupchat/core"
)

// Entry is one line of a transcript as shown to a consumer. Entries carry no
// identifiers or timestamps, so equal inputs produce equal transcripts.
type Entry struct {
	// Label is the heading of the entry, e.g. "turn 1: planner".
	Label string `json:"label"`

	// Content is the message text.
	Content string `json:"content"`

	// AuthorKey selects presentation (colour) for the entry.
	AuthorKey string `json:"author_key"`

	// Round is the number of completed rounds when the entry was emitted.
	Round int `json:"round"`

	// Role is the role of the underlying message.
	Role core.Role `json:"role"`
}

// Transcript is the lazily produced, finite stream of entries of one run.
//
// The run advances only as fast as entries are consumed. Closing the
// transcript cancels the run; teardown still completes before Done is
// closed.
type Transcript struct {
	runID   string
	entries chan Entry
	done    chan struct{}
	cancel  context.CancelFunc

	closeOnce sync.Once

	mu         sync.Mutex
	err        error
	releaseErr error
}

func newTranscript(runID string, bufferSize int, cancel context.CancelFunc) *Transcript {
	if bufferSize < 0 {
		bufferSize = 0
	}
	return &Transcript{
		runID:   runID,
		entries: make(chan Entry, bufferSize),
		done:    make(chan struct{}),
		cancel:  cancel,
	}
}

// RunID returns the identifier of the run.
func (t *Transcript) RunID() string { return t.runID }

// Entries returns the entry channel. It is closed after teardown.
func (t *Transcript) Entries() <-chan Entry { return t.entries }

// Next blocks for the next entry. It returns false once the run has ended.
func (t *Transcript) Next() (Entry, bool) {
	e, ok := <-t.entries
	return e, ok
}

// All returns an iterator over the remaining entries. Breaking out of the
// loop closes the transcript.
func (t *Transcript) All() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for e := range t.entries {
			if !yield(e) {
				_ = t.Close()
				return
			}
		}
	}
}

// Done is closed when the run, including teardown, has finished.
func (t *Transcript) Done() <-chan struct{} { return t.done }

// Wait blocks until the run has finished and returns Err.
func (t *Transcript) Wait() error {
	<-t.done
	return t.Err()
}

// Close cancels the run if it is still active and waits for teardown.
// It returns the release error, if any. Close is idempotent.
func (t *Transcript) Close() error {
	t.closeOnce.Do(t.cancel)
	// Drain so that a run blocked on a full buffer observes cancellation.
	for range t.entries {
	}
	<-t.done
	return t.ReleaseErr()
}

// Err returns the error that ended the run: a configuration, backend or
// cancellation error. When the run itself succeeded but teardown failed,
// the release error is returned. Err is meaningful after Done is closed.
func (t *Transcript) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return t.err
	}
	return t.releaseErr
}

// ReleaseErr returns the teardown failure, if any, as a *core.ReleaseError.
func (t *Transcript) ReleaseErr() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.releaseErr
}

func (t *Transcript) finish(runErr, releaseErr error) {
	t.mu.Lock()
	t.err = runErr
	t.releaseErr = releaseErr
	t.mu.Unlock()
	close(t.entries)
	close(t.done)
}

// Collect drains t and returns all entries together with Err.
func Collect(t *Transcript) ([]Entry, error) {
	var entries []Entry
	for e := range t.entries {
		entries = append(entries, e)
	}
	<-t.done
	return entries, t.Err()
}

// IsCancelled reports whether err stems from a cancelled or expired context.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
