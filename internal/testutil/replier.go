package testutil

import (
	"context"
	"sync"
)

// RecordingReplier captures replies and posts instead of sending them.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type RecordingReplier struct {
	mu      sync.Mutex
	replies []string
	posts   []string

	// Err, when set, is returned by Reply and Post after recording.
	Err error
}

// Reply records a reply.
func (r *RecordingReplier) Reply(_ context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, text)
	return r.Err
}

// Post records a room message.
func (r *RecordingReplier) Post(_ context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts = append(r.posts, text)
	return r.Err
}

// Replies returns a copy of the recorded replies.
func (r *RecordingReplier) Replies() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.replies...)
}

// Posts returns a copy of the recorded room messages.
func (r *RecordingReplier) Posts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.posts...)
}
