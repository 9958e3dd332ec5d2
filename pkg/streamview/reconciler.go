// Package streamview reconciles the two feeds a chat client receives for a
// thread: the authoritative message list from the backend and the live SSE
// delta stream of the in-flight generation. It is transport-agnostic and
// safe for concurrent use, so a client can pump both feeds from separate
// goroutines and render from a third.
package streamview

import (
	"sync"
)

// Status mirrors the server-side message lifecycle.
type Status string

const (
	StatusWaiting      Status = "waiting"
	StatusStreaming    Status = "streaming"
	StatusCompleted    Status = "completed"
	StatusError        Status = "error"
	StatusDisconnected Status = "disconnected"
	StatusCancelled    Status = "cancelled"
)

// Terminal reports whether no further mutation follows this status.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusError, StatusDisconnected, StatusCancelled:
		return true
	}
	return false
}

// Message is the client-side rendering of one message.
type Message struct {
	ID        string
	Role      string
	Content   string
	Reasoning string
	Status    Status
	Error     string
}

// Event is one frame from the generation stream.
type Event struct {
	Type      string
	Delta     string
	MessageID string
	Status    string
	Error     string
}

// Stream event types, matching the server's SSE frames.
const (
	EventTextDelta      = "text-delta"
	EventReasoningDelta = "reasoning-delta"
	EventToolCall       = "tool-call"
	EventDone           = "done"
	EventError          = "error"
)

// liveBuffer accumulates the in-flight generation for the thread.
type liveBuffer struct {
	messageID string
	content   string
	reasoning string
	status    Status
	errText   string
	stale     bool
}

// View holds the reconciled state of a single thread.
//
// Render applies the merge rule: every authoritative message is shown as-is,
// except the trailing one while it is still non-terminal and a live buffer
// exists, in which case the buffer is strictly more current and is rendered
// in its place. As soon as the authoritative trailing message reaches a
// terminal status the buffer is stale and permanently ignored, even if the
// transport has not closed yet, so the view never flickers back to partial
// content. Deltas may arrive before, during, or after store refreshes.
type View struct {
	mu       sync.Mutex
	threadID string
	messages []Message
	buffer   *liveBuffer

	speculative map[string][]Message
	order       []string
}

// NewView creates an empty view for one thread.
func NewView(threadID string) *View {
	return &View{
		threadID:    threadID,
		speculative: make(map[string][]Message),
	}
}

// ThreadID returns the thread this view reconciles.
func (v *View) ThreadID() string {
	return v.threadID
}

// SetMessages replaces the authoritative message list with a fresh
// point-in-time snapshot from the store.
func (v *View) SetMessages(messages []Message) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.messages = make([]Message, len(messages))
	copy(v.messages, messages)
	v.expireBufferLocked()
}

// ApplyEvent feeds one stream frame into the live buffer. Frames for a
// stale buffer are dropped.
func (v *View) ApplyEvent(event Event) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.buffer == nil {
		v.buffer = &liveBuffer{status: StatusStreaming}
	}
	if v.buffer.stale {
		return
	}
	if event.MessageID != "" {
		v.buffer.messageID = event.MessageID
	}

	switch event.Type {
	case EventTextDelta:
		v.buffer.content += event.Delta
	case EventReasoningDelta:
		v.buffer.reasoning += event.Delta
	case EventDone:
		v.buffer.status = StatusCompleted
		if event.Status != "" {
			v.buffer.status = Status(event.Status)
		}
	case EventError:
		v.buffer.status = StatusError
		if event.Status != "" {
			v.buffer.status = Status(event.Status)
		}
		v.buffer.errText = event.Error
	}
}

// Render produces the message list to display right now.
func (v *View) Render() []Message {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.expireBufferLocked()

	out := make([]Message, len(v.messages))
	copy(out, v.messages)

	if v.buffer != nil && !v.buffer.stale && len(out) > 0 {
		trailing := &out[len(out)-1]
		if !trailing.Status.Terminal() {
			trailing.Content = v.buffer.content
			trailing.Reasoning = v.buffer.reasoning
			trailing.Status = v.buffer.status
			trailing.Error = v.buffer.errText
			if v.buffer.messageID != "" {
				trailing.ID = v.buffer.messageID
			}
		}
	}

	for _, id := range v.order {
		out = append(out, v.speculative[id]...)
	}
	return out
}

// Speculate registers an optimistic local mutation: the given messages are
// rendered after the authoritative list until the mutation is confirmed or
// rolled back.
func (v *View) Speculate(mutationID string, messages ...Message) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, exists := v.speculative[mutationID]; !exists {
		v.order = append(v.order, mutationID)
	}
	v.speculative[mutationID] = messages
}

// Confirm resolves an optimistic mutation. The server-confirmed state
// supersedes the speculative one, so the overlay is simply dropped; the next
// SetMessages snapshot carries the confirmed rows.
func (v *View) Confirm(mutationID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.dropSpeculativeLocked(mutationID)
}

// Rollback discards a failed optimistic mutation.
func (v *View) Rollback(mutationID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.dropSpeculativeLocked(mutationID)
}

// Reset drops the live buffer so a new generation can stream into a fresh
// one. Call when starting the next prompt on this thread.
func (v *View) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.buffer = nil
}

func (v *View) dropSpeculativeLocked(mutationID string) {
	if _, exists := v.speculative[mutationID]; !exists {
		return
	}
	delete(v.speculative, mutationID)
	for i, id := range v.order {
		if id == mutationID {
			v.order = append(v.order[:i], v.order[i+1:]...)
			break
		}
	}
}

// expireBufferLocked marks the buffer stale once the authoritative trailing
// message is terminal.
func (v *View) expireBufferLocked() {
	if v.buffer == nil || v.buffer.stale || len(v.messages) == 0 {
		return
	}
	if v.messages[len(v.messages)-1].Status.Terminal() {
		v.buffer.stale = true
	}
}
