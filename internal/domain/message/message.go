package message

import (
	"context"
	"time"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Status tracks an assistant message through its generation lifecycle.
// User messages are created completed and never move.
type Status string

const (
	// StatusWaiting is the placeholder state between createPair and the
	// first streamed delta.
	StatusWaiting Status = "waiting"
	// StatusStreaming means deltas are actively being appended.
	StatusStreaming Status = "streaming"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
	// StatusDisconnected records that the client went away mid-stream.
	StatusDisconnected Status = "disconnected"
	// StatusCancelled is applied by the stale generation reaper.
	StatusCancelled Status = "cancelled"
)

// IsTerminal reports whether the status is final. Terminal statuses are
// write-once: no transition ever leaves them.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusError, StatusDisconnected, StatusCancelled:
		return true
	}
	return false
}

// DefaultErrorText is shown to the user when generation fails for a reason
// we cannot phrase better.
const DefaultErrorText = "An error occurred while processing your request. Please try again."

// DisconnectedText marks assistant messages abandoned by the client.
const DisconnectedText = "User disconnected"

// ModelSnapshot freezes the model settings an assistant message was
// generated with, so later catalog changes do not rewrite history.
type ModelSnapshot struct {
	Name        string  `json:"name"`
	Temperature float32 `json:"temperature"`
	Search      bool    `json:"search"`
}

// Message is a single user or assistant turn within a thread.
type Message struct {
	ID       uint   `json:"-"`
	PublicID string `json:"id"` // "msg_" prefixed string ID
	ThreadID uint   `json:"-"`
	Role     Role   `json:"role"`
	Content  string `json:"content"`

	// Reasoning holds the model's thinking tokens, streamed separately
	// from content.
	Reasoning string `json:"reasoning,omitempty"`

	Status Status  `json:"status"`
	Error  *string `json:"error,omitempty"`

	// Model is set on assistant messages only.
	Model *ModelSnapshot `json:"model,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TerminalPatch is the one-shot write that finalizes an assistant message.
type TerminalPatch struct {
	Status    Status
	Content   string
	Reasoning string
	Error     *string
}

// MessageRepository persists messages.
type MessageRepository interface {
	// CreatePair inserts the user and assistant messages atomically. The
	// assistant message must sort after the user message.
	CreatePair(ctx context.Context, userMsg, assistantMsg *Message) error
	ListByThreadID(ctx context.Context, threadID uint) ([]*Message, error)
	FindByPublicID(ctx context.Context, threadID uint, publicID string) (*Message, error)
	// FindTrailing returns the newest message of the thread, or a not
	// found error when the thread is empty.
	FindTrailing(ctx context.Context, threadID uint) (*Message, error)
	// MarkStreaming moves a message from waiting to streaming. Reports
	// false when the message was no longer waiting.
	MarkStreaming(ctx context.Context, id uint) (bool, error)
	// PatchTerminal applies the patch only while the message is still
	// waiting or streaming. Reports false when a terminal status already
	// won the race.
	PatchTerminal(ctx context.Context, id uint, patch TerminalPatch) (bool, error)
	// CancelStale cancels generations stuck in a non-terminal status
	// since before the cutoff. Returns the number of messages reaped.
	CancelStale(ctx context.Context, olderThan time.Time) (int64, error)

	// CopyPrefix and FindCreatedAt serve thread branching.
	CopyPrefix(ctx context.Context, srcThreadID, dstThreadID uint, cutoff time.Time) (int, error)
	FindCreatedAt(ctx context.Context, threadID uint, messagePublicID string) (time.Time, error)
}
