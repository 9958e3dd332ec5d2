package thread

import (
	"context"
	"time"
)

// ShareAccess controls what a visitor holding the share token may do with
// the shared view. Writes never land on a shared thread either way; an
// editable share lets the visitor fork the thread and continue in the copy.
type ShareAccess string

const (
	ShareAccessReadOnly ShareAccess = "readonly"
	ShareAccessEditable ShareAccess = "editable"
)

// Thread is one conversation owned by a single user.
type Thread struct {
	ID       uint   `json:"-"`
	PublicID string `json:"id"` // "thr_" prefixed string ID
	UserID   string `json:"-"`
	Title    string `json:"title"`
	ModelID  string `json:"model_id"`

	// LastMessageAt orders the sidebar. Updated on every message write.
	LastMessageAt time.Time `json:"last_message_at"`

	// BranchParentPublicID points at the thread this one was branched off
	// from. It is informational and cleared when the parent is deleted.
	BranchParentPublicID *string `json:"branch_parent_id,omitempty"`

	ShareToken  *string      `json:"share_token,omitempty"`
	ShareAccess *ShareAccess `json:"share_access,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsShared reports whether the thread currently has an active share link.
func (t *Thread) IsShared() bool {
	return t.ShareToken != nil && *t.ShareToken != ""
}

// ThreadFilter narrows repository lookups.
type ThreadFilter struct {
	ID         *uint
	PublicID   *string
	UserID     *string
	ShareToken *string
}

// ThreadRepository persists threads.
type ThreadRepository interface {
	Create(ctx context.Context, thread *Thread) error
	FindByPublicID(ctx context.Context, publicID string) (*Thread, error)
	FindByShareToken(ctx context.Context, token string) (*Thread, error)
	ListByUserID(ctx context.Context, userID string) ([]*Thread, error)
	Update(ctx context.Context, thread *Thread) error
	// TouchLastMessage bumps LastMessageAt without rewriting the row.
	TouchLastMessage(ctx context.Context, id uint, at time.Time) error
	// Delete soft deletes the thread and hard deletes its messages.
	Delete(ctx context.Context, id uint) error
	// DetachChildren clears BranchParentPublicID on threads branched off
	// the given public ID. Called when the parent is deleted so children
	// survive as independent threads.
	DetachChildren(ctx context.Context, parentPublicID string) error
}

// MessageCopier copies a message prefix between threads. Implemented by the
// message repository; declared here so branching stays a thread concern
// without the thread package importing message internals.
type MessageCopier interface {
	// CopyPrefix clones every completed message of srcThreadID created at
	// or before cutoff into dstThreadID with fresh public IDs, preserving
	// order and original creation timestamps.
	CopyPrefix(ctx context.Context, srcThreadID, dstThreadID uint, cutoff time.Time) (int, error)
	// FindCreatedAt resolves a message public ID within a thread to its
	// creation time, for use as a branch cutoff.
	FindCreatedAt(ctx context.Context, threadID uint, messagePublicID string) (time.Time, error)
}
