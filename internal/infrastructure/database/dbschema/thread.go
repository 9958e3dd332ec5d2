package dbschema

import (
	"time"

	"github.com/hanzlah101/t3-clone/internal/domain/thread"
)

// Thread represents the database schema for threads.
type Thread struct {
	BaseModel
	PublicID             string    `gorm:"type:varchar(50);uniqueIndex;not null"`
	UserID               string    `gorm:"type:varchar(255);index:idx_threads_user_last_message;not null"`
	Title                string    `gorm:"type:varchar(256);not null;default:'New Chat'"`
	ModelID              string    `gorm:"type:varchar(100);not null"`
	LastMessageAt        time.Time `gorm:"index:idx_threads_user_last_message;not null"`
	BranchParentPublicID *string   `gorm:"type:varchar(50);index"`
	ShareToken           *string   `gorm:"type:varchar(22);uniqueIndex"`
	ShareAccess          *string   `gorm:"type:varchar(10)"`
}

// NewSchemaThread creates a database schema from a domain thread.
func NewSchemaThread(t *thread.Thread) *Thread {
	var access *string
	if t.ShareAccess != nil {
		a := string(*t.ShareAccess)
		access = &a
	}

	return &Thread{
		BaseModel: BaseModel{
			ID:        t.ID,
			CreatedAt: t.CreatedAt,
			UpdatedAt: t.UpdatedAt,
		},
		PublicID:             t.PublicID,
		UserID:               t.UserID,
		Title:                t.Title,
		ModelID:              t.ModelID,
		LastMessageAt:        t.LastMessageAt,
		BranchParentPublicID: t.BranchParentPublicID,
		ShareToken:           t.ShareToken,
		ShareAccess:          access,
	}
}

// EtoD converts the database schema to a domain thread.
func (t *Thread) EtoD() *thread.Thread {
	var access *thread.ShareAccess
	if t.ShareAccess != nil {
		a := thread.ShareAccess(*t.ShareAccess)
		access = &a
	}

	return &thread.Thread{
		ID:                   t.ID,
		PublicID:             t.PublicID,
		UserID:               t.UserID,
		Title:                t.Title,
		ModelID:              t.ModelID,
		LastMessageAt:        t.LastMessageAt,
		BranchParentPublicID: t.BranchParentPublicID,
		ShareToken:           t.ShareToken,
		ShareAccess:          access,
		CreatedAt:            t.CreatedAt,
		UpdatedAt:            t.UpdatedAt,
	}
}
