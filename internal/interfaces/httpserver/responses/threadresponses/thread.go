package threadresponses

import (
	"time"

	"github.com/hanzlah101/t3-clone/internal/domain/thread"
)

// ThreadResponse represents a thread in API responses.
type ThreadResponse struct {
	ID             string    `json:"id"`
	Object         string    `json:"object"`
	Title          string    `json:"title"`
	ModelID        string    `json:"model_id"`
	LastMessageAt  time.Time `json:"last_message_at"`
	BranchParentID *string   `json:"branch_parent_id,omitempty"`
	ShareToken     *string   `json:"share_token,omitempty"`
	ShareAccess    *string   `json:"share_access,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ThreadListResponse represents a list of threads.
type ThreadListResponse struct {
	Object string           `json:"object"`
	Data   []ThreadResponse `json:"data"`
}

// NewThreadResponse converts a domain thread into its API shape.
func NewThreadResponse(t *thread.Thread) ThreadResponse {
	resp := ThreadResponse{
		ID:             t.PublicID,
		Object:         "thread",
		Title:          t.Title,
		ModelID:        t.ModelID,
		LastMessageAt:  t.LastMessageAt,
		BranchParentID: t.BranchParentPublicID,
		ShareToken:     t.ShareToken,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
	if t.ShareAccess != nil {
		access := string(*t.ShareAccess)
		resp.ShareAccess = &access
	}
	return resp
}

// NewThreadListResponse converts a slice of threads into a list response.
func NewThreadListResponse(threads []*thread.Thread) ThreadListResponse {
	data := make([]ThreadResponse, 0, len(threads))
	for _, t := range threads {
		data = append(data, NewThreadResponse(t))
	}
	return ThreadListResponse{Object: "list", Data: data}
}
