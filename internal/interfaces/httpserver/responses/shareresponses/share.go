package shareresponses

import (
	"github.com/hanzlah101/t3-clone/internal/domain/thread"
	"github.com/hanzlah101/t3-clone/internal/interfaces/httpserver/responses/messageresponses"
)

// ShareResponse is returned when sharing is enabled or updated on a thread.
type ShareResponse struct {
	ThreadID   string `json:"thread_id"`
	ShareToken string `json:"share_token"`
	Access     string `json:"access"`
}

// SharedThreadResponse is the public view of a shared thread.
type SharedThreadResponse struct {
	Object   string                               `json:"object"`
	Title    string                               `json:"title"`
	ModelID  string                               `json:"model_id"`
	Access   string                               `json:"access"`
	Messages messageresponses.MessageListResponse `json:"messages"`
}

// NewShareResponse builds the owner-facing share state response.
func NewShareResponse(t *thread.Thread) ShareResponse {
	resp := ShareResponse{ThreadID: t.PublicID}
	if t.ShareToken != nil {
		resp.ShareToken = *t.ShareToken
	}
	if t.ShareAccess != nil {
		resp.Access = string(*t.ShareAccess)
	}
	return resp
}
