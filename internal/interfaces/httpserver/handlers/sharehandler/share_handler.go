package sharehandler

import (
	"context"

	"github.com/hanzlah101/t3-clone/internal/domain/message"
	"github.com/hanzlah101/t3-clone/internal/domain/thread"
	"github.com/hanzlah101/t3-clone/internal/infrastructure/metrics"
	"github.com/hanzlah101/t3-clone/internal/interfaces/httpserver/responses/messageresponses"
	"github.com/hanzlah101/t3-clone/internal/interfaces/httpserver/responses/shareresponses"
	"github.com/hanzlah101/t3-clone/internal/interfaces/httpserver/responses/threadresponses"
	"github.com/hanzlah101/t3-clone/internal/utils/platformerrors"
)

// ShareHandler handles share links and the public shared thread view.
type ShareHandler struct {
	threads  *thread.ThreadService
	messages *message.MessageService
}

func NewShareHandler(threads *thread.ThreadService, messages *message.MessageService) *ShareHandler {
	return &ShareHandler{threads: threads, messages: messages}
}

// SetShare enables or updates sharing on an owned thread. The token is
// minted once and survives access level changes.
func (h *ShareHandler) SetShare(ctx context.Context, userID, publicID string, access thread.ShareAccess) (*shareresponses.ShareResponse, error) {
	t, err := h.threads.SetShare(ctx, userID, publicID, access)
	if err != nil {
		metrics.RecordShare("set", "error")
		return nil, platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "failed to share thread")
	}
	metrics.RecordShare("set", "ok")
	resp := shareresponses.NewShareResponse(t)
	return &resp, nil
}

// ClearShare revokes the share link.
func (h *ShareHandler) ClearShare(ctx context.Context, userID, publicID string) error {
	if _, err := h.threads.ClearShare(ctx, userID, publicID); err != nil {
		metrics.RecordShare("clear", "error")
		return platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "failed to revoke share")
	}
	metrics.RecordShare("clear", "ok")
	return nil
}

// GetSharedThread returns the public view of a shared thread. No auth.
func (h *ShareHandler) GetSharedThread(ctx context.Context, token string) (*shareresponses.SharedThreadResponse, error) {
	t, err := h.threads.GetSharedThread(ctx, token)
	if err != nil {
		metrics.RecordSharedThreadRequest("get", "error")
		return nil, platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "shared thread not found")
	}

	msgs, err := h.messages.ListMessages(ctx, t)
	if err != nil {
		metrics.RecordSharedThreadRequest("get", "error")
		return nil, platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "failed to list shared messages")
	}

	metrics.RecordSharedThreadRequest("get", "ok")
	resp := &shareresponses.SharedThreadResponse{
		Object:   "shared_thread",
		Title:    t.Title,
		ModelID:  t.ModelID,
		Messages: messageresponses.NewMessageListResponse(msgs),
	}
	if t.ShareAccess != nil {
		resp.Access = string(*t.ShareAccess)
	}
	return resp, nil
}

// ForkFromShare copies a shared thread into the caller's account.
func (h *ShareHandler) ForkFromShare(ctx context.Context, token, userID string) (*threadresponses.ThreadResponse, error) {
	forked, err := h.threads.ForkFromShare(ctx, token, userID)
	if err != nil {
		metrics.RecordSharedThreadRequest("fork", "error")
		return nil, platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "failed to fork shared thread")
	}
	metrics.RecordSharedThreadRequest("fork", "ok")
	resp := threadresponses.NewThreadResponse(forked)
	return &resp, nil
}
