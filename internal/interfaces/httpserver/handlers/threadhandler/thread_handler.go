package threadhandler

import (
	"context"

	"github.com/hanzlah101/t3-clone/internal/domain/generation"
	"github.com/hanzlah101/t3-clone/internal/domain/message"
	"github.com/hanzlah101/t3-clone/internal/domain/model"
	"github.com/hanzlah101/t3-clone/internal/domain/thread"
	"github.com/hanzlah101/t3-clone/internal/interfaces/httpserver/requests/threadrequests"
	"github.com/hanzlah101/t3-clone/internal/interfaces/httpserver/responses/messageresponses"
	"github.com/hanzlah101/t3-clone/internal/interfaces/httpserver/responses/threadresponses"
	"github.com/hanzlah101/t3-clone/internal/utils/platformerrors"
)

// defaultThreadTitle marks threads whose title has not been generated yet.
const defaultThreadTitle = "New Chat"

// ThreadHandler handles thread CRUD and message pair insertion.
type ThreadHandler struct {
	threads  *thread.ThreadService
	messages *message.MessageService
	titles   *generation.TitleGenerator
}

func NewThreadHandler(
	threads *thread.ThreadService,
	messages *message.MessageService,
	titles *generation.TitleGenerator,
) *ThreadHandler {
	return &ThreadHandler{
		threads:  threads,
		messages: messages,
		titles:   titles,
	}
}

// CreateThread creates a thread and, when content is given, seeds the first
// user/assistant pair and kicks off async title generation.
func (h *ThreadHandler) CreateThread(ctx context.Context, userID string, req threadrequests.CreateThreadRequest) (*threadresponses.ThreadResponse, error) {
	t, err := h.threads.CreateThread(ctx, thread.CreateThreadInput{
		UserID:  userID,
		Title:   req.Title,
		ModelID: req.ModelID,
	})
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "failed to create thread")
	}

	if req.Content != "" {
		if _, _, err := h.createPair(ctx, t, req.Content, req.ModelID, req.Search); err != nil {
			return nil, err
		}
	}

	resp := threadresponses.NewThreadResponse(t)
	return &resp, nil
}

// ListThreads lists the caller's threads ordered by recent activity.
func (h *ThreadHandler) ListThreads(ctx context.Context, userID string) (*threadresponses.ThreadListResponse, error) {
	threads, err := h.threads.ListThreads(ctx, userID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "failed to list threads")
	}
	resp := threadresponses.NewThreadListResponse(threads)
	return &resp, nil
}

// GetThread returns a single owned thread.
func (h *ThreadHandler) GetThread(ctx context.Context, userID, publicID string) (*threadresponses.ThreadResponse, error) {
	t, err := h.threads.GetOwnedThread(ctx, publicID, userID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "thread not found")
	}
	resp := threadresponses.NewThreadResponse(t)
	return &resp, nil
}

// UpdateThread renames a thread or switches its model.
func (h *ThreadHandler) UpdateThread(ctx context.Context, userID, publicID string, req threadrequests.UpdateThreadRequest) (*threadresponses.ThreadResponse, error) {
	t, err := h.threads.UpdateThread(ctx, userID, publicID, thread.UpdateThreadInput{
		Title:   req.Title,
		ModelID: req.ModelID,
	})
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "failed to update thread")
	}
	resp := threadresponses.NewThreadResponse(t)
	return &resp, nil
}

// DeleteThread deletes a thread with its messages.
func (h *ThreadHandler) DeleteThread(ctx context.Context, userID, publicID string) error {
	if err := h.threads.DeleteThread(ctx, userID, publicID); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "failed to delete thread")
	}
	return nil
}

// ListMessages lists the full transcript of an owned thread.
func (h *ThreadHandler) ListMessages(ctx context.Context, userID, publicID string) (*messageresponses.MessageListResponse, error) {
	t, err := h.threads.GetOwnedThread(ctx, publicID, userID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "thread not found")
	}
	msgs, err := h.messages.ListMessages(ctx, t)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "failed to list messages")
	}
	resp := messageresponses.NewMessageListResponse(msgs)
	return &resp, nil
}

// CreateMessagePair appends a user message and its pending assistant
// placeholder. When the caller does not own the thread but presents a valid
// share token, the thread is forked to the caller first (fork-on-write).
func (h *ThreadHandler) CreateMessagePair(ctx context.Context, userID, publicID string, req threadrequests.SendMessageRequest) (*messageresponses.MessagePairResponse, error) {
	t, err := h.threads.GetOwnedThread(ctx, publicID, userID)
	if err != nil {
		if req.ShareToken == "" || !platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
			return nil, platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "thread not found")
		}
		t, err = h.threads.ForkFromShare(ctx, req.ShareToken, userID)
		if err != nil {
			return nil, platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "failed to fork shared thread")
		}
	}

	userMsg, assistantMsg, err := h.createPair(ctx, t, req.Content, req.ModelID, req.Search)
	if err != nil {
		return nil, err
	}

	return &messageresponses.MessagePairResponse{
		ThreadID:  t.PublicID,
		User:      messageresponses.NewMessageResponse(userMsg),
		Assistant: messageresponses.NewMessageResponse(assistantMsg),
	}, nil
}

// BranchThread copies the thread up to and including the branch point into
// a new thread owned by the same user.
func (h *ThreadHandler) BranchThread(ctx context.Context, userID, publicID string, req threadrequests.BranchThreadRequest) (*threadresponses.ThreadResponse, error) {
	branched, err := h.threads.BranchOff(ctx, userID, publicID, req.MessageID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "failed to branch thread")
	}
	resp := threadresponses.NewThreadResponse(branched)
	return &resp, nil
}

func (h *ThreadHandler) createPair(ctx context.Context, t *thread.Thread, content, modelID string, search bool) (*message.Message, *message.Message, error) {
	cfg := model.Get(modelID)
	if modelID == "" {
		cfg = model.Get(t.ModelID)
	}

	userMsg, assistantMsg, err := h.messages.CreatePair(ctx, t, message.CreatePairInput{
		Content: content,
		Model: message.ModelSnapshot{
			Name:        cfg.ID,
			Temperature: cfg.Temperature,
			Search:      search && cfg.SupportsSearch,
		},
	})
	if err != nil {
		return nil, nil, platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "failed to create message pair")
	}

	if h.titles != nil && t.Title == defaultThreadTitle {
		go h.titles.GenerateTitle(ctx, t, content)
	}

	return userMsg, assistantMsg, nil
}
