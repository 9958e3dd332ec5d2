package chathandler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hanzlah101/t3-clone/internal/domain/generation"
	"github.com/hanzlah101/t3-clone/internal/interfaces/httpserver/middlewares"
	"github.com/hanzlah101/t3-clone/internal/interfaces/httpserver/requests/threadrequests"
	"github.com/hanzlah101/t3-clone/internal/interfaces/httpserver/responses"
	"github.com/hanzlah101/t3-clone/internal/interfaces/httpserver/responses/messageresponses"
	"github.com/hanzlah101/t3-clone/internal/utils/platformerrors"
)

const doneMarker = "[DONE]"

// ChatRequest starts (or resumes) the generation for a thread's pending
// assistant message. When Content is set the user/assistant pair is created
// first, so a single call covers the common send-and-stream flow.
type ChatRequest struct {
	ThreadID   string `json:"thread_id" binding:"required,startswith=thr_"`
	Content    string `json:"content,omitempty" binding:"omitempty,max=32000"`
	ModelID    string `json:"model_id,omitempty" binding:"omitempty,modelid"`
	Search     bool   `json:"search,omitempty"`
	ShareToken string `json:"share_token,omitempty"`
}

// ChatHandler serves the SSE generation endpoint.
type ChatHandler struct {
	coordinator *generation.Coordinator
	pairs       PairCreator
}

// PairCreator inserts the user/assistant pair ahead of streaming.
// Implemented by the thread handler.
type PairCreator interface {
	CreateMessagePair(ctx context.Context, userID, publicID string, req threadrequests.SendMessageRequest) (*messageresponses.MessagePairResponse, error)
}

func NewChatHandler(coordinator *generation.Coordinator, pairs PairCreator) *ChatHandler {
	return &ChatHandler{coordinator: coordinator, pairs: pairs}
}

// Generate handles POST /v1/chat. The response body is a stream of SSE
// frames, one JSON event per frame, terminated by a [DONE] marker.
func (h *ChatHandler) Generate(c *gin.Context) {
	principal, ok := middlewares.PrincipalFromContext(c)
	if !ok {
		responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "authentication required", "b41f8c2d-9e6a-4d73-8b5f-3a0c1e2d4f95")
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleErrorWithStatus(c, http.StatusUnprocessableEntity, err, "invalid request body")
		return
	}

	ctx := c.Request.Context()
	threadID := req.ThreadID

	if req.Content != "" {
		pair, err := h.pairs.CreateMessagePair(ctx, principal.UserID, threadID, threadrequests.SendMessageRequest{
			Content:    req.Content,
			ModelID:    req.ModelID,
			Search:     req.Search,
			ShareToken: req.ShareToken,
		})
		if err != nil {
			responses.HandleError(c, err, "failed to append message")
			return
		}
		// Fork-on-write may have redirected the pair to a new thread.
		threadID = pair.ThreadID
	}

	stream := newSSEStream(c)
	err := h.coordinator.Generate(ctx, principal.UserID, threadID, stream)
	if err != nil && !stream.opened {
		responses.HandleError(c, err, "failed to start generation")
		return
	}

	stream.Close()
}

// sseStream adapts the gin response writer to the coordinator's event sink.
// Headers are sent lazily so pre-stream failures can still produce a JSON
// error response.
type sseStream struct {
	c       *gin.Context
	flusher http.Flusher
	opened  bool
}

func newSSEStream(c *gin.Context) *sseStream {
	return &sseStream{c: c}
}

func (s *sseStream) Send(event generation.StreamEvent) error {
	if !s.opened {
		flusher, ok := middlewares.PrepareSSE(s.c)
		if !ok {
			return fmt.Errorf("streaming unsupported by response writer")
		}
		s.flusher = flusher
		s.opened = true
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.c.Writer, "data: %s\n\n", payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Close terminates the stream with the [DONE] marker.
func (s *sseStream) Close() {
	if !s.opened {
		return
	}
	fmt.Fprintf(s.c.Writer, "data: %s\n\n", doneMarker)
	s.flusher.Flush()
}
