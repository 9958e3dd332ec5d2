package chathandler

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanzlah101/t3-clone/internal/domain/generation"
)

func TestSSEStream_WritesFramesAndDoneMarker(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest("POST", "/v1/chat", nil)

	stream := newSSEStream(c)
	require.NoError(t, stream.Send(generation.StreamEvent{Type: generation.EventTextDelta, Delta: "Hel"}))
	require.NoError(t, stream.Send(generation.StreamEvent{Type: generation.EventTextDelta, Delta: "lo"}))
	require.NoError(t, stream.Send(generation.StreamEvent{Type: generation.EventDone, MessageID: "msg_1", Status: "completed"}))
	stream.Close()

	assert.Equal(t, "text/event-stream", recorder.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", recorder.Header().Get("Cache-Control"))

	frames := strings.Split(strings.TrimSpace(recorder.Body.String()), "\n\n")
	require.Len(t, frames, 4)
	assert.Equal(t, `data: {"type":"text-delta","delta":"Hel"}`, frames[0])
	assert.Equal(t, `data: {"type":"done","message_id":"msg_1","status":"completed"}`, frames[2])
	assert.Equal(t, "data: [DONE]", frames[3])
}

func TestSSEStream_HeadersDeferredUntilFirstEvent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest("POST", "/v1/chat", nil)

	stream := newSSEStream(c)

	// A pre-stream failure must still be able to produce a JSON error.
	assert.False(t, stream.opened)
	assert.Empty(t, recorder.Header().Get("Content-Type"))

	// Close before any event is a no-op.
	stream.Close()
	assert.Empty(t, recorder.Body.String())
}
