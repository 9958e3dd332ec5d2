package messageresponses

import (
	"time"

	"github.com/hanzlah101/t3-clone/internal/domain/message"
)

// MessageResponse represents a message in API responses.
type MessageResponse struct {
	ID        string                 `json:"id"`
	Object    string                 `json:"object"`
	Role      string                 `json:"role"`
	Content   string                 `json:"content"`
	Reasoning string                 `json:"reasoning,omitempty"`
	Status    string                 `json:"status"`
	Error     *string                `json:"error,omitempty"`
	Model     *message.ModelSnapshot `json:"model,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// MessageListResponse represents the ordered messages of a thread.
type MessageListResponse struct {
	Object string            `json:"object"`
	Data   []MessageResponse `json:"data"`
}

// MessagePairResponse is returned after a user/assistant pair insert.
type MessagePairResponse struct {
	ThreadID  string          `json:"thread_id"`
	User      MessageResponse `json:"user"`
	Assistant MessageResponse `json:"assistant"`
}

// NewMessageResponse converts a domain message into its API shape.
func NewMessageResponse(m *message.Message) MessageResponse {
	return MessageResponse{
		ID:        m.PublicID,
		Object:    "message",
		Role:      string(m.Role),
		Content:   m.Content,
		Reasoning: m.Reasoning,
		Status:    string(m.Status),
		Error:     m.Error,
		Model:     m.Model,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// NewMessageListResponse converts a slice of messages into a list response.
func NewMessageListResponse(messages []*message.Message) MessageListResponse {
	data := make([]MessageResponse, 0, len(messages))
	for _, m := range messages {
		data = append(data, NewMessageResponse(m))
	}
	return MessageListResponse{Object: "list", Data: data}
}
