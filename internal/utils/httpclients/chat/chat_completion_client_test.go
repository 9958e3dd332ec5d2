package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"resty.dev/v3"
)

func TestNewChatCompletionClient_StreamTimeout(t *testing.T) {
	c := NewChatCompletionClient(resty.New(), "test", "https://api.example.com", 30*time.Second)
	assert.Equal(t, 30*time.Second, c.timeout)

	c = NewChatCompletionClient(resty.New(), "test", "https://api.example.com", 0)
	assert.Equal(t, defaultStreamTimeout, c.timeout)
}

func TestNormalizeBaseURL(t *testing.T) {
	assert.Equal(t, "https://api.example.com", NewChatCompletionClient(resty.New(), "test", "https://api.example.com/", 0).BaseURL())
	assert.Equal(t, "https://api.example.com/v1", NewChatCompletionClient(resty.New(), "test", "https://api.example.com/v1", 0).BaseURL())
}
