// Package generation coordinates the streaming lifecycle of assistant
// responses. It loads thread context, dispatches to the model provider,
// relays deltas to the client, runs the web search tool loop, and
// finalizes the assistant message exactly once no matter how the stream
// ends.
package generation

import (
	"context"
	"time"

	"github.com/sashabaranov/go-openai"
)

// SSE event types sent to the client while a response streams.
const (
	EventTextDelta      = "text-delta"
	EventReasoningDelta = "reasoning-delta"
	EventToolCall       = "tool-call"
	EventDone           = "done"
	EventError          = "error"
)

// StreamEvent is one typed frame of the response stream.
type StreamEvent struct {
	Type      string `json:"type"`
	Delta     string `json:"delta,omitempty"`
	MessageID string `json:"message_id,omitempty"`
	Status    string `json:"status,omitempty"`
	Error     string `json:"error,omitempty"`
}

// DeltaStream delivers stream events to the connected client. Implemented
// over SSE by the HTTP layer and by buffers in tests.
type DeltaStream interface {
	Send(event StreamEvent) error
}

// Chunk is one streamed fragment normalized by the provider layer. Either
// field may be empty.
type Chunk struct {
	Text      string
	Reasoning string
}

// StreamResult is the aggregate outcome of one streamed provider call.
type StreamResult struct {
	Content          string
	Reasoning        string
	ToolCalls        []openai.ToolCall
	FinishReason     string
	PromptTokens     int
	CompletionTokens int
}

// Provider dispatches chat completions to the upstream model vendor for
// the model named in the request.
type Provider interface {
	StreamChatCompletion(ctx context.Context, req openai.ChatCompletionRequest, onChunk func(Chunk)) (*StreamResult, error)
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// SearchResult is one hit returned by the web search tool.
type SearchResult struct {
	Title         string `json:"title"`
	URL           string `json:"url"`
	Content       string `json:"content"`
	PublishedDate string `json:"published_date,omitempty"`
}

// SearchClient executes web searches for the search tool loop.
type SearchClient interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// Metrics receives generation lifecycle signals. A nil Metrics is valid.
type Metrics interface {
	GenerationStarted(model string)
	GenerationFinished(model, status string, duration time.Duration)
	SearchToolInvoked(model string)
}

// maxSearchSteps caps the tool loop: at most two search rounds before the
// final answer step.
const maxSearchSteps = 3

const searchToolName = "webSearch"

// System prompts for the two dispatch modes.
const (
	plainSystemPrompt = "You are a helpful AI assistant. Provide accurate, helpful, and informative responses based on your knowledge."

	searchSystemPrompt = `You are a helpful AI assistant with access to real-time web search capabilities.

IMPORTANT SEARCH GUIDELINES:
- For ANY question that could benefit from current, recent, or factual information, you MUST use the webSearch tool first
- Always search for the most recent and accurate information before providing answers
- Use web search for: current events, recent developments, factual data, statistics, product information, technical documentation, news, etc.
- Provide comprehensive answers based on the search results
- Cite sources when possible and mention when information is from web search
- If initial search results aren't sufficient, perform additional targeted searches with different queries

Your approach:
1. Analyze the user's question
2. If it could benefit from current/factual information, use webSearch immediately
3. Provide a well-researched, accurate response based on the findings`
)

func searchToolDefinition() openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        searchToolName,
			Description: "Search the web for current, up-to-date, and factual information. Use this tool for: recent news, current events, latest product information, real-time data, statistics, technical documentation, or any query that requires current information beyond your training data.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"minLength":   1,
						"maxLength":   100,
						"description": "The search query - be specific and focused",
					},
				},
				"required": []string{"query"},
			},
		},
	}
}
