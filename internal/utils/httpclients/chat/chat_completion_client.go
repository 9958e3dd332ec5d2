// Package chat implements an SSE streaming client for OpenAI compatible
// chat completion endpoints.
package chat

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"resty.dev/v3"

	"github.com/hanzlah101/t3-clone/internal/infrastructure/logger"
	"github.com/hanzlah101/t3-clone/internal/utils/platformerrors"
)

const (
	defaultStreamTimeout = 120 * time.Second
	dataPrefix           = "data: "
	doneMarker           = "[DONE]"
	scannerInitialBuffer = 12 * 1024        // 12KB
	scannerMaxBuffer     = 10 * 1024 * 1024 // 10MB
)

// StreamOption customizes the upstream streaming request.
type StreamOption func(*resty.Request)

func WithHeader(key, value string) StreamOption {
	return func(r *resty.Request) {
		if strings.TrimSpace(key) == "" {
			return
		}
		r.SetHeader(key, value)
	}
}

// DeltaFunc receives incremental content and reasoning fragments. Either
// argument may be empty.
type DeltaFunc func(content, reasoning string)

// StreamOutcome is the aggregate of one upstream streaming call.
type StreamOutcome struct {
	Content          string
	Reasoning        string
	ToolCalls        []openai.ToolCall
	FinishReason     string
	PromptTokens     int
	CompletionTokens int
}

type ChatCompletionClient struct {
	client  *resty.Client
	baseURL string
	name    string
	timeout time.Duration
}

// NewChatCompletionClient creates a streaming client. timeout bounds one
// whole upstream stream; zero selects the default.
func NewChatCompletionClient(client *resty.Client, name, baseURL string, timeout time.Duration) *ChatCompletionClient {
	if timeout <= 0 {
		timeout = defaultStreamTimeout
	}
	return &ChatCompletionClient{
		client:  client,
		baseURL: normalizeBaseURL(baseURL),
		name:    name,
		timeout: timeout,
	}
}

type tokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type choiceDelta struct {
	Content          string            `json:"content"`
	ReasoningContent string            `json:"reasoning_content"`
	ToolCalls        []openai.ToolCall `json:"tool_calls,omitempty"`
}

type streamChoice struct {
	Delta        choiceDelta `json:"delta"`
	FinishReason string      `json:"finish_reason"`
}

type toolCallAccumulator struct {
	ID       string
	Type     string
	Index    int
	Function struct {
		Name      string
		Arguments string
	}
	Complete bool
}

// CreateChatCompletion performs a blocking, non-streaming completion.
func (c *ChatCompletionClient) CreateChatCompletion(ctx context.Context, apiKey string, request openai.ChatCompletionRequest) (*openai.ChatCompletionResponse, error) {
	var respBody openai.ChatCompletionResponse
	resp, err := c.prepareRequest(ctx, apiKey).
		SetBody(request).
		SetResult(&respBody).
		Post(c.endpoint("/chat/completions"))
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, c.errorFromResponse(ctx, resp, "request failed")
	}
	return &respBody, nil
}

// StreamChatCompletion performs a streaming completion, invoking onDelta
// for every fragment as it arrives and returning the fully accumulated
// outcome once the upstream closes the stream.
func (c *ChatCompletionClient) StreamChatCompletion(ctx context.Context, apiKey string, request openai.ChatCompletionRequest, onDelta DeltaFunc, opts ...StreamOption) (*StreamOutcome, error) {
	request.Stream = true
	// Force usage collection so accounting does not depend on estimation.
	request.StreamOptions = &openai.StreamOptions{IncludeUsage: true}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.doStreamingRequest(ctx, apiKey, request, opts...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := resp.RawResponse.Body.Close(); closeErr != nil {
			log := logger.GetLogger()
			log.Error().Err(closeErr).Str("client", c.name).Msg("unable to close response body")
		}
	}()

	var contentBuilder strings.Builder
	var reasoningBuilder strings.Builder
	toolCalls := make(map[int]*toolCallAccumulator)
	var usage *tokenUsage
	finishReason := ""

	scanner := bufio.NewScanner(resp.RawResponse.Body)
	scanner.Buffer(make([]byte, 0, scannerInitialBuffer), scannerMaxBuffer)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil, platformerrors.AsError(ctx, platformerrors.LayerInfrastructure, ctx.Err(), "streaming cancelled")
		}

		data, found := strings.CutPrefix(scanner.Text(), dataPrefix)
		if !found {
			continue
		}
		if data == doneMarker {
			break
		}

		choice, chunkUsage := c.processStreamChunk(data)
		if chunkUsage != nil {
			usage = chunkUsage
		}
		if choice == nil {
			continue
		}

		if choice.FinishReason != "" {
			finishReason = choice.FinishReason
		}
		if choice.Delta.Content != "" {
			contentBuilder.WriteString(choice.Delta.Content)
		}
		if choice.Delta.ReasoningContent != "" {
			reasoningBuilder.WriteString(choice.Delta.ReasoningContent)
		}
		if choice.Delta.Content != "" || choice.Delta.ReasoningContent != "" {
			if onDelta != nil {
				onDelta(choice.Delta.Content, choice.Delta.ReasoningContent)
			}
		}
		for i := range choice.Delta.ToolCalls {
			c.handleStreamingToolCall(&choice.Delta.ToolCalls[i], toolCalls)
		}
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return nil, platformerrors.AsError(ctx, platformerrors.LayerInfrastructure, ctx.Err(), "streaming cancelled")
		}
		return nil, platformerrors.AsError(ctx, platformerrors.LayerInfrastructure, err, "streaming read failed")
	}

	outcome := &StreamOutcome{
		Content:      contentBuilder.String(),
		Reasoning:    reasoningBuilder.String(),
		ToolCalls:    collectToolCalls(toolCalls),
		FinishReason: finishReason,
	}

	if usage != nil {
		outcome.PromptTokens = usage.PromptTokens
		outcome.CompletionTokens = usage.CompletionTokens
	} else {
		outcome.PromptTokens = estimateTokens(request.Messages)
		outcome.CompletionTokens = estimateTokens([]openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleAssistant,
			Content: outcome.Content,
		}})
	}

	return outcome, nil
}

func (c *ChatCompletionClient) prepareRequest(ctx context.Context, apiKey string) *resty.Request {
	req := c.client.R().SetContext(ctx)
	req.SetHeader("Content-Type", "application/json")
	if strings.TrimSpace(apiKey) != "" {
		req.SetHeader("Authorization", fmt.Sprintf("Bearer %s", apiKey))
	}
	return req
}

func (c *ChatCompletionClient) doStreamingRequest(ctx context.Context, apiKey string, request openai.ChatCompletionRequest, opts ...StreamOption) (*resty.Response, error) {
	req := c.prepareRequest(ctx, apiKey).
		SetBody(request).
		SetDoNotParseResponse(true)

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(req)
	}

	if req.Header.Get("Accept-Encoding") == "" {
		req.SetHeader("Accept-Encoding", "identity")
	}

	resp, err := req.Post(c.endpoint("/chat/completions"))
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, c.errorFromResponse(ctx, resp, "streaming request failed")
	}
	if resp.RawResponse == nil || resp.RawResponse.Body == nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "streaming request failed: empty response body", nil, "7e2a9d04-5c18-4f6b-a3d2-08b47c1e96f5")
	}
	return resp, nil
}

func (c *ChatCompletionClient) processStreamChunk(data string) (*streamChoice, *tokenUsage) {
	var streamData struct {
		Choices []streamChoice `json:"choices"`
		Usage   *tokenUsage    `json:"usage"`
	}

	if err := json.Unmarshal([]byte(data), &streamData); err != nil {
		log := logger.GetLogger()
		log.Error().Err(err).Str("client", c.name).Str("data", data).Msg("failed to parse stream chunk JSON")
		return nil, nil
	}

	result := &streamChoice{}
	for _, choice := range streamData.Choices {
		if choice.Delta.Content != "" {
			result.Delta.Content += choice.Delta.Content
		}
		if choice.Delta.ReasoningContent != "" {
			result.Delta.ReasoningContent += choice.Delta.ReasoningContent
		}
		if len(choice.Delta.ToolCalls) > 0 {
			result.Delta.ToolCalls = append(result.Delta.ToolCalls, choice.Delta.ToolCalls...)
		}
		if choice.FinishReason != "" {
			result.FinishReason = choice.FinishReason
		}
	}
	return result, streamData.Usage
}

func (c *ChatCompletionClient) handleStreamingToolCall(toolCall *openai.ToolCall, accumulator map[int]*toolCallAccumulator) {
	if toolCall == nil || toolCall.Index == nil {
		return
	}

	index := *toolCall.Index
	if accumulator[index] == nil {
		accumulator[index] = &toolCallAccumulator{
			ID:    toolCall.ID,
			Type:  string(toolCall.Type),
			Index: index,
		}
	}

	if toolCall.Function.Name != "" {
		accumulator[index].Function.Name = toolCall.Function.Name
	}
	if toolCall.Function.Arguments != "" {
		accumulator[index].Function.Arguments += toolCall.Function.Arguments
	}

	if accumulator[index].Function.Name != "" && strings.HasSuffix(accumulator[index].Function.Arguments, "}") {
		accumulator[index].Complete = true
	}
}

func collectToolCalls(accumulator map[int]*toolCallAccumulator) []openai.ToolCall {
	var toolCalls []openai.ToolCall
	for _, acc := range accumulator {
		if acc == nil || !acc.Complete {
			continue
		}
		toolCalls = append(toolCalls, openai.ToolCall{
			ID:   acc.ID,
			Type: openai.ToolType(acc.Type),
			Function: openai.FunctionCall{
				Name:      acc.Function.Name,
				Arguments: acc.Function.Arguments,
			},
		})
	}
	return toolCalls
}

// estimateTokens is a word-count fallback for providers that omit usage in
// streaming responses.
func estimateTokens(messages []openai.ChatCompletionMessage) int {
	var allText strings.Builder
	for _, msg := range messages {
		allText.WriteString(msg.Content)
		allText.WriteString(" ")
		for _, toolCall := range msg.ToolCalls {
			allText.WriteString(toolCall.Function.Name)
			allText.WriteString(" ")
			allText.WriteString(toolCall.Function.Arguments)
			allText.WriteString(" ")
		}
	}
	return len(strings.Fields(allText.String()))
}

func (c *ChatCompletionClient) endpoint(path string) string {
	if path == "" {
		return c.baseURL
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if c.baseURL == "" {
		return path
	}
	if strings.HasPrefix(path, "/") {
		return c.baseURL + path
	}
	return c.baseURL + "/" + path
}

func (c *ChatCompletionClient) errorFromResponse(ctx context.Context, resp *resty.Response, message string) error {
	if resp == nil || resp.RawResponse == nil || resp.RawResponse.Body == nil {
		return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, message, nil, "c4f91a35-6d08-4e72-b5a9-2e83d1c07f46")
	}
	defer resp.RawResponse.Body.Close()
	body, err := io.ReadAll(resp.RawResponse.Body)
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, message, nil, "f82d60b7-1c49-4a35-9e06-7b54a3d8c210")
	}
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, message, nil, "09e76c42-ab83-4d51-bf28-64a01d9e5c37")
	}
	return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, fmt.Sprintf("%s: %s", message, trimmed), nil, "d51b08f9-73e4-4c20-a6d5-19c8e2b7f064")
}

// BaseURL returns the normalized upstream base URL.
func (c *ChatCompletionClient) BaseURL() string {
	return c.baseURL
}

func normalizeBaseURL(base string) string {
	trimmed := strings.TrimSpace(base)
	return strings.TrimRight(trimmed, "/")
}
