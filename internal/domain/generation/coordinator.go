package generation

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"github.com/hanzlah101/t3-clone/internal/domain/message"
	"github.com/hanzlah101/t3-clone/internal/domain/model"
	"github.com/hanzlah101/t3-clone/internal/domain/thread"
	"github.com/hanzlah101/t3-clone/internal/domain/usage"
	"github.com/hanzlah101/t3-clone/internal/utils/platformerrors"
)

// Coordinator drives one generation from pending assistant message to a
// terminal status.
type Coordinator struct {
	threads  *thread.ThreadService
	messages *message.MessageService
	provider Provider
	search   SearchClient
	usage    *usage.Service
	metrics  Metrics
	logger   zerolog.Logger
}

// NewCoordinator creates a generation coordinator. search, usage and
// metrics may be nil; the corresponding features are then skipped.
func NewCoordinator(
	threads *thread.ThreadService,
	messages *message.MessageService,
	provider Provider,
	search SearchClient,
	usageService *usage.Service,
	metrics Metrics,
	logger zerolog.Logger,
) *Coordinator {
	return &Coordinator{
		threads:  threads,
		messages: messages,
		provider: provider,
		search:   search,
		usage:    usageService,
		metrics:  metrics,
		logger:   logger,
	}
}

// Generate streams the pending assistant response of a thread to the given
// stream. The thread must have a trailing assistant message in the waiting
// status, otherwise the call fails with a not found error and nothing is
// written.
//
// Whatever happens mid-stream, the assistant message ends in exactly one
// terminal status: completed on success, error on provider failure,
// disconnected when the client context is cancelled. A terminal status
// written concurrently (for example by the stale reaper) always wins.
func (c *Coordinator) Generate(ctx context.Context, userID, threadPublicID string, stream DeltaStream) error {
	t, err := c.threads.GetOwnedThread(ctx, threadPublicID, userID)
	if err != nil {
		return err
	}

	pending, err := c.messages.GetPendingAssistant(ctx, t)
	if err != nil {
		return err
	}

	history, err := c.messages.ListMessages(ctx, t)
	if err != nil {
		return err
	}

	searchEnabled := pending.Model != nil && pending.Model.Search && c.search != nil
	modelCfg := c.resolveModel(t, pending)

	c.logger.Debug().
		Str("thread_id", t.PublicID).
		Str("message_id", pending.PublicID).
		Str("model", modelCfg.ID).
		Bool("search", searchEnabled).
		Msg("dispatching generation")

	if c.metrics != nil {
		c.metrics.GenerationStarted(modelCfg.ID)
	}
	startedAt := time.Now()

	run := &generationRun{
		coordinator: c,
		thread:      t,
		pending:     pending,
		stream:      stream,
		modelCfg:    modelCfg,
		search:      searchEnabled,
		messages:    buildHistory(history, searchEnabled),
	}

	status := run.execute(ctx)

	if c.metrics != nil {
		c.metrics.GenerationFinished(modelCfg.ID, string(status), time.Since(startedAt))
	}
	return nil
}

// resolveModel prefers the snapshot frozen on the assistant message so a
// model switch mid-thread does not change an in-flight generation.
func (c *Coordinator) resolveModel(t *thread.Thread, pending *message.Message) model.ModelConfig {
	if pending.Model != nil && pending.Model.Name != "" {
		cfg := model.Get(pending.Model.Name)
		cfg.Temperature = pending.Model.Temperature
		return cfg
	}
	return model.Get(t.ModelID)
}

// buildHistory converts the stored transcript into provider messages,
// dropping empty turns such as the pending assistant placeholder.
func buildHistory(history []*message.Message, searchEnabled bool) []openai.ChatCompletionMessage {
	systemPrompt := plainSystemPrompt
	if searchEnabled {
		systemPrompt = searchSystemPrompt
	}

	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})

	for _, m := range history {
		if m.Content == "" {
			continue
		}
		msg := openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		}
		if m.Role == message.RoleAssistant && m.Reasoning != "" {
			msg.ReasoningContent = m.Reasoning
		}
		msgs = append(msgs, msg)
	}
	return msgs
}

// generationRun holds the mutable state of one Generate call.
type generationRun struct {
	coordinator *Coordinator
	thread      *thread.Thread
	pending     *message.Message
	stream      DeltaStream
	modelCfg    model.ModelConfig
	search      bool
	messages    []openai.ChatCompletionMessage

	content          strings.Builder
	reasoning        strings.Builder
	streamingMarked  bool
	promptTokens     int
	completionTokens int
}

func (r *generationRun) execute(ctx context.Context) message.Status {
	steps := 1
	if r.search {
		steps = maxSearchSteps
	}

	var result *StreamResult
	var err error

	for step := 1; step <= steps; step++ {
		req := openai.ChatCompletionRequest{
			Model:       r.modelCfg.ID,
			Messages:    r.messages,
			MaxTokens:   r.modelCfg.MaxTokens,
			Temperature: r.modelCfg.Temperature,
		}
		if r.search && step < steps {
			req.Tools = []openai.Tool{searchToolDefinition()}
			if step == 1 {
				req.ToolChoice = "required"
			} else {
				req.ToolChoice = "auto"
			}
		}

		result, err = r.coordinator.provider.StreamChatCompletion(ctx, req, r.onChunk)
		if err != nil {
			return r.finalizeFailure(ctx, err)
		}

		r.promptTokens += result.PromptTokens
		r.completionTokens += result.CompletionTokens

		if len(result.ToolCalls) == 0 {
			break
		}
		if execErr := r.executeToolCalls(ctx, result.ToolCalls); execErr != nil {
			return r.finalizeFailure(ctx, execErr)
		}
	}

	return r.finalizeSuccess(ctx)
}

// onChunk relays one provider fragment to the client and the accumulators.
// The first fragment flips the message to streaming; losing that CAS means
// a terminal status landed first and the stream is already moot.
func (r *generationRun) onChunk(chunk Chunk) {
	if !r.streamingMarked {
		r.streamingMarked = true
		if _, err := r.coordinator.messages.MarkStreaming(context.Background(), r.pending); err != nil {
			r.coordinator.logger.Warn().Err(err).Str("message_id", r.pending.PublicID).Msg("failed to mark message streaming")
		}
	}

	if chunk.Reasoning != "" {
		r.reasoning.WriteString(chunk.Reasoning)
		r.send(StreamEvent{Type: EventReasoningDelta, Delta: chunk.Reasoning})
	}
	if chunk.Text != "" {
		r.content.WriteString(chunk.Text)
		r.send(StreamEvent{Type: EventTextDelta, Delta: chunk.Text})
	}
}

func (r *generationRun) send(event StreamEvent) {
	if err := r.stream.Send(event); err != nil {
		// The client is gone; context cancellation surfaces separately.
		r.coordinator.logger.Debug().Err(err).Msg("stream send failed")
	}
}

// executeToolCalls runs each requested web search and feeds the results
// back into the conversation for the next step.
func (r *generationRun) executeToolCalls(ctx context.Context, calls []openai.ToolCall) error {
	r.messages = append(r.messages, openai.ChatCompletionMessage{
		Role:      openai.ChatMessageRoleAssistant,
		ToolCalls: calls,
	})

	for _, call := range calls {
		var args struct {
			Query string `json:"query"`
		}
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal, "malformed search tool arguments", err, "84b5f1d9-3e07-4c26-a8f4-d60c2795e1ab")
		}

		if r.coordinator.metrics != nil {
			r.coordinator.metrics.SearchToolInvoked(r.modelCfg.ID)
		}
		r.send(StreamEvent{Type: EventToolCall, Delta: args.Query})

		results, err := r.coordinator.search.Search(ctx, args.Query)
		if err != nil {
			return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "web search failed")
		}

		payload, err := json.Marshal(results)
		if err != nil {
			return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to encode search results")
		}

		r.messages = append(r.messages, openai.ChatCompletionMessage{
			Role:       openai.ChatMessageRoleTool,
			ToolCallID: call.ID,
			Content:    string(payload),
		})
	}
	return nil
}

func (r *generationRun) finalizeSuccess(ctx context.Context) message.Status {
	patch := message.TerminalPatch{
		Status:    message.StatusCompleted,
		Content:   r.content.String(),
		Reasoning: r.reasoning.String(),
	}

	applied, err := r.coordinator.messages.Finalize(detached(ctx), r.pending, patch)
	if err != nil {
		r.coordinator.logger.Error().Err(err).Str("message_id", r.pending.PublicID).Msg("failed to finalize completed message")
		return message.StatusError
	}
	if !applied {
		// Reaper or a concurrent finalizer got there first.
		return r.pending.Status
	}

	r.send(StreamEvent{Type: EventDone, MessageID: r.pending.PublicID, Status: string(message.StatusCompleted)})
	r.recordUsage(detached(ctx))
	return message.StatusCompleted
}

// finalizeFailure decides between the disconnected and error terminal
// states. Context cancellation means the client went away; everything else
// is a provider or tool failure surfaced to the user as the default error.
func (r *generationRun) finalizeFailure(ctx context.Context, cause error) message.Status {
	base := detached(ctx)

	status := message.StatusError
	errText := message.DefaultErrorText
	if ctx.Err() != nil {
		status = message.StatusDisconnected
		errText = message.DisconnectedText
	} else {
		r.coordinator.logger.Error().Err(cause).
			Str("thread_id", r.thread.PublicID).
			Str("message_id", r.pending.PublicID).
			Msg("generation failed")
	}

	patch := message.TerminalPatch{
		Status:    status,
		Content:   r.content.String(),
		Reasoning: r.reasoning.String(),
		Error:     &errText,
	}

	applied, err := r.coordinator.messages.Finalize(base, r.pending, patch)
	if err != nil {
		r.coordinator.logger.Error().Err(err).Str("message_id", r.pending.PublicID).Msg("failed to finalize failed message")
		return status
	}
	if !applied {
		return r.pending.Status
	}

	if status == message.StatusError {
		r.send(StreamEvent{Type: EventError, MessageID: r.pending.PublicID, Status: string(status), Error: errText})
	}
	return status
}

func (r *generationRun) recordUsage(ctx context.Context) {
	if r.coordinator.usage == nil {
		return
	}

	record := &usage.Record{
		UserID:           r.thread.UserID,
		ThreadPublicID:   &r.thread.PublicID,
		Model:            r.modelCfg.ID,
		Provider:         r.modelCfg.Provider,
		PromptTokens:     r.promptTokens,
		CompletionTokens: r.completionTokens,
	}
	if err := r.coordinator.usage.RecordUsage(ctx, record); err != nil {
		r.coordinator.logger.Warn().Err(err).Str("thread_id", r.thread.PublicID).Msg("failed to record usage")
	}
}

// detached strips cancellation so terminal writes land even after the
// client disconnects.
func detached(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
