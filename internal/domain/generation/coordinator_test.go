package generation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanzlah101/t3-clone/internal/domain/generation"
	"github.com/hanzlah101/t3-clone/internal/domain/message"
	"github.com/hanzlah101/t3-clone/internal/domain/thread"
	"github.com/hanzlah101/t3-clone/internal/utils/platformerrors"
)

// ---- fakes ----

type fakeThreadRepo struct {
	threads map[uint]*thread.Thread
}

func (r *fakeThreadRepo) Create(_ context.Context, t *thread.Thread) error { return nil }
func (r *fakeThreadRepo) FindByPublicID(ctx context.Context, publicID string) (*thread.Thread, error) {
	for _, t := range r.threads {
		if t.PublicID == publicID {
			return t, nil
		}
	}
	return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "thread not found", nil, "test")
}
func (r *fakeThreadRepo) FindByShareToken(ctx context.Context, _ string) (*thread.Thread, error) {
	return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "thread not found", nil, "test")
}
func (r *fakeThreadRepo) ListByUserID(_ context.Context, _ string) ([]*thread.Thread, error) {
	return nil, nil
}
func (r *fakeThreadRepo) Update(_ context.Context, _ *thread.Thread) error { return nil }
func (r *fakeThreadRepo) TouchLastMessage(_ context.Context, _ uint, _ time.Time) error {
	return nil
}
func (r *fakeThreadRepo) Delete(_ context.Context, _ uint) error           { return nil }
func (r *fakeThreadRepo) DetachChildren(_ context.Context, _ string) error { return nil }

type fakeMessageRepo struct {
	messages []*message.Message
}

func (r *fakeMessageRepo) CreatePair(_ context.Context, u, a *message.Message) error {
	r.messages = append(r.messages, u, a)
	return nil
}

func (r *fakeMessageRepo) ListByThreadID(_ context.Context, threadID uint) ([]*message.Message, error) {
	var out []*message.Message
	for _, m := range r.messages {
		if m.ThreadID == threadID {
			clone := *m
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) FindByPublicID(ctx context.Context, threadID uint, publicID string) (*message.Message, error) {
	for _, m := range r.messages {
		if m.ThreadID == threadID && m.PublicID == publicID {
			clone := *m
			return &clone, nil
		}
	}
	return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "message not found", nil, "test")
}

func (r *fakeMessageRepo) FindTrailing(ctx context.Context, threadID uint) (*message.Message, error) {
	var trailing *message.Message
	for _, m := range r.messages {
		if m.ThreadID == threadID {
			trailing = m
		}
	}
	if trailing == nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "thread has no messages", nil, "test")
	}
	clone := *trailing
	return &clone, nil
}

func (r *fakeMessageRepo) MarkStreaming(_ context.Context, id uint) (bool, error) {
	for _, m := range r.messages {
		if m.ID == id && m.Status == message.StatusWaiting {
			m.Status = message.StatusStreaming
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeMessageRepo) PatchTerminal(_ context.Context, id uint, patch message.TerminalPatch) (bool, error) {
	for _, m := range r.messages {
		if m.ID == id && !m.Status.IsTerminal() {
			m.Status = patch.Status
			m.Content = patch.Content
			m.Reasoning = patch.Reasoning
			m.Error = patch.Error
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeMessageRepo) CancelStale(_ context.Context, _ time.Time) (int64, error) { return 0, nil }
func (r *fakeMessageRepo) CopyPrefix(_ context.Context, _, _ uint, _ time.Time) (int, error) {
	return 0, nil
}
func (r *fakeMessageRepo) FindCreatedAt(_ context.Context, _ uint, _ string) (time.Time, error) {
	return time.Time{}, nil
}

func (r *fakeMessageRepo) byID(id uint) *message.Message {
	for _, m := range r.messages {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// providerCall scripts one StreamChatCompletion invocation.
type providerCall struct {
	chunks []generation.Chunk
	result *generation.StreamResult
	err    error
	// before is invoked before returning, after chunks are emitted. Used
	// to simulate disconnects and concurrent finalizers mid-stream.
	before func()
}

type fakeProvider struct {
	calls    []providerCall
	requests []openai.ChatCompletionRequest
}

func (p *fakeProvider) StreamChatCompletion(_ context.Context, req openai.ChatCompletionRequest, onChunk func(generation.Chunk)) (*generation.StreamResult, error) {
	idx := len(p.requests)
	p.requests = append(p.requests, req)
	call := p.calls[idx]

	for _, chunk := range call.chunks {
		onChunk(chunk)
	}
	if call.before != nil {
		call.before()
	}
	if call.err != nil {
		return nil, call.err
	}
	return call.result, nil
}

func (p *fakeProvider) CreateChatCompletion(_ context.Context, _ openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return openai.ChatCompletionResponse{}, errors.New("not scripted")
}

type fakeSearch struct {
	queries []string
	results []generation.SearchResult
}

func (s *fakeSearch) Search(_ context.Context, query string) ([]generation.SearchResult, error) {
	s.queries = append(s.queries, query)
	return s.results, nil
}

type captureStream struct {
	events []generation.StreamEvent
}

func (s *captureStream) Send(event generation.StreamEvent) error {
	s.events = append(s.events, event)
	return nil
}

func (s *captureStream) deltasOfType(eventType string) string {
	var out string
	for _, e := range s.events {
		if e.Type == eventType {
			out += e.Delta
		}
	}
	return out
}

// ---- fixture ----

type fixture struct {
	coordinator *generation.Coordinator
	threadRepo  *fakeThreadRepo
	messageRepo *fakeMessageRepo
	provider    *fakeProvider
	search      *fakeSearch
	stream      *captureStream
	thread      *thread.Thread
	pending     *message.Message
}

func newFixture(t *testing.T, searchEnabled bool, calls ...providerCall) *fixture {
	t.Helper()

	th := &thread.Thread{
		ID:       1,
		PublicID: "thr_fixture000000001",
		UserID:   "user_1",
		Title:    "New Chat",
		ModelID:  "gemini-2.0-flash-lite",
	}
	threadRepo := &fakeThreadRepo{threads: map[uint]*thread.Thread{1: th}}
	messageRepo := &fakeMessageRepo{}

	now := time.Now().UTC()
	userMsg := &message.Message{
		ID: 1, PublicID: "msg_user000000000001", ThreadID: 1,
		Role: message.RoleUser, Content: "What is the speed of light?",
		Status: message.StatusCompleted, CreatedAt: now,
	}
	pending := &message.Message{
		ID: 2, PublicID: "msg_assistant0000001", ThreadID: 1,
		Role: message.RoleAssistant, Status: message.StatusWaiting,
		Model:     &message.ModelSnapshot{Name: "gemini-2.0-flash-lite", Temperature: 0.7, Search: searchEnabled},
		CreatedAt: now.Add(time.Millisecond),
	}
	messageRepo.messages = append(messageRepo.messages, userMsg, pending)

	threads := thread.NewThreadService(threadRepo, messageRepo)
	messages := message.NewMessageService(messageRepo, threads)
	provider := &fakeProvider{calls: calls}
	search := &fakeSearch{results: []generation.SearchResult{
		{Title: "Speed of light", URL: "https://example.com", Content: "299792458 m/s"},
	}}

	coordinator := generation.NewCoordinator(threads, messages, provider, search, nil, nil, zerolog.Nop())

	return &fixture{
		coordinator: coordinator,
		threadRepo:  threadRepo,
		messageRepo: messageRepo,
		provider:    provider,
		search:      search,
		stream:      &captureStream{},
		thread:      th,
		pending:     pending,
	}
}

// ---- tests ----

func TestGenerate_StreamsAndCompletes(t *testing.T) {
	f := newFixture(t, false, providerCall{
		chunks: []generation.Chunk{
			{Reasoning: "thinking about physics"},
			{Text: "The speed of light "},
			{Text: "is 299,792,458 m/s."},
		},
		result: &generation.StreamResult{PromptTokens: 12, CompletionTokens: 9},
	})

	err := f.coordinator.Generate(context.Background(), "user_1", f.thread.PublicID, f.stream)
	require.NoError(t, err)

	stored := f.messageRepo.byID(f.pending.ID)
	assert.Equal(t, message.StatusCompleted, stored.Status)
	assert.Equal(t, "The speed of light is 299,792,458 m/s.", stored.Content)
	assert.Equal(t, "thinking about physics", stored.Reasoning)
	assert.Nil(t, stored.Error)

	assert.Equal(t, "The speed of light is 299,792,458 m/s.", f.stream.deltasOfType(generation.EventTextDelta))
	assert.Equal(t, "thinking about physics", f.stream.deltasOfType(generation.EventReasoningDelta))

	last := f.stream.events[len(f.stream.events)-1]
	assert.Equal(t, generation.EventDone, last.Type)
	assert.Equal(t, f.pending.PublicID, last.MessageID)
}

func TestGenerate_BuildsHistoryWithSystemPrompt(t *testing.T) {
	f := newFixture(t, false, providerCall{
		chunks: []generation.Chunk{{Text: "ok"}},
		result: &generation.StreamResult{},
	})

	err := f.coordinator.Generate(context.Background(), "user_1", f.thread.PublicID, f.stream)
	require.NoError(t, err)

	require.Len(t, f.provider.requests, 1)
	msgs := f.provider.requests[0].Messages
	require.Len(t, msgs, 2, "system prompt plus the user turn; the empty placeholder is dropped")
	assert.Equal(t, openai.ChatMessageRoleSystem, msgs[0].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, msgs[1].Role)
	assert.Equal(t, "What is the speed of light?", msgs[1].Content)
	assert.Equal(t, "gemini-2.0-flash-lite", f.provider.requests[0].Model)
}

func TestGenerate_HistoryCarriesAssistantReasoning(t *testing.T) {
	f := newFixture(t, false, providerCall{
		chunks: []generation.Chunk{{Text: "ok"}},
		result: &generation.StreamResult{},
	})

	now := time.Now().UTC().Add(-time.Minute)
	earlier := []*message.Message{
		{
			ID: 3, PublicID: "msg_prioruser0000001", ThreadID: 1,
			Role: message.RoleUser, Content: "Compute c in m/s.",
			Status: message.StatusCompleted, CreatedAt: now,
		},
		{
			ID: 4, PublicID: "msg_priorassist00001", ThreadID: 1,
			Role: message.RoleAssistant, Content: "About 299792458 m/s.",
			Reasoning: "c is defined exactly by the SI metre.",
			Status:    message.StatusCompleted, CreatedAt: now.Add(time.Second),
		},
	}
	f.messageRepo.messages = append(earlier, f.messageRepo.messages...)

	err := f.coordinator.Generate(context.Background(), "user_1", f.thread.PublicID, f.stream)
	require.NoError(t, err)

	require.Len(t, f.provider.requests, 1)
	msgs := f.provider.requests[0].Messages
	require.Len(t, msgs, 4)
	assert.Equal(t, openai.ChatMessageRoleAssistant, msgs[2].Role)
	assert.Equal(t, "About 299792458 m/s.", msgs[2].Content)
	assert.Equal(t, "c is defined exactly by the SI metre.", msgs[2].ReasoningContent)
	assert.Empty(t, msgs[1].ReasoningContent, "user turns carry no reasoning")
}

func TestGenerate_NoPendingGeneration(t *testing.T) {
	f := newFixture(t, false)

	// Finalize the placeholder so the thread tail is terminal.
	f.messageRepo.byID(f.pending.ID).Status = message.StatusCompleted

	err := f.coordinator.Generate(context.Background(), "user_1", f.thread.PublicID, f.stream)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
	assert.Empty(t, f.stream.events, "nothing may be written before dispatch")
	assert.Empty(t, f.provider.requests)
}

func TestGenerate_ThreadOwnership(t *testing.T) {
	f := newFixture(t, false)

	err := f.coordinator.Generate(context.Background(), "someone_else", f.thread.PublicID, f.stream)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
}

func TestGenerate_ProviderErrorFinalizesWithPartialContent(t *testing.T) {
	f := newFixture(t, false, providerCall{
		chunks: []generation.Chunk{{Text: "partial answ"}},
		err:    errors.New("upstream 500"),
	})

	err := f.coordinator.Generate(context.Background(), "user_1", f.thread.PublicID, f.stream)
	require.NoError(t, err)

	stored := f.messageRepo.byID(f.pending.ID)
	assert.Equal(t, message.StatusError, stored.Status)
	assert.Equal(t, "partial answ", stored.Content)
	require.NotNil(t, stored.Error)
	assert.Equal(t, message.DefaultErrorText, *stored.Error)

	last := f.stream.events[len(f.stream.events)-1]
	assert.Equal(t, generation.EventError, last.Type)
	assert.Equal(t, message.DefaultErrorText, last.Error)
}

func TestGenerate_DisconnectFinalizesDisconnected(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	f := newFixture(t, false, providerCall{
		chunks: []generation.Chunk{{Text: "partial"}},
		before: cancel,
		err:    context.Canceled,
	})

	err := f.coordinator.Generate(ctx, "user_1", f.thread.PublicID, f.stream)
	require.NoError(t, err)

	stored := f.messageRepo.byID(f.pending.ID)
	assert.Equal(t, message.StatusDisconnected, stored.Status)
	assert.Equal(t, "partial", stored.Content)
	require.NotNil(t, stored.Error)
	assert.Equal(t, message.DisconnectedText, *stored.Error)

	for _, e := range f.stream.events {
		assert.NotEqual(t, generation.EventError, e.Type, "no error frame on disconnect")
	}
}

func TestGenerate_ConcurrentTerminalWriteWins(t *testing.T) {
	f := newFixture(t, false)
	errText := "cancelled by reaper"
	f.provider.calls = []providerCall{{
		chunks: []generation.Chunk{{Text: "will be discarded"}},
		before: func() {
			// A reaper finalizes the message while the stream is live.
			m := f.messageRepo.byID(f.pending.ID)
			m.Status = message.StatusCancelled
			m.Content = ""
			m.Error = &errText
		},
		result: &generation.StreamResult{},
	}}

	err := f.coordinator.Generate(context.Background(), "user_1", f.thread.PublicID, f.stream)
	require.NoError(t, err)

	stored := f.messageRepo.byID(f.pending.ID)
	assert.Equal(t, message.StatusCancelled, stored.Status, "terminal status is write-once")
	assert.Empty(t, stored.Content)
}

func TestGenerate_SearchToolLoop(t *testing.T) {
	f := newFixture(t, true,
		providerCall{
			result: &generation.StreamResult{
				ToolCalls: []openai.ToolCall{{
					ID:   "call_1",
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      "webSearch",
						Arguments: `{"query":"speed of light exact value"}`,
					},
				}},
				PromptTokens: 20,
			},
		},
		providerCall{
			chunks: []generation.Chunk{{Text: "It is exactly 299,792,458 m/s."}},
			result: &generation.StreamResult{PromptTokens: 40, CompletionTokens: 10},
		},
	)

	err := f.coordinator.Generate(context.Background(), "user_1", f.thread.PublicID, f.stream)
	require.NoError(t, err)

	assert.Equal(t, []string{"speed of light exact value"}, f.search.queries)

	require.Len(t, f.provider.requests, 2)
	first := f.provider.requests[0]
	require.Len(t, first.Tools, 1)
	assert.Equal(t, "webSearch", first.Tools[0].Function.Name)
	assert.Equal(t, "required", first.ToolChoice)

	// The follow-up request carries the tool exchange.
	second := f.provider.requests[1]
	roles := make([]string, 0, len(second.Messages))
	for _, m := range second.Messages {
		roles = append(roles, m.Role)
	}
	assert.Contains(t, roles, openai.ChatMessageRoleTool)

	stored := f.messageRepo.byID(f.pending.ID)
	assert.Equal(t, message.StatusCompleted, stored.Status)
	assert.Equal(t, "It is exactly 299,792,458 m/s.", stored.Content)
}

func TestGenerate_SearchPromptSelected(t *testing.T) {
	f := newFixture(t, true,
		providerCall{result: &generation.StreamResult{}},
	)

	err := f.coordinator.Generate(context.Background(), "user_1", f.thread.PublicID, f.stream)
	require.NoError(t, err)

	system := f.provider.requests[0].Messages[0]
	assert.Contains(t, system.Content, "webSearch tool")
}

func TestGenerate_MarksStreamingOnFirstDelta(t *testing.T) {
	var statusAtFirstChunk message.Status

	f := newFixture(t, false)
	f.provider.calls = []providerCall{{
		chunks: []generation.Chunk{{Text: "a"}},
		before: func() {
			statusAtFirstChunk = f.messageRepo.byID(f.pending.ID).Status
		},
		result: &generation.StreamResult{},
	}}

	err := f.coordinator.Generate(context.Background(), "user_1", f.thread.PublicID, f.stream)
	require.NoError(t, err)

	assert.Equal(t, message.StatusStreaming, statusAtFirstChunk)
	assert.Equal(t, message.StatusCompleted, f.messageRepo.byID(f.pending.ID).Status)
}
