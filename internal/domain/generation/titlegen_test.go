package generation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"

	"github.com/hanzlah101/t3-clone/internal/domain/generation"
	"github.com/hanzlah101/t3-clone/internal/domain/thread"
)

type titleProvider struct {
	response string
	err      error
	request  *openai.ChatCompletionRequest
}

func (p *titleProvider) StreamChatCompletion(_ context.Context, _ openai.ChatCompletionRequest, _ func(generation.Chunk)) (*generation.StreamResult, error) {
	return nil, errors.New("not scripted")
}

func (p *titleProvider) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	p.request = &req
	if p.err != nil {
		return openai.ChatCompletionResponse{}, p.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: p.response}},
		},
	}, nil
}

type titleThreadRepo struct {
	fakeThreadRepo
	updated *thread.Thread
}

func (r *titleThreadRepo) Update(_ context.Context, t *thread.Thread) error {
	clone := *t
	r.updated = &clone
	return nil
}

func TestGenerateTitle_StoresTrimmedTitle(t *testing.T) {
	repo := &titleThreadRepo{}
	threads := thread.NewThreadService(repo, &fakeMessageRepo{})
	provider := &titleProvider{response: "  \"Speed of Light Basics\"  "}

	gen := generation.NewTitleGenerator(provider, threads, "gemini-2.0-flash-lite", zerolog.Nop())

	th := &thread.Thread{ID: 1, PublicID: "thr_title0000000001", UserID: "user_1", Title: "New Chat"}
	gen.GenerateTitle(context.Background(), th, "What is the speed of light?")

	assert.Equal(t, "Speed of Light Basics", th.Title)
	assert.NotNil(t, repo.updated)

	assert.Equal(t, "gemini-2.0-flash-lite", provider.request.Model)
	assert.Equal(t, 25, provider.request.MaxTokens)
	assert.InDelta(t, 0.2, provider.request.Temperature, 0.001)
}

func TestGenerateTitle_FailureKeepsPlaceholder(t *testing.T) {
	repo := &titleThreadRepo{}
	threads := thread.NewThreadService(repo, &fakeMessageRepo{})
	provider := &titleProvider{err: errors.New("quota exceeded")}

	gen := generation.NewTitleGenerator(provider, threads, "gemini-2.0-flash-lite", zerolog.Nop())

	th := &thread.Thread{ID: 1, PublicID: "thr_title0000000002", UserID: "user_1", Title: "New Chat"}
	gen.GenerateTitle(context.Background(), th, "hello")

	assert.Equal(t, "New Chat", th.Title)
	assert.Nil(t, repo.updated)
}

func TestGenerateTitle_SurvivesCancelledRequestContext(t *testing.T) {
	repo := &titleThreadRepo{}
	threads := thread.NewThreadService(repo, &fakeMessageRepo{})
	provider := &titleProvider{response: "Quick Question"}

	gen := generation.NewTitleGenerator(provider, threads, "gemini-2.0-flash-lite", zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	th := &thread.Thread{ID: 1, PublicID: "thr_title0000000003", UserID: "user_1", Title: "New Chat"}
	done := make(chan struct{})
	go func() {
		gen.GenerateTitle(ctx, th, "hello")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("title generation did not finish")
	}

	assert.Equal(t, "Quick Question", th.Title)
}
