package generation

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"github.com/hanzlah101/t3-clone/internal/domain/thread"
)

const (
	titleMaxTokens   = 25
	titleTemperature = 0.2
	titleTimeout     = 20 * time.Second

	titleSystemPrompt = "Create short, descriptive titles for chat conversations. Focus on the main topic or question. Maximum 15 words. No quotes, emojis, or extra formatting. Just the title."
)

// TitleGenerator names threads after their first message using a small,
// cheap model. Failures only log; the thread keeps its placeholder title.
type TitleGenerator struct {
	provider Provider
	threads  *thread.ThreadService
	modelID  string
	logger   zerolog.Logger
}

// NewTitleGenerator creates a title generator dispatching to modelID.
func NewTitleGenerator(provider Provider, threads *thread.ThreadService, modelID string, logger zerolog.Logger) *TitleGenerator {
	return &TitleGenerator{
		provider: provider,
		threads:  threads,
		modelID:  modelID,
		logger:   logger,
	}
}

// GenerateTitle produces and stores a title for the thread based on the
// user's first prompt. Intended to run in a background goroutine; it uses
// its own timeout instead of the request context.
func (g *TitleGenerator) GenerateTitle(ctx context.Context, t *thread.Thread, prompt string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), titleTimeout)
	defer cancel()

	resp, err := g.provider.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.modelID,
		MaxTokens:   titleMaxTokens,
		Temperature: titleTemperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: titleSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: "Generate a straight forward title for this conversation: " + prompt},
		},
	})
	if err != nil {
		g.logger.Warn().Err(err).Str("thread_id", t.PublicID).Msg("title generation failed")
		return
	}

	if len(resp.Choices) == 0 {
		return
	}

	title := strings.Trim(strings.TrimSpace(resp.Choices[0].Message.Content), `"`)
	if title == "" {
		return
	}

	if err := g.threads.SetTitle(ctx, t, title); err != nil {
		g.logger.Warn().Err(err).Str("thread_id", t.PublicID).Msg("failed to store generated title")
	}
}
