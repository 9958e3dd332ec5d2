// Package inference routes chat completion requests to the upstream
// vendor that serves the requested model.
package inference

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/hanzlah101/t3-clone/internal/config"
	"github.com/hanzlah101/t3-clone/internal/domain/generation"
	"github.com/hanzlah101/t3-clone/internal/domain/model"
	"github.com/hanzlah101/t3-clone/internal/utils/httpclients"
	"github.com/hanzlah101/t3-clone/internal/utils/httpclients/chat"
	"github.com/hanzlah101/t3-clone/internal/utils/platformerrors"
)

// upstream is one configured provider endpoint.
type upstream struct {
	client *chat.ChatCompletionClient
	apiKey string
	extra  []chat.StreamOption
}

// Provider implements generation.Provider over the model catalog's
// provider tags.
type Provider struct {
	upstreams map[string]*upstream
}

var _ generation.Provider = (*Provider)(nil)

// NewProvider wires one chat client per provider tag from config. Tags
// without an API key are still registered; calls against them fail at
// dispatch with an external error from the vendor.
func NewProvider(cfg *config.Config) *Provider {
	p := &Provider{upstreams: make(map[string]*upstream)}

	p.register(cfg, model.ProviderOpenAI, cfg.OpenAIBaseURL, cfg.OpenAIAPIKey)
	p.register(cfg, model.ProviderGemini, cfg.GeminiBaseURL, cfg.GeminiAPIKey)
	p.register(cfg, model.ProviderOpenRouter, cfg.OpenRouterURL, cfg.OpenRouterAPIKey, chat.WithHeader("HTTP-Referer", "https://"+cfg.ServiceName))

	return p
}

func (p *Provider) register(cfg *config.Config, tag, baseURL, apiKey string, extra ...chat.StreamOption) {
	if override, ok := cfg.Providers.Get(tag); ok {
		if override.BaseURL != "" {
			baseURL = override.BaseURL
		}
		for key, value := range override.Headers {
			extra = append(extra, chat.WithHeader(key, value))
		}
	}

	client := httpclients.NewClient("inference-" + tag)
	if override, ok := cfg.Providers.Get(tag); ok && override.TimeoutSec > 0 {
		client.SetTimeout(time.Duration(override.TimeoutSec) * time.Second)
	}

	p.upstreams[tag] = &upstream{
		client: chat.NewChatCompletionClient(client, tag, baseURL, cfg.StreamTimeout),
		apiKey: apiKey,
		extra:  extra,
	}
}

func (p *Provider) resolve(ctx context.Context, modelID string) (*upstream, error) {
	tag := model.Get(modelID).Provider
	up, ok := p.upstreams[tag]
	if !ok {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeInternal, fmt.Sprintf("no upstream configured for provider %q", tag), nil, "6d30f8a2-519c-4be7-9043-ac7e2d81f5b6")
	}
	return up, nil
}

// StreamChatCompletion implements generation.Provider.
func (p *Provider) StreamChatCompletion(ctx context.Context, req openai.ChatCompletionRequest, onChunk func(generation.Chunk)) (*generation.StreamResult, error) {
	up, err := p.resolve(ctx, req.Model)
	if err != nil {
		return nil, err
	}

	outcome, err := up.client.StreamChatCompletion(ctx, up.apiKey, req, func(content, reasoning string) {
		if onChunk != nil {
			onChunk(generation.Chunk{Text: content, Reasoning: reasoning})
		}
	}, up.extra...)
	if err != nil {
		return nil, err
	}

	return &generation.StreamResult{
		Content:          outcome.Content,
		Reasoning:        outcome.Reasoning,
		ToolCalls:        outcome.ToolCalls,
		FinishReason:     outcome.FinishReason,
		PromptTokens:     outcome.PromptTokens,
		CompletionTokens: outcome.CompletionTokens,
	}, nil
}

// CreateChatCompletion implements generation.Provider.
func (p *Provider) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	up, err := p.resolve(ctx, req.Model)
	if err != nil {
		return openai.ChatCompletionResponse{}, err
	}

	resp, err := up.client.CreateChatCompletion(ctx, up.apiKey, req)
	if err != nil {
		return openai.ChatCompletionResponse{}, err
	}
	return *resp, nil
}
