// Package model holds the static catalog of chat models the service can
// dispatch to. The catalog is the source of truth for provider routing,
// capability flags and sampling defaults snapshotted onto assistant messages.
package model

// DefaultModelID is used when a thread has no model or an unknown one.
const DefaultModelID = "gemini-2.0-flash-lite"

// ProviderOpenAI et al. are provider routing tags. Each tag maps to a base
// URL and API key in the inference layer.
const (
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
)

// ModelConfig describes one selectable chat model.
type ModelConfig struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	Provider       string  `json:"provider"`
	SupportsSearch bool    `json:"supports_search"`
	SupportsImages bool    `json:"supports_images"`
	SupportsPDF    bool    `json:"supports_pdf"`
	MaxTokens      int     `json:"max_tokens"`
	Temperature    float32 `json:"temperature"`
}

var supportedModels = []ModelConfig{
	{
		ID:             "gpt-4o-mini",
		Name:           "GPT-4o Mini",
		Description:    "OpenAI's efficient model with multimodal capabilities",
		Provider:       ProviderOpenAI,
		SupportsSearch: true,
		SupportsImages: true,
		MaxTokens:      16384,
		Temperature:    0.7,
	},
	{
		ID:             "gpt-4.1-mini",
		Name:           "GPT-4.1 Mini",
		Description:    "Latest OpenAI model with improved reasoning",
		Provider:       ProviderOpenAI,
		SupportsSearch: true,
		SupportsImages: true,
		MaxTokens:      16384,
		Temperature:    0.7,
	},
	{
		ID:             "gemini-2.0-flash",
		Name:           "Gemini 2.0 Flash",
		Description:    "Google's latest stable model with enhanced capabilities",
		Provider:       ProviderGemini,
		SupportsSearch: true,
		SupportsImages: true,
		SupportsPDF:    true,
		MaxTokens:      8192,
		Temperature:    0.7,
	},
	{
		ID:             "gemini-2.0-flash-exp",
		Name:           "Gemini 2.0 Flash Experimental",
		Description:    "Google's latest experimental model with enhanced capabilities",
		Provider:       ProviderGemini,
		SupportsSearch: true,
		SupportsImages: true,
		SupportsPDF:    true,
		MaxTokens:      8192,
		Temperature:    0.7,
	},
	{
		ID:             "gemini-2.0-flash-lite",
		Name:           "Gemini 2.0 Flash Lite",
		Description:    "Lightweight version of Gemini 2.0 with vision support",
		Provider:       ProviderGemini,
		SupportsSearch: true,
		SupportsImages: true,
		SupportsPDF:    true,
		MaxTokens:      8192,
		Temperature:    0.7,
	},
	{
		ID:             "gemini-1.5-flash",
		Name:           "Gemini 1.5 Flash",
		Description:    "Fast, efficient model optimized for speed",
		Provider:       ProviderGemini,
		SupportsSearch: true,
		SupportsImages: true,
		SupportsPDF:    true,
		MaxTokens:      8192,
		Temperature:    0.7,
	},
	{
		ID:          "deepseek/deepseek-chat:free",
		Name:        "DeepSeek Chat",
		Description: "DeepSeek's conversational AI model",
		Provider:    ProviderOpenRouter,
		MaxTokens:   4096,
		Temperature: 0.7,
	},
	{
		ID:          "deepseek/deepseek-r1:free",
		Name:        "DeepSeek R1",
		Description: "Advanced reasoning model for complex tasks",
		Provider:    ProviderOpenRouter,
		MaxTokens:   8192,
		Temperature: 0.8,
	},
}

var modelIndex = func() map[string]ModelConfig {
	index := make(map[string]ModelConfig, len(supportedModels))
	for _, m := range supportedModels {
		index[m.ID] = m
	}
	return index
}()

// List returns the full catalog in display order.
func List() []ModelConfig {
	out := make([]ModelConfig, len(supportedModels))
	copy(out, supportedModels)
	return out
}

// Get resolves a model ID to its config, falling back to the default model
// when the ID is unknown or empty. Threads created before a model was
// retired keep working this way.
func Get(id string) ModelConfig {
	if m, ok := modelIndex[id]; ok {
		return m
	}
	return modelIndex[DefaultModelID]
}

// IsValid reports whether the ID names a model in the catalog.
func IsValid(id string) bool {
	_, ok := modelIndex[id]
	return ok
}
