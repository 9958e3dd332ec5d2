package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	tests := []struct {
		name         string
		id           string
		wantID       string
		wantProvider string
	}{
		{
			name:         "known openai model",
			id:           "gpt-4o-mini",
			wantID:       "gpt-4o-mini",
			wantProvider: ProviderOpenAI,
		},
		{
			name:         "known openrouter model",
			id:           "deepseek/deepseek-r1:free",
			wantID:       "deepseek/deepseek-r1:free",
			wantProvider: ProviderOpenRouter,
		},
		{
			name:         "unknown model falls back to default",
			id:           "gpt-9",
			wantID:       DefaultModelID,
			wantProvider: ProviderGemini,
		},
		{
			name:         "empty id falls back to default",
			id:           "",
			wantID:       DefaultModelID,
			wantProvider: ProviderGemini,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Get(tt.id)
			assert.Equal(t, tt.wantID, m.ID)
			assert.Equal(t, tt.wantProvider, m.Provider)
		})
	}
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("gemini-2.0-flash-lite"))
	assert.True(t, IsValid("gpt-4.1-mini"))
	assert.False(t, IsValid("claude-3-5-sonnet"))
	assert.False(t, IsValid(""))
}

func TestList_Immutable(t *testing.T) {
	first := List()
	first[0].ID = "mutated"

	second := List()
	assert.NotEqual(t, "mutated", second[0].ID)
}

func TestCatalog_Invariants(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range List() {
		assert.NotEmpty(t, m.ID)
		assert.NotEmpty(t, m.Provider)
		assert.Greater(t, m.MaxTokens, 0, "model %s", m.ID)
		assert.False(t, seen[m.ID], "duplicate model id %s", m.ID)
		seen[m.ID] = true
	}
	assert.True(t, seen[DefaultModelID], "default model must be in catalog")
}
