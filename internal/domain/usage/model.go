package usage

import (
	"time"

	"github.com/shopspring/decimal"
)

// Record represents a single token usage event, one per completed
// generation or title request.
type Record struct {
	ID               int64           `gorm:"primaryKey;autoIncrement"`
	UserID           string          `gorm:"column:user_id;not null;index"`
	ThreadPublicID   *string         `gorm:"column:thread_public_id"`
	Model            string          `gorm:"column:model;not null;index"`
	Provider         string          `gorm:"column:provider;not null;index"`
	PromptTokens     int             `gorm:"column:prompt_tokens;not null;default:0"`
	CompletionTokens int             `gorm:"column:completion_tokens;not null;default:0"`
	TotalTokens      int             `gorm:"column:total_tokens;not null;default:0"`
	EstimatedCostUSD decimal.Decimal `gorm:"column:estimated_cost_usd;type:decimal(10,6)"`
	RequestID        *string         `gorm:"column:request_id"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// TableName returns the table name for Record.
func (Record) TableName() string {
	return "chat.usage_records"
}

// Summary represents aggregated usage statistics.
type Summary struct {
	Model            string          `json:"model,omitempty"`
	Provider         string          `json:"provider,omitempty"`
	PromptTokens     int64           `json:"prompt_tokens"`
	CompletionTokens int64           `json:"completion_tokens"`
	TotalTokens      int64           `json:"total_tokens"`
	RequestCount     int64           `json:"request_count"`
	EstimatedCostUSD decimal.Decimal `json:"estimated_cost_usd"`
}

// Period represents a date range for usage queries.
type Period struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// Response is the API payload for a user's usage query.
type Response struct {
	Period  Period    `json:"period"`
	Total   Summary   `json:"total"`
	ByModel []Summary `json:"by_model"`
}

// Model pricing in USD per token. Unknown models fall back to a
// conservative default.
var modelPricing = map[string]struct {
	PromptPrice     decimal.Decimal
	CompletionPrice decimal.Decimal
}{
	"gpt-4o-mini":  {decimal.NewFromFloat(0.00000015), decimal.NewFromFloat(0.0000006)},
	"gpt-4.1-mini": {decimal.NewFromFloat(0.0000004), decimal.NewFromFloat(0.0000016)},

	"gemini-2.0-flash":      {decimal.NewFromFloat(0.0000001), decimal.NewFromFloat(0.0000004)},
	"gemini-2.0-flash-exp":  {decimal.NewFromFloat(0.0000001), decimal.NewFromFloat(0.0000004)},
	"gemini-2.0-flash-lite": {decimal.NewFromFloat(0.000000075), decimal.NewFromFloat(0.0000003)},
	"gemini-1.5-flash":      {decimal.NewFromFloat(0.000000075), decimal.NewFromFloat(0.0000003)},

	"deepseek/deepseek-chat:free": {decimal.Zero, decimal.Zero},
	"deepseek/deepseek-r1:free":   {decimal.Zero, decimal.Zero},
}

// CalculateCost estimates the USD cost for a token count.
func CalculateCost(model string, promptTokens, completionTokens int) decimal.Decimal {
	pricing, exists := modelPricing[model]
	if !exists {
		pricing = struct {
			PromptPrice     decimal.Decimal
			CompletionPrice decimal.Decimal
		}{
			PromptPrice:     decimal.NewFromFloat(0.000001),
			CompletionPrice: decimal.NewFromFloat(0.000002),
		}
	}

	promptCost := pricing.PromptPrice.Mul(decimal.NewFromInt(int64(promptTokens)))
	completionCost := pricing.CompletionPrice.Mul(decimal.NewFromInt(int64(completionTokens)))

	return promptCost.Add(completionCost)
}
