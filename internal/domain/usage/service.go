package usage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hanzlah101/t3-clone/internal/utils/platformerrors"
)

// Service provides usage accounting business logic.
type Service struct {
	repo Repository
}

// NewService creates a new usage service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RecordUsage stores a usage event, filling in cost and totals when the
// caller left them zero.
func (s *Service) RecordUsage(ctx context.Context, record *Record) error {
	if record.EstimatedCostUSD.IsZero() {
		record.EstimatedCostUSD = CalculateCost(record.Model, record.PromptTokens, record.CompletionTokens)
	}
	if record.TotalTokens == 0 {
		record.TotalTokens = record.PromptTokens + record.CompletionTokens
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to record usage")
	}
	return nil
}

// GetMyUsage retrieves a user's usage summary for a date range.
func (s *Service) GetMyUsage(ctx context.Context, userID string, startDate, endDate time.Time) (*Response, error) {
	summaries, err := s.repo.GetUserUsage(ctx, userID, startDate, endDate)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to query usage")
	}

	response := &Response{
		Period:  Period{StartDate: startDate, EndDate: endDate},
		ByModel: make([]Summary, 0, len(summaries)),
	}

	total := Summary{EstimatedCostUSD: decimal.Zero}
	for _, summary := range summaries {
		total.PromptTokens += summary.PromptTokens
		total.CompletionTokens += summary.CompletionTokens
		total.TotalTokens += summary.TotalTokens
		total.RequestCount += summary.RequestCount
		total.EstimatedCostUSD = total.EstimatedCostUSD.Add(summary.EstimatedCostUSD)
		response.ByModel = append(response.ByModel, summary)
	}
	response.Total = total

	return response, nil
}
