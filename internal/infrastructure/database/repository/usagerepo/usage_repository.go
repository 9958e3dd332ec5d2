package usagerepo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/hanzlah101/t3-clone/internal/domain/usage"
	"github.com/hanzlah101/t3-clone/internal/utils/platformerrors"
)

type UsageGormRepository struct {
	db *gorm.DB
}

var _ usage.Repository = (*UsageGormRepository)(nil)

func NewUsageGormRepository(db *gorm.DB) usage.Repository {
	return &UsageGormRepository{db}
}

// Create implements usage.Repository.
func (repo *UsageGormRepository) Create(ctx context.Context, record *usage.Record) error {
	if err := repo.db.WithContext(ctx).Create(record).Error; err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to create usage record")
	}
	return nil
}

// GetUserUsage implements usage.Repository.
func (repo *UsageGormRepository) GetUserUsage(ctx context.Context, userID string, startDate, endDate time.Time) ([]usage.Summary, error) {
	var summaries []usage.Summary
	err := repo.db.WithContext(ctx).
		Model(&usage.Record{}).
		Select(`model,
			provider,
			SUM(prompt_tokens) AS prompt_tokens,
			SUM(completion_tokens) AS completion_tokens,
			SUM(total_tokens) AS total_tokens,
			COUNT(*) AS request_count,
			SUM(estimated_cost_usd) AS estimated_cost_usd`).
		Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, startDate, endDate).
		Group("model, provider").
		Order("total_tokens DESC").
		Scan(&summaries).Error
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to aggregate usage")
	}
	return summaries, nil
}
