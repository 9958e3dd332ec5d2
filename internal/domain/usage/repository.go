package usage

import (
	"context"
	"time"
)

// Repository defines data access for usage records.
type Repository interface {
	Create(ctx context.Context, record *Record) error

	// GetUserUsage retrieves per-model aggregates for a user within a
	// date range.
	GetUserUsage(ctx context.Context, userID string, startDate, endDate time.Time) ([]Summary, error)
}
