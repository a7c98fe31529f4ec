package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/eaglebank/ledger/shared/models"
	sharedredis "github.com/eaglebank/ledger/shared/redis"
)

const dashboardSummaryKey = "admin:summary"

// AdminReadRepository computes dashboard aggregates and caches them briefly.
type AdminReadRepository struct {
	db    DBTX
	cache sharedredis.Cache[models.DashboardSummary]
}

func NewAdminReadRepository(db DBTX, cache sharedredis.Cache[models.DashboardSummary]) *AdminReadRepository {
	return &AdminReadRepository{db: db, cache: cache}
}

func (r *AdminReadRepository) Summary(ctx context.Context) (*models.DashboardSummary, error) {
	if summary, ok := r.cache.Get(ctx, dashboardSummaryKey); ok {
		return summary, nil
	}
	generation := r.cache.Generation(ctx, dashboardSummaryKey)

	query := `
		SELECT
			(SELECT COUNT(*) FROM customers),
			(SELECT COUNT(*) FROM accounts),
			(SELECT COUNT(*) FROM transactions),
			(SELECT COALESCE(SUM(balance), 0) FROM accounts)
	`
	var summary models.DashboardSummary
	err := r.db.QueryRowContext(ctx, query).Scan(
		&summary.Customers, &summary.Accounts, &summary.Transactions, &summary.TotalBalance,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute dashboard summary: %w", err)
	}
	summary.GeneratedAt = time.Now().UTC()

	r.cache.SetIfGeneration(ctx, dashboardSummaryKey, generation, &summary)
	return &summary, nil
}

func (r *AdminReadRepository) InvalidateSummary(ctx context.Context) {
	r.cache.Delete(ctx, dashboardSummaryKey)
}
