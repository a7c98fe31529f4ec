package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/eaglebank/ledger/shared/models"
	sharedredis "github.com/eaglebank/ledger/shared/redis"
)

const accountViewKeyPrefix = "account:view:cust:"

// AccountReadRepository serves account views keyed by customer. Redis is the
// primary read store; PostgreSQL is the fallback and every cold read warms
// the cache unless the view was invalidated while the read was in flight.
type AccountReadRepository struct {
	db    DBTX
	cache sharedredis.Cache[models.AccountView]
}

func NewAccountReadRepository(db DBTX, cache sharedredis.Cache[models.AccountView]) *AccountReadRepository {
	return &AccountReadRepository{db: db, cache: cache}
}

func accountViewKey(custID int64) string {
	return accountViewKeyPrefix + strconv.FormatInt(custID, 10)
}

func (r *AccountReadRepository) GetByCustID(ctx context.Context, custID int64) (*models.AccountView, error) {
	key := accountViewKey(custID)
	if view, ok := r.cache.Get(ctx, key); ok {
		return view, nil
	}
	generation := r.cache.Generation(ctx, key)

	query := `
		SELECT cust_id, acc_no, balance, created_at
		FROM accounts
		WHERE cust_id = $1
	`
	var view models.AccountView
	err := r.db.QueryRowContext(ctx, query, custID).Scan(
		&view.CustID, &view.AccNo, &view.Balance, &view.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	r.cache.SetIfGeneration(ctx, key, generation, &view)
	return &view, nil
}

// InvalidateAccountViews drops cached balances, e.g. after a transfer.
func (r *AccountReadRepository) InvalidateAccountViews(ctx context.Context, custIDs ...int64) {
	keys := make([]string, 0, len(custIDs))
	for _, id := range custIDs {
		keys = append(keys, accountViewKey(id))
	}
	r.cache.Delete(ctx, keys...)
}
