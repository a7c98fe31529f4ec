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

const customerViewKeyPrefix = "customer:view:"

// CustomerReadRepository serves customer profiles. Profiles are immutable
// after signup, so cached entries never need invalidation.
type CustomerReadRepository struct {
	db    DBTX
	cache sharedredis.Cache[models.CustomerView]
}

func NewCustomerReadRepository(db DBTX, cache sharedredis.Cache[models.CustomerView]) *CustomerReadRepository {
	return &CustomerReadRepository{db: db, cache: cache}
}

const customerViewColumns = `cust_id, f_name, l_name, email, phone, cnic, u_name, role, created_at`

func scanCustomerView(row interface{ Scan(...any) error }, view *models.CustomerView) error {
	return row.Scan(
		&view.CustID, &view.FirstName, &view.LastName, &view.Email, &view.Phone,
		&view.CNIC, &view.Username, &view.Role, &view.CreatedAt,
	)
}

func (r *CustomerReadRepository) GetByID(ctx context.Context, custID int64) (*models.CustomerView, error) {
	cacheKey := customerViewKeyPrefix + strconv.FormatInt(custID, 10)
	if view, ok := r.cache.Get(ctx, cacheKey); ok {
		return view, nil
	}

	query := `SELECT ` + customerViewColumns + ` FROM customers WHERE cust_id = $1`
	var view models.CustomerView
	err := scanCustomerView(r.db.QueryRowContext(ctx, query, custID), &view)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	r.cache.Set(ctx, cacheKey, &view)
	return &view, nil
}

// List returns every customer, oldest first. Used by the admin views.
func (r *CustomerReadRepository) List(ctx context.Context) ([]models.CustomerView, error) {
	query := `SELECT ` + customerViewColumns + ` FROM customers ORDER BY cust_id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	views := []models.CustomerView{}
	for rows.Next() {
		var view models.CustomerView
		if err := scanCustomerView(rows, &view); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return views, nil
}
