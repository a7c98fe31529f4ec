package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/eaglebank/ledger/shared/models"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// AccountWriteRepository handles all balance-affecting operations for
// accounts. It is meant to be bound to the *sql.Tx of one ledger operation.
type AccountWriteRepository struct {
	db DBTX
}

func NewAccountWriteRepository(db DBTX) *AccountWriteRepository {
	return &AccountWriteRepository{db: db}
}

// CreateIfAccNoFree inserts a zero-balance account for custID under accNo.
// It returns (nil, nil) when accNo is already taken.
func (r *AccountWriteRepository) CreateIfAccNoFree(ctx context.Context, custID, accNo int64) (*models.Account, error) {
	query := `
		INSERT INTO accounts (cust_id, acc_no, balance)
		VALUES ($1, $2, 0)
		ON CONFLICT (acc_no) DO NOTHING
		RETURNING cust_id, acc_no, balance, created_at
	`
	var account models.Account
	err := r.db.QueryRowContext(ctx, query, custID, accNo).Scan(
		&account.CustID, &account.AccNo, &account.Balance, &account.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapPQError("create account", err)
	}
	return &account, nil
}

func (r *AccountWriteRepository) ExistsForCustomer(ctx context.Context, custID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM accounts WHERE cust_id = $1)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, custID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check account existence: %w", err)
	}
	return exists, nil
}

func (r *AccountWriteRepository) GetByCustID(ctx context.Context, custID int64) (*models.Account, error) {
	return r.getOne(ctx, `
		SELECT cust_id, acc_no, balance, created_at
		FROM accounts
		WHERE cust_id = $1
	`, custID)
}

func (r *AccountWriteRepository) GetByAccNo(ctx context.Context, accNo int64) (*models.Account, error) {
	return r.getOne(ctx, `
		SELECT cust_id, acc_no, balance, created_at
		FROM accounts
		WHERE acc_no = $1
	`, accNo)
}

func (r *AccountWriteRepository) getOne(ctx context.Context, query string, arg int64) (*models.Account, error) {
	var account models.Account
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&account.CustID, &account.AccNo, &account.Balance, &account.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

// LockForUpdate row-locks the given accounts in ascending acc_no order, so
// two transfers touching the same pair always acquire locks in the same
// order. Returns ErrNotFound if any account is missing.
func (r *AccountWriteRepository) LockForUpdate(ctx context.Context, accNos ...int64) error {
	query := `SELECT acc_no FROM accounts WHERE acc_no = ANY($1) ORDER BY acc_no FOR UPDATE`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(accNos))
	if err != nil {
		return fmt.Errorf("failed to lock accounts: %w", err)
	}
	defer rows.Close()

	locked := 0
	for rows.Next() {
		var accNo int64
		if err := rows.Scan(&accNo); err != nil {
			return fmt.Errorf("failed to scan locked account: %w", err)
		}
		locked++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to lock accounts: %w", err)
	}
	if locked != len(accNos) {
		return ErrNotFound
	}
	return nil
}

// Debit subtracts amount only if the balance covers it. It reports false
// when no row qualified, leaving the balance untouched.
func (r *AccountWriteRepository) Debit(ctx context.Context, accNo int64, amount decimal.Decimal) (bool, error) {
	query := `
		UPDATE accounts
		SET balance = balance - $1
		WHERE acc_no = $2 AND balance >= $1
	`
	result, err := r.db.ExecContext(ctx, query, amount, accNo)
	if err != nil {
		return false, fmt.Errorf("failed to debit account: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return rows == 1, nil
}

func (r *AccountWriteRepository) Credit(ctx context.Context, accNo int64, amount decimal.Decimal) error {
	query := `UPDATE accounts SET balance = balance + $1 WHERE acc_no = $2`
	result, err := r.db.ExecContext(ctx, query, amount, accNo)
	if err != nil {
		return fmt.Errorf("failed to credit account: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
