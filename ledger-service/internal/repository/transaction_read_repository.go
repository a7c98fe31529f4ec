package repository

import (
	"context"
	"fmt"

	"github.com/eaglebank/ledger/shared/models"
)

// TransactionReadRepository reads the ledger straight from PostgreSQL; the
// history changes on every transfer, so it is not cached.
type TransactionReadRepository struct {
	db DBTX
}

func NewTransactionReadRepository(db DBTX) *TransactionReadRepository {
	return &TransactionReadRepository{db: db}
}

// ListByCustomer returns transfers sent or received by custID, newest first.
func (r *TransactionReadRepository) ListByCustomer(ctx context.Context, custID int64) ([]models.TransactionView, error) {
	query := `
		SELECT transaction_id, sender_id, receiver_id, amount, date_time
		FROM transactions
		WHERE sender_id = $1 OR receiver_id = $1
		ORDER BY date_time DESC, transaction_id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, custID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	views := []models.TransactionView{}
	for rows.Next() {
		var view models.TransactionView
		if err := rows.Scan(&view.TransactionID, &view.SenderID, &view.ReceiverID, &view.Amount, &view.DateTime); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return views, nil
}

// ListAll returns the full ledger, newest first.
func (r *TransactionReadRepository) ListAll(ctx context.Context) ([]models.Transaction, error) {
	query := `
		SELECT transaction_id, sender_id, receiver_id, acc_no, amount, transfer_to, date_time
		FROM transactions
		ORDER BY date_time DESC, transaction_id DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	txns := []models.Transaction{}
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.TransactionID, &t.SenderID, &t.ReceiverID, &t.AccNo, &t.Amount, &t.TransferTo, &t.DateTime); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txns, nil
}
