package repository

import (
	"context"
	"fmt"

	"github.com/eaglebank/ledger/shared/models"
)

// TransactionWriteRepository appends ledger entries. Rows are never updated
// or deleted.
type TransactionWriteRepository struct {
	db DBTX
}

func NewTransactionWriteRepository(db DBTX) *TransactionWriteRepository {
	return &TransactionWriteRepository{db: db}
}

// Create inserts the record and fills in transaction_id and date_time.
func (r *TransactionWriteRepository) Create(ctx context.Context, txn *models.Transaction) error {
	query := `
		INSERT INTO transactions (acc_no, amount, date_time, transfer_to, sender_id, receiver_id)
		VALUES ($1, $2, NOW(), $3, $4, $5)
		RETURNING transaction_id, date_time
	`
	err := r.db.QueryRowContext(ctx, query,
		txn.AccNo, txn.Amount, txn.TransferTo, txn.SenderID, txn.ReceiverID,
	).Scan(&txn.TransactionID, &txn.DateTime)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}
