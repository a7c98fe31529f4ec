package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/eaglebank/ledger/shared/models"
)

// CustomerWriteRepository handles state-mutating and locking operations for
// customers. Bind it to a *sql.Tx when the caller needs atomicity.
type CustomerWriteRepository struct {
	db DBTX
}

func NewCustomerWriteRepository(db DBTX) *CustomerWriteRepository {
	return &CustomerWriteRepository{db: db}
}

// Create inserts the customer and fills in the generated cust_id and created_at.
func (r *CustomerWriteRepository) Create(ctx context.Context, customer *models.Customer) error {
	query := `
		INSERT INTO customers (f_name, l_name, email, phone, pass, cnic, u_name, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING cust_id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		customer.FirstName, customer.LastName, customer.Email, customer.Phone,
		customer.PasswordHash, customer.CNIC, customer.Username, customer.Role,
	).Scan(&customer.CustID, &customer.CreatedAt)
	if err != nil {
		return mapPQError("create customer", err)
	}
	return nil
}

// LockByID takes a row lock on the customer for the rest of the transaction
// and returns its role.
func (r *CustomerWriteRepository) LockByID(ctx context.Context, custID int64) (string, error) {
	query := `SELECT role FROM customers WHERE cust_id = $1 FOR UPDATE`
	var role string
	err := r.db.QueryRowContext(ctx, query, custID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to lock customer: %w", err)
	}
	return role, nil
}

// GetRole returns the role of a customer without locking.
func (r *CustomerWriteRepository) GetRole(ctx context.Context, custID int64) (string, error) {
	query := `SELECT role FROM customers WHERE cust_id = $1`
	var role string
	err := r.db.QueryRowContext(ctx, query, custID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get customer role: %w", err)
	}
	return role, nil
}

// Credentials is the login row: password hash plus the linked account, if any.
type Credentials struct {
	CustID       int64
	Role         string
	PasswordHash string
	AccNo        sql.NullInt64
}

func (r *CustomerWriteRepository) GetCredentialsByEmail(ctx context.Context, email string) (*Credentials, error) {
	query := `
		SELECT c.cust_id, c.role, c.pass, a.acc_no
		FROM customers c
		LEFT JOIN accounts a ON c.cust_id = a.cust_id
		WHERE c.email = $1
	`
	var creds Credentials
	err := r.db.QueryRowContext(ctx, query, email).Scan(&creds.CustID, &creds.Role, &creds.PasswordHash, &creds.AccNo)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credentials: %w", err)
	}
	return &creds, nil
}
