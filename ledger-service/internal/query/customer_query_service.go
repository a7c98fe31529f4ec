package query

import (
	"context"
	"errors"

	"github.com/eaglebank/ledger/ledger-service/internal/repository"
	"github.com/eaglebank/ledger/shared/cqrs"
	"github.com/eaglebank/ledger/shared/models"
	"github.com/eaglebank/ledger/shared/utils"
)

var (
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrAccountNotFound   = errors.New("account not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrIncorrectPassword = errors.New("incorrect password")
	ErrNotSeller         = errors.New("only sellers can access inventory")
)

type CustomerReader interface {
	GetByID(ctx context.Context, custID int64) (*models.CustomerView, error)
	List(ctx context.Context) ([]models.CustomerView, error)
}

type AccountReader interface {
	GetByCustID(ctx context.Context, custID int64) (*models.AccountView, error)
}

type TransactionReader interface {
	ListByCustomer(ctx context.Context, custID int64) ([]models.TransactionView, error)
	ListAll(ctx context.Context) ([]models.Transaction, error)
}

type CredentialReader interface {
	GetCredentialsByEmail(ctx context.Context, email string) (*repository.Credentials, error)
}

// CustomerQueryService serves a customer's own reads: profile, balance,
// history, and the login credential check.
type CustomerQueryService struct {
	customers    CustomerReader
	accounts     AccountReader
	transactions TransactionReader
	credentials  CredentialReader
}

func NewCustomerQueryService(
	customers CustomerReader,
	accounts AccountReader,
	transactions TransactionReader,
	credentials CredentialReader,
) *CustomerQueryService {
	return &CustomerQueryService{
		customers:    customers,
		accounts:     accounts,
		transactions: transactions,
		credentials:  credentials,
	}
}

func (s *CustomerQueryService) GetProfile(ctx context.Context, q cqrs.GetProfileQuery) (*models.CustomerView, error) {
	view, err := s.customers.GetByID(ctx, q.CustID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCustomerNotFound
	}
	return view, err
}

func (s *CustomerQueryService) GetBalance(ctx context.Context, q cqrs.GetBalanceQuery) (*models.AccountView, error) {
	view, err := s.accounts.GetByCustID(ctx, q.CustID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	return view, err
}

func (s *CustomerQueryService) ListTransactions(ctx context.Context, q cqrs.ListCustomerTransactionsQuery) ([]models.TransactionView, error) {
	return s.transactions.ListByCustomer(ctx, q.CustID)
}

func (s *CustomerQueryService) ListCustomers(ctx context.Context) ([]models.CustomerView, error) {
	return s.customers.List(ctx)
}

// Login verifies email and password. There is no session: the caller gets
// back the role and identifiers the frontend needs.
func (s *CustomerQueryService) Login(ctx context.Context, q cqrs.LoginQuery) (*models.LoginView, error) {
	creds, err := s.credentials.GetCredentialsByEmail(ctx, q.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPassword(q.Password, creds.PasswordHash) {
		return nil, ErrIncorrectPassword
	}

	view := &models.LoginView{Role: creds.Role, CustID: creds.CustID}
	if creds.AccNo.Valid {
		accNo := creds.AccNo.Int64
		view.AccNo = &accNo
	}
	return view, nil
}
