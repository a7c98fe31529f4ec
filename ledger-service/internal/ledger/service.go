// Package ledger owns the atomic money paths: signing a customer up together
// with their account, provisioning an account on its own, and transferring
// funds between accounts. Each operation runs inside exactly one database
// transaction, and no failure leaves partial writes behind.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/eaglebank/ledger/ledger-service/internal/repository"
	"github.com/eaglebank/ledger/shared/models"
	"github.com/eaglebank/ledger/shared/utils"
	"github.com/shopspring/decimal"
)

// maxAccountNumberAttempts bounds how many random account numbers are tried
// before giving up with ErrAccountNumberCollision.
const maxAccountNumberAttempts = 5

// Service is the Ledger Service. It holds no state besides the injected
// connection pool; every call acquires and releases its own transaction.
type Service struct {
	db               *sql.DB
	newAccountNumber func() (int64, error)
	logger           *slog.Logger
}

type Option func(*Service)

// WithAccountNumberGenerator replaces the random account number source.
func WithAccountNumberGenerator(gen func() (int64, error)) Option {
	return func(s *Service) { s.newAccountNumber = gen }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func NewService(db *sql.DB, opts ...Option) *Service {
	s := &Service{
		db:               db,
		newAccountNumber: utils.GenerateAccountNumber,
		logger:           slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SignupResult identifies the rows created by SignupAndProvision.
type SignupResult struct {
	CustID  int64
	Account models.Account
}

// ValidateRole reports ErrInvalidRole unless role is Buyer or Seller.
func ValidateRole(role string) error {
	if role != models.RoleBuyer && role != models.RoleSeller {
		return ErrInvalidRole
	}
	return nil
}

func validateCustomer(c *models.Customer) error {
	if err := ValidateRole(c.Role); err != nil {
		return err
	}
	for _, field := range []string{c.FirstName, c.LastName, c.Email, c.Phone, c.PasswordHash, c.CNIC, c.Username} {
		if strings.TrimSpace(field) == "" {
			return ErrInvalidInput
		}
	}
	return nil
}

// SignupAndProvision inserts the customer and a zero-balance account in one
// transaction. customer.PasswordHash must already be hashed.
func (s *Service) SignupAndProvision(ctx context.Context, customer models.Customer) (*SignupResult, error) {
	if err := validateCustomer(&customer); err != nil {
		return nil, err
	}

	var result SignupResult
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := repository.NewCustomerWriteRepository(tx).Create(ctx, &customer); err != nil {
			if errors.Is(err, repository.ErrUniqueViolation) {
				s.logger.WarnContext(ctx, "signup rejected: duplicate customer", "error", err)
				return storageError("create customer", ErrDuplicateCustomer)
			}
			return storageError("create customer", err)
		}

		account, err := s.createAccount(ctx, repository.NewAccountWriteRepository(tx), customer.CustID)
		if err != nil {
			return err
		}
		result = SignupResult{CustID: customer.CustID, Account: *account}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "customer signed up", "cust_id", result.CustID, "acc_no", result.Account.AccNo)
	return &result, nil
}

// ProvisionAccount creates the single account of an existing customer.
func (s *Service) ProvisionAccount(ctx context.Context, custID int64) (*models.Account, error) {
	if custID <= 0 {
		return nil, ErrInvalidCustomerID
	}

	var account *models.Account
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		// The customer row lock serialises concurrent provisioning for the
		// same customer, which keeps the existence check below honest.
		if _, err := repository.NewCustomerWriteRepository(tx).LockByID(ctx, custID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrCustomerNotFound
			}
			return storageError("lock customer", err)
		}

		accounts := repository.NewAccountWriteRepository(tx)
		exists, err := accounts.ExistsForCustomer(ctx, custID)
		if err != nil {
			return storageError("check existing account", err)
		}
		if exists {
			return ErrAccountExists
		}

		account, err = s.createAccount(ctx, accounts, custID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "account provisioned", "cust_id", custID, "acc_no", account.AccNo)
	return account, nil
}

// createAccount inserts a zero-balance account, drawing a fresh random
// number whenever the previous one is already taken.
func (s *Service) createAccount(ctx context.Context, accounts *repository.AccountWriteRepository, custID int64) (*models.Account, error) {
	for attempt := 1; attempt <= maxAccountNumberAttempts; attempt++ {
		accNo, err := s.newAccountNumber()
		if err != nil {
			return nil, storageError("generate account number", err)
		}

		account, err := accounts.CreateIfAccNoFree(ctx, custID, accNo)
		if errors.Is(err, repository.ErrUniqueViolation) {
			return nil, ErrAccountExists
		}
		if err != nil {
			return nil, storageError("create account", err)
		}
		if account != nil {
			return account, nil
		}
		s.logger.WarnContext(ctx, "account number collision", "acc_no", accNo, "attempt", attempt)
	}
	return nil, ErrAccountNumberCollision
}

// TransferRequest moves Amount from the sender customer's account to the
// account numbered ReceiverAccNo.
type TransferRequest struct {
	SenderCustID  int64
	ReceiverAccNo int64
	Amount        decimal.Decimal
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() || !amount.Equal(amount.Round(2)) {
		return ErrInvalidAmount
	}
	return nil
}

// TransferFunds debits the sender, credits the receiver and appends one
// ledger record, all in one transaction.
func (s *Service) TransferFunds(ctx context.Context, req TransferRequest) (*models.Transaction, error) {
	if req.SenderCustID <= 0 {
		return nil, ErrInvalidCustomerID
	}
	if !utils.ValidateAccountNumber(req.ReceiverAccNo) {
		return nil, ErrInvalidReceiver
	}
	if err := validateAmount(req.Amount); err != nil {
		return nil, err
	}

	var record *models.Transaction
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		accounts := repository.NewAccountWriteRepository(tx)

		sender, err := accounts.GetByCustID(ctx, req.SenderCustID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSenderAccountNotFound
		}
		if err != nil {
			return storageError("load sender account", err)
		}
		if sender.Balance.LessThan(req.Amount) {
			return ErrInsufficientBalance
		}

		receiver, err := accounts.GetByAccNo(ctx, req.ReceiverAccNo)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrReceiverAccountNotFound
		}
		if err != nil {
			return storageError("load receiver account", err)
		}
		if receiver.AccNo == sender.AccNo {
			return ErrSelfTransfer
		}

		if err := accounts.LockForUpdate(ctx, sender.AccNo, receiver.AccNo); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrReceiverAccountNotFound
			}
			return storageError("lock accounts", err)
		}

		// The balance read above was taken before the lock; the conditional
		// debit is what actually guarantees the balance never goes negative.
		debited, err := accounts.Debit(ctx, sender.AccNo, req.Amount)
		if err != nil {
			return storageError("debit sender", err)
		}
		if !debited {
			return ErrInsufficientBalance
		}

		if err := accounts.Credit(ctx, receiver.AccNo, req.Amount); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrReceiverAccountNotFound
			}
			return storageError("credit receiver", err)
		}

		record = &models.Transaction{
			SenderID:   sender.CustID,
			ReceiverID: receiver.CustID,
			AccNo:      sender.AccNo,
			Amount:     req.Amount,
			TransferTo: receiver.AccNo,
		}
		if err := repository.NewTransactionWriteRepository(tx).Create(ctx, record); err != nil {
			return storageError("record transaction", err)
		}
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "transfer failed",
			"sender_cust_id", req.SenderCustID, "receiver_acc_no", req.ReceiverAccNo,
			"amount", req.Amount.String(), "error", err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "transfer committed",
		"transaction_id", record.TransactionID, "sender_id", record.SenderID,
		"receiver_id", record.ReceiverID, "amount", record.Amount.String())
	return record, nil
}

// withTx runs fn inside a transaction that is committed only when fn
// returns nil and is rolled back on every other exit path, panics included.
func (s *Service) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageError("begin transaction", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.logger.ErrorContext(ctx, "rollback failed", "error", rbErr)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return storageError("commit transaction", err)
	}
	committed = true
	return nil
}
