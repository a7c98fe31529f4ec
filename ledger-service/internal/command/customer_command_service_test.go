package command

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/eaglebank/ledger/ledger-service/internal/ledger"
	"github.com/eaglebank/ledger/ledger-service/internal/repository"
	"github.com/eaglebank/ledger/shared/cqrs"
	"github.com/eaglebank/ledger/shared/events"
	"github.com/eaglebank/ledger/shared/models"
	"github.com/eaglebank/ledger/shared/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- fakes ----

type fakeLedger struct {
	signupFn    func(models.Customer) (*ledger.SignupResult, error)
	provisionFn func(int64) (*models.Account, error)
	transferFn  func(ledger.TransferRequest) (*models.Transaction, error)
}

func (f *fakeLedger) SignupAndProvision(_ context.Context, c models.Customer) (*ledger.SignupResult, error) {
	return f.signupFn(c)
}

func (f *fakeLedger) ProvisionAccount(_ context.Context, custID int64) (*models.Account, error) {
	return f.provisionFn(custID)
}

func (f *fakeLedger) TransferFunds(_ context.Context, req ledger.TransferRequest) (*models.Transaction, error) {
	return f.transferFn(req)
}

type publishedEvent struct {
	stream, eventType string
	data              any
}

type fakePublisher struct {
	published []publishedEvent
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, stream, eventType string, data any) error {
	f.published = append(f.published, publishedEvent{stream, eventType, data})
	return f.err
}

type fakeAccountViews struct {
	invalidated []int64
	getErr      error
	warmed      []int64
}

func (f *fakeAccountViews) GetByCustID(_ context.Context, custID int64) (*models.AccountView, error) {
	f.warmed = append(f.warmed, custID)
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &models.AccountView{CustID: custID}, nil
}

func (f *fakeAccountViews) InvalidateAccountViews(_ context.Context, custIDs ...int64) {
	f.invalidated = append(f.invalidated, custIDs...)
}

type fakeSummary struct{ invalidations int }

func (f *fakeSummary) InvalidateSummary(context.Context) { f.invalidations++ }

type fixture struct {
	svc       *CustomerCommandService
	ledger    *fakeLedger
	accounts  *fakeAccountViews
	summary   *fakeSummary
	publisher *fakePublisher
}

func newFixture() *fixture {
	f := &fixture{
		ledger:    &fakeLedger{},
		accounts:  &fakeAccountViews{},
		summary:   &fakeSummary{},
		publisher: &fakePublisher{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = NewCustomerCommandService(f.ledger, f.accounts, f.summary, f.publisher, logger)
	return f
}

func validSignup() cqrs.SignupCommand {
	return cqrs.SignupCommand{
		FirstName: "Ali", LastName: "Raza", Email: "ali@example.com", Phone: "03001112223",
		Password: "s3cret", CNIC: "35202-7654321-1", Username: "ali", Role: models.RoleSeller,
	}
}

// ---- tests ----

func TestSignup(t *testing.T) {
	t.Run("hashes password and publishes", func(t *testing.T) {
		f := newFixture()
		var stored models.Customer
		f.ledger.signupFn = func(c models.Customer) (*ledger.SignupResult, error) {
			stored = c
			return &ledger.SignupResult{
				CustID:  9,
				Account: models.Account{CustID: 9, AccNo: 123456789012, Balance: decimal.Zero, CreatedAt: time.Now()},
			}, nil
		}

		custID, err := f.svc.Signup(context.Background(), validSignup())
		require.NoError(t, err)
		assert.Equal(t, int64(9), custID)

		assert.NotEqual(t, "s3cret", stored.PasswordHash)
		assert.True(t, utils.CheckPassword("s3cret", stored.PasswordHash))

		assert.Empty(t, f.accounts.warmed, "account view is warmed through the event stream")
		assert.Equal(t, 1, f.summary.invalidations)

		require.Len(t, f.publisher.published, 1)
		assert.Equal(t, events.CustomerEventsStream, f.publisher.published[0].stream)
		assert.Equal(t, events.CustomerSignedUp, f.publisher.published[0].eventType)
		assert.Equal(t, events.CustomerSignedUpEvent{CustID: 9, AccNo: 123456789012, Role: models.RoleSeller}, f.publisher.published[0].data)
	})

	t.Run("invalid role is rejected before hashing", func(t *testing.T) {
		f := newFixture()
		cmd := validSignup()
		cmd.Role = "buyer"

		_, err := f.svc.Signup(context.Background(), cmd)
		assert.ErrorIs(t, err, ledger.ErrInvalidRole)
		assert.Empty(t, f.publisher.published)
	})

	t.Run("ledger failure publishes nothing", func(t *testing.T) {
		f := newFixture()
		f.ledger.signupFn = func(models.Customer) (*ledger.SignupResult, error) {
			return nil, &ledger.StorageError{Op: "create customer", Err: ledger.ErrDuplicateCustomer}
		}

		_, err := f.svc.Signup(context.Background(), validSignup())
		assert.ErrorIs(t, err, ledger.ErrDuplicateCustomer)
		assert.Empty(t, f.publisher.published)
		assert.Zero(t, f.summary.invalidations)
	})

	t.Run("publish failure does not fail signup", func(t *testing.T) {
		f := newFixture()
		f.publisher.err = errors.New("redis down")
		f.ledger.signupFn = func(models.Customer) (*ledger.SignupResult, error) {
			return &ledger.SignupResult{CustID: 4, Account: models.Account{CustID: 4, AccNo: 100000000001}}, nil
		}

		custID, err := f.svc.Signup(context.Background(), validSignup())
		require.NoError(t, err)
		assert.Equal(t, int64(4), custID)
	})
}

func TestProvisionAccount(t *testing.T) {
	f := newFixture()
	f.ledger.provisionFn = func(custID int64) (*models.Account, error) {
		return &models.Account{CustID: custID, AccNo: 555555555555}, nil
	}

	account, err := f.svc.ProvisionAccount(context.Background(), cqrs.ProvisionAccountCommand{CustID: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(555555555555), account.AccNo)
	require.Len(t, f.publisher.published, 1)
	assert.Equal(t, events.AccountProvisioned, f.publisher.published[0].eventType)

	f.ledger.provisionFn = func(int64) (*models.Account, error) { return nil, ledger.ErrAccountExists }
	_, err = f.svc.ProvisionAccount(context.Background(), cqrs.ProvisionAccountCommand{CustID: 5})
	assert.ErrorIs(t, err, ledger.ErrAccountExists)
	assert.Len(t, f.publisher.published, 1)
}

func TestTransferFunds(t *testing.T) {
	t.Run("invalidates both parties and publishes nothing", func(t *testing.T) {
		f := newFixture()
		f.ledger.transferFn = func(req ledger.TransferRequest) (*models.Transaction, error) {
			assert.Equal(t, int64(1), req.SenderCustID)
			assert.Equal(t, int64(222222222222), req.ReceiverAccNo)
			return &models.Transaction{TransactionID: 10, SenderID: 1, ReceiverID: 2, Amount: req.Amount}, nil
		}

		record, err := f.svc.TransferFunds(context.Background(), cqrs.TransferFundsCommand{
			SenderCustID: 1, ReceiverAccNo: 222222222222, Amount: decimal.NewFromInt(400),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(10), record.TransactionID)
		assert.ElementsMatch(t, []int64{1, 2}, f.accounts.invalidated)
		assert.Equal(t, 1, f.summary.invalidations)
		assert.Empty(t, f.publisher.published)
	})

	t.Run("failure leaves caches alone", func(t *testing.T) {
		f := newFixture()
		f.ledger.transferFn = func(ledger.TransferRequest) (*models.Transaction, error) {
			return nil, ledger.ErrInsufficientBalance
		}

		_, err := f.svc.TransferFunds(context.Background(), cqrs.TransferFundsCommand{
			SenderCustID: 1, ReceiverAccNo: 222222222222, Amount: decimal.NewFromInt(400),
		})
		assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)
		assert.Empty(t, f.accounts.invalidated)
		assert.Zero(t, f.summary.invalidations)
	})
}

func TestHandleCustomerEvent(t *testing.T) {
	tests := []struct {
		name        string
		event       events.Event
		getErr      error
		wantErr     bool
		wantWarmed  []int64
		wantDropped int
	}{
		{
			name:        "signed up warms account view",
			event:       events.Event{ID: "e1", Type: events.CustomerSignedUp, Data: map[string]any{"cust_id": 3, "acc_no": 123, "role": "Buyer"}},
			wantWarmed:  []int64{3},
			wantDropped: 1,
		},
		{
			name:        "provisioned warms account view",
			event:       events.Event{ID: "e2", Type: events.AccountProvisioned, Data: map[string]any{"cust_id": 8, "acc_no": 456}},
			wantWarmed:  []int64{8},
			wantDropped: 1,
		},
		{
			name:  "unknown event type is ignored",
			event: events.Event{ID: "e3", Type: "something.else"},
		},
		{
			name:       "read failure is retried by redelivery",
			event:      events.Event{ID: "e4", Type: events.AccountProvisioned, Data: map[string]any{"cust_id": 8}},
			getErr:     repository.ErrNotFound,
			wantErr:    true,
			wantWarmed: []int64{8},
		},
		{
			name:    "malformed payload",
			event:   events.Event{ID: "e5", Type: events.CustomerSignedUp, Data: "not an object"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.accounts.getErr = tt.getErr

			err := f.svc.HandleCustomerEvent(context.Background(), tt.event)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantWarmed, f.accounts.warmed)
			assert.Equal(t, tt.wantDropped, f.summary.invalidations)
		})
	}
}
