package query

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/eaglebank/ledger/ledger-service/internal/repository"
	"github.com/eaglebank/ledger/shared/cqrs"
	"github.com/eaglebank/ledger/shared/models"
	"github.com/eaglebank/ledger/shared/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- fakes ----

type fakeCustomers map[int64]models.CustomerView

func (f fakeCustomers) GetByID(_ context.Context, custID int64) (*models.CustomerView, error) {
	v, ok := f[custID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &v, nil
}

func (f fakeCustomers) List(context.Context) ([]models.CustomerView, error) {
	out := make([]models.CustomerView, 0, len(f))
	for _, v := range f {
		out = append(out, v)
	}
	return out, nil
}

func (f fakeCustomers) GetRole(_ context.Context, custID int64) (string, error) {
	v, ok := f[custID]
	if !ok {
		return "", repository.ErrNotFound
	}
	return v.Role, nil
}

type fakeAccounts map[int64]models.AccountView

func (f fakeAccounts) GetByCustID(_ context.Context, custID int64) (*models.AccountView, error) {
	v, ok := f[custID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &v, nil
}

type fakeCredentials map[string]repository.Credentials

func (f fakeCredentials) GetCredentialsByEmail(_ context.Context, email string) (*repository.Credentials, error) {
	c, ok := f[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

type fakeTransactions struct{ err error }

func (f fakeTransactions) ListByCustomer(_ context.Context, custID int64) ([]models.TransactionView, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []models.TransactionView{{TransactionID: 1, SenderID: custID, ReceiverID: 2}}, nil
}

func (f fakeTransactions) ListAll(context.Context) ([]models.Transaction, error) {
	return []models.Transaction{{TransactionID: 2}, {TransactionID: 1}}, nil
}

type fakeInventory struct{}

func (fakeInventory) ListBySupplier(_ context.Context, supplierID int64) ([]models.InventoryView, error) {
	return []models.InventoryView{{InventoryID: 1, ProductName: "Rice", Quantity: 3}}, nil
}

func (fakeInventory) ListAvailable(context.Context) ([]models.InventoryView, error) {
	return []models.InventoryView{{InventoryID: 1, SupplierFirstName: "Ali"}}, nil
}

// ---- tests ----

var testCustomers = fakeCustomers{
	1: {CustID: 1, FirstName: "Ayesha", Role: models.RoleBuyer},
	2: {CustID: 2, FirstName: "Ali", Role: models.RoleSeller},
}

func TestGetProfileAndBalance(t *testing.T) {
	accounts := fakeAccounts{1: {CustID: 1, AccNo: 111111111111, Balance: decimal.RequireFromString("600.00")}}
	svc := NewCustomerQueryService(testCustomers, accounts, fakeTransactions{}, fakeCredentials{})
	ctx := context.Background()

	profile, err := svc.GetProfile(ctx, cqrs.GetProfileQuery{CustID: 1})
	require.NoError(t, err)
	assert.Equal(t, "Ayesha", profile.FirstName)

	_, err = svc.GetProfile(ctx, cqrs.GetProfileQuery{CustID: 42})
	assert.ErrorIs(t, err, ErrCustomerNotFound)

	balance, err := svc.GetBalance(ctx, cqrs.GetBalanceQuery{CustID: 1})
	require.NoError(t, err)
	assert.Equal(t, "600", balance.Balance.String())

	_, err = svc.GetBalance(ctx, cqrs.GetBalanceQuery{CustID: 2})
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestListTransactionsPassesErrorsThrough(t *testing.T) {
	boom := errors.New("db down")
	svc := NewCustomerQueryService(testCustomers, fakeAccounts{}, fakeTransactions{err: boom}, fakeCredentials{})

	_, err := svc.ListTransactions(context.Background(), cqrs.ListCustomerTransactionsQuery{CustID: 1})
	assert.ErrorIs(t, err, boom)
}

func TestLogin(t *testing.T) {
	hash, err := utils.HashPassword("correct horse")
	require.NoError(t, err)

	creds := fakeCredentials{
		"seller@example.com": {CustID: 2, Role: models.RoleSeller, PasswordHash: hash, AccNo: sql.NullInt64{Int64: 222222222222, Valid: true}},
		"new@example.com":    {CustID: 3, Role: models.RoleBuyer, PasswordHash: hash},
	}
	svc := NewCustomerQueryService(testCustomers, fakeAccounts{}, fakeTransactions{}, creds)

	tests := []struct {
		name      string
		query     cqrs.LoginQuery
		wantErr   error
		wantAccNo *int64
	}{
		{name: "valid credentials", query: cqrs.LoginQuery{Email: "seller@example.com", Password: "correct horse"}},
		{name: "customer without account", query: cqrs.LoginQuery{Email: "new@example.com", Password: "correct horse"}},
		{name: "unknown email", query: cqrs.LoginQuery{Email: "nobody@example.com", Password: "x"}, wantErr: ErrUserNotFound},
		{name: "wrong password", query: cqrs.LoginQuery{Email: "seller@example.com", Password: "wrong"}, wantErr: ErrIncorrectPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, err := svc.Login(context.Background(), tt.query)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			c := creds[tt.query.Email]
			assert.Equal(t, c.CustID, view.CustID)
			assert.Equal(t, c.Role, view.Role)
			if c.AccNo.Valid {
				require.NotNil(t, view.AccNo)
				assert.Equal(t, c.AccNo.Int64, *view.AccNo)
			} else {
				assert.Nil(t, view.AccNo)
			}
		})
	}
}

func TestListSellerInventory(t *testing.T) {
	svc := NewInventoryQueryService(testCustomers, fakeInventory{})
	ctx := context.Background()

	items, err := svc.ListSellerInventory(ctx, cqrs.ListSellerInventoryQuery{CustID: 2})
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, err = svc.ListSellerInventory(ctx, cqrs.ListSellerInventoryQuery{CustID: 1})
	assert.ErrorIs(t, err, ErrNotSeller)

	_, err = svc.ListSellerInventory(ctx, cqrs.ListSellerInventoryQuery{CustID: 9})
	assert.ErrorIs(t, err, ErrCustomerNotFound)

	available, err := svc.ListAvailable(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ali", available[0].SupplierFirstName)
}
