package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustomerView is the read-optimised projection of a customer.
// It never exposes PasswordHash.
type CustomerView struct {
	CustID    int64     `json:"cust_id"`
	FirstName string    `json:"f_name"`
	LastName  string    `json:"l_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CNIC      string    `json:"cnic"`
	Username  string    `json:"u_name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// AccountView is the cached projection of an account, keyed by customer.
type AccountView struct {
	CustID    int64           `json:"cust_id"`
	AccNo     int64           `json:"acc_no"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

// TransactionView is the per-customer history row.
type TransactionView struct {
	TransactionID int64           `json:"transaction_id"`
	SenderID      int64           `json:"sender_id"`
	ReceiverID    int64           `json:"receiver_id"`
	Amount        decimal.Decimal `json:"amount"`
	DateTime      time.Time       `json:"date_time"`
}

// InventoryView joins an inventory row with its product and supplier names.
type InventoryView struct {
	InventoryID       int64           `json:"inventory_id"`
	SupplierID        int64           `json:"supplier_id,omitempty"`
	SupplierFirstName string          `json:"supplier_first_name,omitempty"`
	SupplierLastName  string          `json:"supplier_last_name,omitempty"`
	ProductName       string          `json:"product_name"`
	Quantity          int             `json:"quantity"`
	Price             decimal.Decimal `json:"price"`
}

// LoginView is returned on a successful credential check.
type LoginView struct {
	Role   string `json:"role"`
	CustID int64  `json:"cust_id"`
	AccNo  *int64 `json:"acc_no"`
}

// DashboardSummary aggregates ledger totals for the admin dashboard.
type DashboardSummary struct {
	Customers    int64           `json:"customers"`
	Accounts     int64           `json:"accounts"`
	Transactions int64           `json:"transactions"`
	TotalBalance decimal.Decimal `json:"total_balance"`
	GeneratedAt  time.Time       `json:"generated_at"`
}
