package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer roles accepted at signup.
const (
	RoleBuyer  = "Buyer"
	RoleSeller = "Seller"
)

type Customer struct {
	CustID       int64     `json:"cust_id"`
	FirstName    string    `json:"f_name"`
	LastName     string    `json:"l_name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	CNIC         string    `json:"cnic"`
	Username     string    `json:"u_name"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Account is the single balance-bearing record owned by a customer.
type Account struct {
	CustID    int64           `json:"cust_id"`
	AccNo     int64           `json:"acc_no"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

// Transaction is one append-only ledger entry for a completed transfer.
type Transaction struct {
	TransactionID int64           `json:"transaction_id"`
	SenderID      int64           `json:"sender_id"`
	ReceiverID    int64           `json:"receiver_id"`
	AccNo         int64           `json:"acc_no"`
	Amount        decimal.Decimal `json:"amount"`
	TransferTo    int64           `json:"transfer_to"`
	DateTime      time.Time       `json:"date_time"`
}

type Product struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Description string          `json:"description,omitempty"`
	BasePrice   decimal.Decimal `json:"base_price"`
}

type InventoryItem struct {
	InventoryID int64           `json:"inventory_id"`
	SupplierID  int64           `json:"supplier_id"`
	ProductID   int64           `json:"product_id"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}
