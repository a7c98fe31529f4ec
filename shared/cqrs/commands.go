package cqrs

import "github.com/shopspring/decimal"

type SignupCommand struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Password  string
	CNIC      string
	Username  string
	Role      string
}

type ProvisionAccountCommand struct {
	CustID int64
}

type TransferFundsCommand struct {
	SenderCustID  int64
	ReceiverAccNo int64
	Amount        decimal.Decimal
}

type AddInventoryCommand struct {
	CustID      int64
	ProductName string
	Quantity    int
	Price       decimal.Decimal
}

type AddProductCommand struct {
	ProductName string
	Description string
	BasePrice   decimal.Decimal
}
