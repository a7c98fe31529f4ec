package cqrs

// ---------- Customer queries ----------

// GetProfileQuery fetches a single customer profile.
type GetProfileQuery struct {
	CustID int64
}

// GetBalanceQuery fetches the balance of a customer's account.
type GetBalanceQuery struct {
	CustID int64
}

// LoginQuery checks a customer's credentials. It issues no session.
type LoginQuery struct {
	Email    string
	Password string
}

// ---------- Transaction queries ----------

// ListCustomerTransactionsQuery fetches transfers sent or received by a customer.
type ListCustomerTransactionsQuery struct {
	CustID int64
}

// ---------- Inventory queries ----------

// ListSellerInventoryQuery fetches the inventory of one seller.
type ListSellerInventoryQuery struct {
	CustID int64
}
