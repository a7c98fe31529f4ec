package events

import "time"

// Event types
const (
	CustomerSignedUp   = "customer.signed_up"
	AccountProvisioned = "account.provisioned"
)

// Stream names
const (
	CustomerEventsStream = "customer.events"
)

// Base event structure
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

type CustomerSignedUpEvent struct {
	CustID int64  `json:"cust_id"`
	AccNo  int64  `json:"acc_no"`
	Role   string `json:"role"`
}

type AccountProvisionedEvent struct {
	CustID int64 `json:"cust_id"`
	AccNo  int64 `json:"acc_no"`
}
