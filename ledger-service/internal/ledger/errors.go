package ledger

import (
	"errors"
	"fmt"
)

// Kind classifies ledger failures so the transport layer can map them
// without string matching.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// Error is a ledger failure with a user-presentable message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	ErrInvalidRole       = &Error{Kind: KindValidation, Message: "Invalid role. Must be Buyer or Seller."}
	ErrInvalidInput      = &Error{Kind: KindValidation, Message: "Missing or invalid customer details"}
	ErrInvalidCustomerID = &Error{Kind: KindValidation, Message: "Invalid customer ID"}
	ErrInvalidReceiver   = &Error{Kind: KindValidation, Message: "Invalid receiver account"}
	ErrInvalidAmount     = &Error{Kind: KindValidation, Message: "Invalid transfer amount"}
	ErrSelfTransfer      = &Error{Kind: KindValidation, Message: "Cannot transfer to your own account"}

	ErrCustomerNotFound        = &Error{Kind: KindNotFound, Message: "Customer not found"}
	ErrSenderAccountNotFound   = &Error{Kind: KindNotFound, Message: "Sender account not found"}
	ErrReceiverAccountNotFound = &Error{Kind: KindNotFound, Message: "Receiver account not found"}

	ErrAccountExists       = &Error{Kind: KindConflict, Message: "Account already exists"}
	ErrInsufficientBalance = &Error{Kind: KindConflict, Message: "Insufficient balance"}

	ErrAccountNumberCollision = &Error{Kind: KindStorage, Message: "Could not allocate a unique account number"}
	ErrDuplicateCustomer      = &Error{Kind: KindStorage, Message: "Customer with the same email, username or CNIC already exists"}
)

// StorageError wraps a data-store failure. The enclosing transaction has
// always been rolled back by the time a caller sees one.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("ledger: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// KindOf reports the Kind of err, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var se *StorageError
	if errors.As(err, &se) {
		return KindStorage
	}
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return KindUnknown
}
