package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/eaglebank/ledger/ledger-service/internal/ledger"
	"github.com/eaglebank/ledger/shared/cqrs"
	"github.com/eaglebank/ledger/shared/events"
	"github.com/eaglebank/ledger/shared/models"
	"github.com/eaglebank/ledger/shared/utils"
)

// Ledger is the atomic write path that CustomerCommandService drives.
type Ledger interface {
	SignupAndProvision(ctx context.Context, customer models.Customer) (*ledger.SignupResult, error)
	ProvisionAccount(ctx context.Context, custID int64) (*models.Account, error)
	TransferFunds(ctx context.Context, req ledger.TransferRequest) (*models.Transaction, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// AccountViews is the cached account read model.
type AccountViews interface {
	GetByCustID(ctx context.Context, custID int64) (*models.AccountView, error)
	InvalidateAccountViews(ctx context.Context, custIDs ...int64)
}

type SummaryCache interface {
	InvalidateSummary(ctx context.Context)
}

// CustomerCommandService runs customer-facing writes through the ledger and
// keeps the read models and event stream in step once a write has committed.
type CustomerCommandService struct {
	ledger    Ledger
	accounts  AccountViews
	summary   SummaryCache
	publisher EventPublisher
	logger    *slog.Logger
}

func NewCustomerCommandService(
	l Ledger,
	accounts AccountViews,
	summary SummaryCache,
	publisher EventPublisher,
	logger *slog.Logger,
) *CustomerCommandService {
	return &CustomerCommandService{
		ledger:    l,
		accounts:  accounts,
		summary:   summary,
		publisher: publisher,
		logger:    logger,
	}
}

// Signup creates the customer and their account and returns the new cust_id.
// The account view is warmed later by the customer.events subscriber.
func (s *CustomerCommandService) Signup(ctx context.Context, cmd cqrs.SignupCommand) (int64, error) {
	if err := ledger.ValidateRole(cmd.Role); err != nil {
		return 0, err
	}
	hash, err := utils.HashPassword(cmd.Password)
	if err != nil {
		return 0, fmt.Errorf("failed to hash password: %w", err)
	}

	result, err := s.ledger.SignupAndProvision(ctx, models.Customer{
		FirstName:    cmd.FirstName,
		LastName:     cmd.LastName,
		Email:        cmd.Email,
		Phone:        cmd.Phone,
		PasswordHash: hash,
		CNIC:         cmd.CNIC,
		Username:     cmd.Username,
		Role:         cmd.Role,
	})
	if err != nil {
		return 0, err
	}

	s.summary.InvalidateSummary(ctx)
	s.publish(ctx, events.CustomerSignedUp, events.CustomerSignedUpEvent{
		CustID: result.CustID,
		AccNo:  result.Account.AccNo,
		Role:   cmd.Role,
	})
	return result.CustID, nil
}

func (s *CustomerCommandService) ProvisionAccount(ctx context.Context, cmd cqrs.ProvisionAccountCommand) (*models.Account, error) {
	account, err := s.ledger.ProvisionAccount(ctx, cmd.CustID)
	if err != nil {
		return nil, err
	}

	s.summary.InvalidateSummary(ctx)
	s.publish(ctx, events.AccountProvisioned, events.AccountProvisionedEvent{
		CustID: account.CustID,
		AccNo:  account.AccNo,
	})
	return account, nil
}

// TransferFunds moves money between accounts. It publishes nothing; the
// cached balances of both parties are dropped so the next read hits Postgres.
func (s *CustomerCommandService) TransferFunds(ctx context.Context, cmd cqrs.TransferFundsCommand) (*models.Transaction, error) {
	record, err := s.ledger.TransferFunds(ctx, ledger.TransferRequest{
		SenderCustID:  cmd.SenderCustID,
		ReceiverAccNo: cmd.ReceiverAccNo,
		Amount:        cmd.Amount,
	})
	if err != nil {
		return nil, err
	}

	s.accounts.InvalidateAccountViews(ctx, record.SenderID, record.ReceiverID)
	s.summary.InvalidateSummary(ctx)
	return record, nil
}

// HandleCustomerEvent consumes customer.events. Both event kinds warm the
// account view of the customer involved and drop the dashboard summary.
// Redelivery is harmless since both effects are idempotent.
func (s *CustomerCommandService) HandleCustomerEvent(ctx context.Context, event events.Event) error {
	var custID int64
	switch event.Type {
	case events.CustomerSignedUp:
		var data events.CustomerSignedUpEvent
		if err := events.DecodeData(event, &data); err != nil {
			return fmt.Errorf("failed to decode %s event: %w", event.Type, err)
		}
		custID = data.CustID
	case events.AccountProvisioned:
		var data events.AccountProvisionedEvent
		if err := events.DecodeData(event, &data); err != nil {
			return fmt.Errorf("failed to decode %s event: %w", event.Type, err)
		}
		custID = data.CustID
	default:
		s.logger.DebugContext(ctx, "ignoring event", "type", event.Type, "event_id", event.ID)
		return nil
	}

	if _, err := s.accounts.GetByCustID(ctx, custID); err != nil {
		return fmt.Errorf("failed to warm account view for customer %d: %w", custID, err)
	}
	s.summary.InvalidateSummary(ctx)
	s.logger.InfoContext(ctx, "processed customer event", "type", event.Type, "event_id", event.ID, "cust_id", custID)
	return nil
}

func (s *CustomerCommandService) publish(ctx context.Context, eventType string, data any) {
	if err := s.publisher.Publish(ctx, events.CustomerEventsStream, eventType, data); err != nil {
		s.logger.WarnContext(ctx, "failed to publish event", "type", eventType, "error", err)
	}
}
