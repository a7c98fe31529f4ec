package query

import (
	"context"
	"errors"

	"github.com/eaglebank/ledger/ledger-service/internal/repository"
	"github.com/eaglebank/ledger/shared/cqrs"
	"github.com/eaglebank/ledger/shared/models"
)

type RoleLookup interface {
	GetRole(ctx context.Context, custID int64) (string, error)
}

type InventoryReader interface {
	ListBySupplier(ctx context.Context, supplierID int64) ([]models.InventoryView, error)
	ListAvailable(ctx context.Context) ([]models.InventoryView, error)
}

type InventoryQueryService struct {
	customers RoleLookup
	inventory InventoryReader
}

func NewInventoryQueryService(customers RoleLookup, inventory InventoryReader) *InventoryQueryService {
	return &InventoryQueryService{customers: customers, inventory: inventory}
}

// ListSellerInventory returns a seller's own stock. Buyers have none.
func (s *InventoryQueryService) ListSellerInventory(ctx context.Context, q cqrs.ListSellerInventoryQuery) ([]models.InventoryView, error) {
	role, err := s.customers.GetRole(ctx, q.CustID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	if role != models.RoleSeller {
		return nil, ErrNotSeller
	}
	return s.inventory.ListBySupplier(ctx, q.CustID)
}

// ListAvailable returns everything buyers can currently see.
func (s *InventoryQueryService) ListAvailable(ctx context.Context) ([]models.InventoryView, error) {
	return s.inventory.ListAvailable(ctx)
}
