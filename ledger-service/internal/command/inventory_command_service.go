package command

import (
	"context"
	"errors"
	"strings"

	"github.com/eaglebank/ledger/ledger-service/internal/repository"
	"github.com/eaglebank/ledger/shared/cqrs"
	"github.com/eaglebank/ledger/shared/models"
	"github.com/shopspring/decimal"
)

var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrNotSeller        = errors.New("only sellers can add products to inventory")
	ErrProductNotFound  = errors.New("product not found in products list")
	ErrProductExists    = errors.New("product already exists")
	ErrInvalidQuantity  = errors.New("invalid quantity")
	ErrInvalidPrice     = errors.New("invalid price")
	ErrInvalidProduct   = errors.New("product name is required")
)

type RoleLookup interface {
	GetRole(ctx context.Context, custID int64) (string, error)
}

type InventoryStore interface {
	GetProductIDByName(ctx context.Context, name string) (int64, error)
	CreateProduct(ctx context.Context, product *models.Product) error
	CreateItem(ctx context.Context, item *models.InventoryItem) error
}

// InventoryCommandService maintains the product catalogue and seller stock.
// None of it touches balances.
type InventoryCommandService struct {
	customers RoleLookup
	inventory InventoryStore
}

func NewInventoryCommandService(customers RoleLookup, inventory InventoryStore) *InventoryCommandService {
	return &InventoryCommandService{customers: customers, inventory: inventory}
}

func (s *InventoryCommandService) AddInventory(ctx context.Context, cmd cqrs.AddInventoryCommand) (*models.InventoryItem, error) {
	name := strings.TrimSpace(cmd.ProductName)
	if name == "" {
		return nil, ErrInvalidProduct
	}
	if cmd.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if cmd.Price.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidPrice
	}

	role, err := s.customers.GetRole(ctx, cmd.CustID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	if role != models.RoleSeller {
		return nil, ErrNotSeller
	}

	productID, err := s.inventory.GetProductIDByName(ctx, name)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}

	item := &models.InventoryItem{
		SupplierID: cmd.CustID,
		ProductID:  productID,
		Quantity:   cmd.Quantity,
		Price:      cmd.Price,
	}
	if err := s.inventory.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *InventoryCommandService) AddProduct(ctx context.Context, cmd cqrs.AddProductCommand) (*models.Product, error) {
	name := strings.TrimSpace(cmd.ProductName)
	if name == "" {
		return nil, ErrInvalidProduct
	}
	if cmd.BasePrice.IsNegative() {
		return nil, ErrInvalidPrice
	}

	product := &models.Product{
		ProductName: name,
		Description: strings.TrimSpace(cmd.Description),
		BasePrice:   cmd.BasePrice,
	}
	if err := s.inventory.CreateProduct(ctx, product); err != nil {
		if errors.Is(err, repository.ErrUniqueViolation) {
			return nil, ErrProductExists
		}
		return nil, err
	}
	return product, nil
}
