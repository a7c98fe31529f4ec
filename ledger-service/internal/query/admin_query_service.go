package query

import (
	"context"

	"github.com/eaglebank/ledger/shared/models"
)

type SummaryReader interface {
	Summary(ctx context.Context) (*models.DashboardSummary, error)
}

type CatalogueReader interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	ListAll(ctx context.Context) ([]models.InventoryView, error)
}

// AdminQueryService backs the admin dashboard. Every method is a full
// listing or an aggregate; nothing is scoped to a customer.
type AdminQueryService struct {
	customers    CustomerReader
	transactions TransactionReader
	summary      SummaryReader
	catalogue    CatalogueReader
}

func NewAdminQueryService(customers CustomerReader, transactions TransactionReader, summary SummaryReader, catalogue CatalogueReader) *AdminQueryService {
	return &AdminQueryService{
		customers:    customers,
		transactions: transactions,
		summary:      summary,
		catalogue:    catalogue,
	}
}

func (s *AdminQueryService) ListCustomers(ctx context.Context) ([]models.CustomerView, error) {
	return s.customers.List(ctx)
}

func (s *AdminQueryService) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	return s.transactions.ListAll(ctx)
}

func (s *AdminQueryService) Summary(ctx context.Context) (*models.DashboardSummary, error) {
	return s.summary.Summary(ctx)
}

func (s *AdminQueryService) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.catalogue.ListProducts(ctx)
}

func (s *AdminQueryService) ListInventories(ctx context.Context) ([]models.InventoryView, error) {
	return s.catalogue.ListAll(ctx)
}
