package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/eaglebank/ledger/shared/models"
)

// InventoryRepository owns the product catalogue and seller inventory tables.
type InventoryRepository struct {
	db DBTX
}

func NewInventoryRepository(db DBTX) *InventoryRepository {
	return &InventoryRepository{db: db}
}

func (r *InventoryRepository) GetProductIDByName(ctx context.Context, name string) (int64, error) {
	query := `SELECT product_id FROM products WHERE product_name = $1`
	var id int64
	err := r.db.QueryRowContext(ctx, query, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get product: %w", err)
	}
	return id, nil
}

func (r *InventoryRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	query := `
		INSERT INTO products (product_name, description, base_price)
		VALUES ($1, $2, $3)
		RETURNING product_id
	`
	err := r.db.QueryRowContext(ctx, query,
		product.ProductName, nullString(product.Description), product.BasePrice,
	).Scan(&product.ProductID)
	if err != nil {
		return mapPQError("create product", err)
	}
	return nil
}

func (r *InventoryRepository) ListProducts(ctx context.Context) ([]models.Product, error) {
	query := `
		SELECT product_id, product_name, description, base_price
		FROM products
		ORDER BY product_id DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		var p models.Product
		var description sql.NullString
		if err := rows.Scan(&p.ProductID, &p.ProductName, &description, &p.BasePrice); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		p.Description = description.String
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (r *InventoryRepository) CreateItem(ctx context.Context, item *models.InventoryItem) error {
	query := `
		INSERT INTO inventory (supplier_id, product_id, quantity, price)
		VALUES ($1, $2, $3, $4)
		RETURNING inventory_id
	`
	err := r.db.QueryRowContext(ctx, query,
		item.SupplierID, item.ProductID, item.Quantity, item.Price,
	).Scan(&item.InventoryID)
	if err != nil {
		return fmt.Errorf("failed to create inventory item: %w", err)
	}
	return nil
}

// ListBySupplier returns one seller's inventory.
func (r *InventoryRepository) ListBySupplier(ctx context.Context, supplierID int64) ([]models.InventoryView, error) {
	query := `
		SELECT i.inventory_id, p.product_name, i.quantity, i.price
		FROM inventory i
		JOIN products p ON i.product_id = p.product_id
		WHERE i.supplier_id = $1
		ORDER BY i.inventory_id
	`
	return r.list(ctx, query, func(rows *sql.Rows, v *models.InventoryView) error {
		return rows.Scan(&v.InventoryID, &v.ProductName, &v.Quantity, &v.Price)
	}, supplierID)
}

// ListAvailable returns every in-stock item with its seller's name, for buyers.
func (r *InventoryRepository) ListAvailable(ctx context.Context) ([]models.InventoryView, error) {
	query := `
		SELECT i.inventory_id, i.supplier_id, c.f_name, c.l_name, p.product_name, i.quantity, i.price
		FROM inventory i
		JOIN products p ON i.product_id = p.product_id
		JOIN customers c ON i.supplier_id = c.cust_id
		WHERE i.quantity > 0
		ORDER BY i.inventory_id
	`
	return r.list(ctx, query, scanSupplierInventory)
}

// ListAll returns every inventory row, newest first, for the admin view.
func (r *InventoryRepository) ListAll(ctx context.Context) ([]models.InventoryView, error) {
	query := `
		SELECT i.inventory_id, i.supplier_id, c.f_name, c.l_name, p.product_name, i.quantity, i.price
		FROM inventory i
		JOIN customers c ON i.supplier_id = c.cust_id
		JOIN products p ON i.product_id = p.product_id
		ORDER BY i.inventory_id DESC
	`
	return r.list(ctx, query, scanSupplierInventory)
}

func scanSupplierInventory(rows *sql.Rows, v *models.InventoryView) error {
	return rows.Scan(&v.InventoryID, &v.SupplierID, &v.SupplierFirstName, &v.SupplierLastName, &v.ProductName, &v.Quantity, &v.Price)
}

func (r *InventoryRepository) list(ctx context.Context, query string, scan func(*sql.Rows, *models.InventoryView) error, args ...any) ([]models.InventoryView, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	defer rows.Close()

	views := []models.InventoryView{}
	for rows.Next() {
		var v models.InventoryView
		if err := scan(rows, &v); err != nil {
			return nil, fmt.Errorf("failed to scan inventory: %w", err)
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	return views, nil
}
