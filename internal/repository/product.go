package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/market-engine/internal/domain/product"
)

// productColumns is the canonical select list; every product query scans the
// same shape via scanProduct.
const productColumns = `id, name, description, base_price, current_price, stock_quantity,
	demand_count, discount_percentage, image_url, sku, active, featured, category_id, created_at`

const (
	listProductsSQL = `SELECT ` + productColumns + ` FROM products ORDER BY id`

	getProductByIDSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	getProductsByIDsSQL = `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1) ORDER BY id`

	// Catalog order (id ascending) keeps the suggestion heuristics deterministic.
	listByCategoryExcludingSQL = `SELECT ` + productColumns + ` FROM products
		WHERE category_id = $1 AND id <> $2 AND active ORDER BY id`

	listByCategorySQL = `SELECT ` + productColumns + ` FROM products
		WHERE category_id = $1 AND active ORDER BY id LIMIT $2`

	listTopByDemandSQL = `SELECT ` + productColumns + ` FROM products
		WHERE active ORDER BY demand_count DESC, id LIMIT $1`

	listFeaturedSQL = `SELECT ` + productColumns + ` FROM products
		WHERE featured AND active ORDER BY created_at DESC, id`

	listLowStockSQL = `SELECT ` + productColumns + ` FROM products
		WHERE active AND stock_quantity <= $1 ORDER BY stock_quantity, id`

	incrementDemandSQL = `UPDATE products SET demand_count = demand_count + 1
		WHERE id = $1 RETURNING ` + productColumns

	updateCurrentPriceSQL = `UPDATE products SET current_price = $2 WHERE id = $1`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns all products from the catalog ordered by ID.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}
	return &p, nil
}

// GetByIDs returns products matching any of the given IDs, in catalog order.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []int64) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// ListByCategoryExcluding returns the active products of a category except
// the excluded one, in catalog order.
func (r *ProductRepository) ListByCategoryExcluding(ctx context.Context, categoryID, excludedID int64) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listByCategoryExcludingSQL, categoryID, excludedID)
	if err != nil {
		return nil, fmt.Errorf("listing category %d products: %w", categoryID, err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// ListByCategory returns up to limit active products of a category in
// catalog order.
func (r *ProductRepository) ListByCategory(ctx context.Context, categoryID int64, limit int) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listByCategorySQL, categoryID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing category %d products: %w", categoryID, err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// ListTopByDemand returns the most viewed active products.
func (r *ProductRepository) ListTopByDemand(ctx context.Context, limit int) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listTopByDemandSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("listing top demand products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// ListFeatured returns active featured products, newest first.
func (r *ProductRepository) ListFeatured(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listFeaturedSQL)
	if err != nil {
		return nil, fmt.Errorf("listing featured products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// ListLowStock returns active products at or below the stock threshold.
func (r *ProductRepository) ListLowStock(ctx context.Context, threshold int) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listLowStockSQL, threshold)
	if err != nil {
		return nil, fmt.Errorf("listing low stock products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// IncrementDemand atomically bumps the demand counter and returns the
// updated row.
func (r *ProductRepository) IncrementDemand(ctx context.Context, id int64) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, incrementDemandSQL, id)
	if err != nil {
		return nil, fmt.Errorf("incrementing demand for product %d: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("incrementing demand for product %d: %w", id, err)
	}
	return &p, nil
}

// UpdateCurrentPrice persists a freshly computed dynamic price.
func (r *ProductRepository) UpdateCurrentPrice(ctx context.Context, id int64, price decimal.Decimal) error {
	if _, err := r.pool.Exec(ctx, updateCurrentPriceSQL, id, price); err != nil {
		return fmt.Errorf("updating current price for product %d: %w", id, err)
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.BasePrice, &p.CurrentPrice, &p.StockQuantity,
		&p.DemandCount, &p.DiscountPercentage, &p.ImageURL, &p.SKU, &p.Active, &p.Featured,
		&p.CategoryID, &p.CreatedAt,
	)
	return p, err
}
