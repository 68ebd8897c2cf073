package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/market-engine/internal/domain/product"
)

const (
	recordViewSQL = `INSERT INTO product_views (user_id, product_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET view_count = product_views.view_count + 1, last_viewed_at = now()`

	listRecentViewsSQL = `SELECT pv.user_id, pv.product_id, p.category_id, pv.view_count, pv.last_viewed_at
		FROM product_views pv
		JOIN products p ON p.id = pv.product_id
		WHERE pv.user_id = $1
		ORDER BY pv.last_viewed_at DESC
		LIMIT $2`
)

var _ product.ViewRepository = (*ViewRepository)(nil)

// ViewRepository implements product.ViewRepository backed by PostgreSQL.
type ViewRepository struct {
	pool *pgxpool.Pool
}

// NewViewRepository returns a ViewRepository that uses the given pool.
func NewViewRepository(pool *pgxpool.Pool) *ViewRepository {
	return &ViewRepository{pool: pool}
}

// RecordView creates or increments the (user, product) view row.
func (r *ViewRepository) RecordView(ctx context.Context, userID, productID int64) error {
	if _, err := r.pool.Exec(ctx, recordViewSQL, userID, productID); err != nil {
		return fmt.Errorf("recording view of product %d: %w", productID, err)
	}
	return nil
}

// ListRecentByUser returns the user's most recent views, newest first, with
// the viewed product's category attached.
func (r *ViewRepository) ListRecentByUser(ctx context.Context, userID int64, limit int) ([]product.View, error) {
	rows, err := r.pool.Query(ctx, listRecentViewsSQL, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing recent views for user %d: %w", userID, err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (product.View, error) {
		var v product.View
		err := row.Scan(&v.UserID, &v.ProductID, &v.CategoryID, &v.ViewCount, &v.LastViewedAt)
		return v, err
	})
}
