package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/market-engine/internal/domain/cart"
)

const (
	listCartByUserSQL = `SELECT id, user_id, product_id, quantity, price_snapshot
		FROM cart_items WHERE user_id = $1 ORDER BY id`

	getCartLineSQL = `SELECT id, user_id, product_id, quantity, price_snapshot
		FROM cart_items WHERE user_id = $1 AND product_id = $2`

	upsertCartLineSQL = `INSERT INTO cart_items (user_id, product_id, quantity, price_snapshot)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, price_snapshot = EXCLUDED.price_snapshot
		RETURNING id`

	deleteCartLineSQL = `DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// ListByUser returns the user's cart lines in insertion order.
func (r *CartRepository) ListByUser(ctx context.Context, userID int64) ([]cart.Line, error) {
	rows, err := r.pool.Query(ctx, listCartByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing cart for user %d: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanCartLine)
}

// Get returns the (user, product) line. Returns cart.ErrLineNotFound when it
// does not exist.
func (r *CartRepository) Get(ctx context.Context, userID, productID int64) (*cart.Line, error) {
	rows, err := r.pool.Query(ctx, getCartLineSQL, userID, productID)
	if err != nil {
		return nil, fmt.Errorf("getting cart line: %w", err)
	}

	line, err := pgx.CollectExactlyOneRow(rows, scanCartLine)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrLineNotFound
		}
		return nil, fmt.Errorf("getting cart line: %w", err)
	}
	return &line, nil
}

// Upsert creates the line or replaces its quantity and price snapshot.
func (r *CartRepository) Upsert(ctx context.Context, line *cart.Line) error {
	err := r.pool.QueryRow(ctx, upsertCartLineSQL,
		line.UserID, line.ProductID, line.Quantity, line.PriceSnapshot,
	).Scan(&line.ID)
	if err != nil {
		return fmt.Errorf("saving cart line: %w", err)
	}
	return nil
}

// Delete removes a single (user, product) line.
func (r *CartRepository) Delete(ctx context.Context, userID, productID int64) error {
	if _, err := r.pool.Exec(ctx, deleteCartLineSQL, userID, productID); err != nil {
		return fmt.Errorf("deleting cart line: %w", err)
	}
	return nil
}

// DeleteByUser removes every line from the user's cart.
func (r *CartRepository) DeleteByUser(ctx context.Context, userID int64) error {
	if _, err := r.pool.Exec(ctx, deleteCartByUserSQL, userID); err != nil {
		return fmt.Errorf("clearing cart for user %d: %w", userID, err)
	}
	return nil
}

func scanCartLine(row pgx.CollectableRow) (cart.Line, error) {
	var line cart.Line
	err := row.Scan(&line.ID, &line.UserID, &line.ProductID, &line.Quantity, &line.PriceSnapshot)
	return line, err
}
