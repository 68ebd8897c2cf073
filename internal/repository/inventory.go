package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/market-engine/internal/domain/inventory"
)

const (
	// reserveStockSQL is the whole point of the guard: the check and the
	// decrement are one indivisible statement, so two concurrent checkouts
	// can never both pass a stale check and jointly drive stock negative.
	reserveStockSQL = `UPDATE products SET stock_quantity = stock_quantity - $2
		WHERE id = $1 AND stock_quantity >= $2`

	releaseStockSQL = `UPDATE products SET stock_quantity = stock_quantity + $2
		WHERE id = $1`
)

var _ inventory.Guard = (*InventoryRepository)(nil)

// InventoryRepository implements inventory.Guard backed by PostgreSQL.
type InventoryRepository struct {
	pool *pgxpool.Pool
}

// NewInventoryRepository returns an InventoryRepository that uses the given pool.
func NewInventoryRepository(pool *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{pool: pool}
}

// Reserve decrements stock for every line inside one transaction. The first
// line with insufficient stock aborts the transaction, rolling back all
// prior decrements.
func (r *InventoryRepository) Reserve(ctx context.Context, lines []inventory.Reservation) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin reservation: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if err := reserveLines(ctx, tx, lines); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit reservation: %w", err)
	}
	return nil
}

// Release increments stock for every line inside one transaction. It is the
// symmetric inverse of Reserve, used when a reservation is undone.
func (r *InventoryRepository) Release(ctx context.Context, lines []inventory.Reservation) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin release: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, line := range lines {
		if _, err := tx.Exec(ctx, releaseStockSQL, line.ProductID, line.Quantity); err != nil {
			return fmt.Errorf("releasing stock for product %d: %w", line.ProductID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit release: %w", err)
	}
	return nil
}

// reserveLines runs the conditional decrement for each line on tx. It is
// shared with the order repository so checkout uses the exact same guard
// inside its own transaction.
func reserveLines(ctx context.Context, tx pgx.Tx, lines []inventory.Reservation) error {
	for _, line := range lines {
		tag, err := tx.Exec(ctx, reserveStockSQL, line.ProductID, line.Quantity)
		if err != nil {
			return fmt.Errorf("reserving stock for product %d: %w", line.ProductID, err)
		}
		if tag.RowsAffected() == 0 {
			return &inventory.InsufficientStockError{ProductName: line.ProductName}
		}
	}
	return nil
}
