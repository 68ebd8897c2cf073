package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/market-engine/internal/domain/inventory"
	"github.com/xenking/market-engine/internal/domain/order"
)

const (
	insertOrderSQL = `INSERT INTO orders (order_number, user_id, status, subtotal, discount_amount,
		shipping_charge, total_amount, coupon_code, shipping_address, payment_method,
		payment_status, tracking_number, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`

	insertOrderItemSQL = `INSERT INTO order_items (order_id, product_id, product_name,
		product_image, unit_price, quantity, total_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	deleteCartByUserSQL = `DELETE FROM cart_items WHERE user_id = $1`

	orderColumns = `id, order_number, user_id, status, subtotal, discount_amount, shipping_charge,
		total_amount, coupon_code, shipping_address, payment_method, payment_status,
		tracking_number, notes, created_at, packed_at, shipped_at, delivered_at`

	getOrderByIDSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	listOrdersByUserSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE user_id = $1 ORDER BY created_at DESC, id DESC OFFSET $2 LIMIT $3`

	listOrderItemsSQL = `SELECT id, order_id, product_id, product_name, product_image,
		unit_price, quantity, total_price
		FROM order_items WHERE order_id = ANY($1) ORDER BY id`

	// The status guard makes cancellation a one-way latch: once a row is
	// CANCELLED no concurrent update can overwrite it, and the caller sees
	// zero rows affected instead.
	updateOrderStatusSQL = `UPDATE orders SET status = $2, packed_at = $3, shipped_at = $4,
		delivered_at = $5 WHERE id = $1 AND status <> 'CANCELLED'`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists the order as one transaction: conditional stock decrement
// for every item, order and item inserts, and the owner's cart deletion.
// Nothing is committed on any failure; insufficient stock surfaces as
// *inventory.InsufficientStockError.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin order transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	reservations := make([]inventory.Reservation, len(o.Items))
	for i, item := range o.Items {
		reservations[i] = inventory.Reservation{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
		}
	}
	if err := reserveLines(ctx, tx, reservations); err != nil {
		return err
	}

	err = tx.QueryRow(ctx, insertOrderSQL,
		o.OrderNumber, o.UserID, string(o.Status), o.Subtotal, o.DiscountAmount,
		o.ShippingCharge, o.TotalAmount, o.CouponCode, o.ShippingAddress, o.PaymentMethod,
		o.PaymentStatus, o.TrackingNumber, o.Notes, o.CreatedAt,
	).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.OrderNumber, err)
	}

	for i := range o.Items {
		item := &o.Items[i]
		err = tx.QueryRow(ctx, insertOrderItemSQL,
			o.ID, item.ProductID, item.ProductName, item.ProductImage,
			item.UnitPrice, item.Quantity, item.TotalPrice,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("creating order item for product %d: %w", item.ProductID, err)
		}
	}

	if _, err := tx.Exec(ctx, deleteCartByUserSQL, o.UserID); err != nil {
		return fmt.Errorf("clearing cart for user %d: %w", o.UserID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit order %q: %w", o.OrderNumber, err)
	}
	return nil
}

// GetByID returns an order with its items.
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %d: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %d: %w", id, err)
	}

	items, err := r.loadItems(ctx, []int64{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	return &o, nil
}

// ListByUser returns a page of the user's orders, most recent first, with
// items attached.
func (r *OrderRepository) ListByUser(ctx context.Context, userID int64, offset, limit int) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByUserSQL, userID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("listing orders for user %d: %w", userID, err)
	}

	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("listing orders for user %d: %w", userID, err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]int64, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
	}
	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

// UpdateStatus persists the order's status and status timestamps. It reports
// false when the stored row is already CANCELLED and nothing was written.
func (r *OrderRepository) UpdateStatus(ctx context.Context, o *order.Order) (bool, error) {
	tag, err := r.pool.Exec(ctx, updateOrderStatusSQL,
		o.ID, string(o.Status), o.PackedAt, o.ShippedAt, o.DeliveredAt,
	)
	if err != nil {
		return false, fmt.Errorf("updating status of order %d: %w", o.ID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *OrderRepository) loadItems(ctx context.Context, orderIDs []int64) (map[int64][]order.Item, error) {
	rows, err := r.pool.Query(ctx, listOrderItemsSQL, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("loading order items: %w", err)
	}

	items := make(map[int64][]order.Item, len(orderIDs))
	var scanErr error
	_, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (struct{}, error) {
		var (
			item    order.Item
			orderID int64
		)
		scanErr = row.Scan(&item.ID, &orderID, &item.ProductID, &item.ProductName,
			&item.ProductImage, &item.UnitPrice, &item.Quantity, &item.TotalPrice)
		if scanErr == nil {
			items[orderID] = append(items[orderID], item)
		}
		return struct{}{}, scanErr
	})
	if err != nil {
		return nil, fmt.Errorf("loading order items: %w", err)
	}
	return items, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o      order.Order
		status string
	)
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &status, &o.Subtotal, &o.DiscountAmount,
		&o.ShippingCharge, &o.TotalAmount, &o.CouponCode, &o.ShippingAddress,
		&o.PaymentMethod, &o.PaymentStatus, &o.TrackingNumber, &o.Notes,
		&o.CreatedAt, &o.PackedAt, &o.ShippedAt, &o.DeliveredAt,
	)
	o.Status = order.Status(status)
	return o, err
}
