package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oakmart/storefront/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders
		(id, user_id, items, ship_street, ship_city, ship_state, ship_zip_code, ship_country,
		 payment_method, subtotal, discount, coupon_code, tax, shipping_charges, total_amount,
		 status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	orderColumns = `o.id, o.user_id, o.items, o.ship_street, o.ship_city, o.ship_state,
		o.ship_zip_code, o.ship_country, o.payment_method, o.subtotal, o.discount,
		o.coupon_code, o.tax, o.shipping_charges, o.total_amount, o.status, o.created_at`

	listAllOrdersSQL = `SELECT ` + orderColumns + `, k.name
		FROM orders o
		JOIN api_keys k ON k.id = o.user_id
		ORDER BY o.created_at DESC`

	listUserOrdersSQL = `SELECT ` + orderColumns + `, ''
		FROM orders o
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC`

	setOrderStatusSQL = `UPDATE orders o SET status = $2 WHERE id = $1
		RETURNING ` + orderColumns + `, ''`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. Order
// items are stored as a JSONB snapshot, frozen against later catalog edits.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}

	_, err = r.pool.Exec(ctx, createOrderSQL,
		o.ID, o.UserID, itemsJSON,
		o.ShippingAddress.Street, o.ShippingAddress.City, o.ShippingAddress.State,
		o.ShippingAddress.ZipCode, o.ShippingAddress.Country,
		string(o.PaymentMethod), o.Subtotal, o.Discount, o.CouponCode,
		o.Tax, o.ShippingCharges, o.TotalAmount, string(o.Status), o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// ListAll returns every order with the owner's key name, newest first.
func (r *OrderRepository) ListAll(ctx context.Context) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listAllOrdersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// ListForUser returns the given user's orders, newest first.
func (r *OrderRepository) ListForUser(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listUserOrdersSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing orders for user %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// SetStatus overwrites the order's status and returns the updated order.
func (r *OrderRepository) SetStatus(ctx context.Context, id string, status order.Status) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, setOrderStatusSQL, id, string(status))
	if err != nil {
		return nil, fmt.Errorf("setting status of order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("setting status of order %q: %w", id, err)
	}
	return &o, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o             order.Order
		itemsJSON     []byte
		paymentMethod string
		status        string
	)
	err := row.Scan(
		&o.ID, &o.UserID, &itemsJSON,
		&o.ShippingAddress.Street, &o.ShippingAddress.City, &o.ShippingAddress.State,
		&o.ShippingAddress.ZipCode, &o.ShippingAddress.Country,
		&paymentMethod, &o.Subtotal, &o.Discount, &o.CouponCode,
		&o.Tax, &o.ShippingCharges, &o.TotalAmount, &status, &o.CreatedAt,
		&o.UserName,
	)
	if err != nil {
		return o, err
	}
	o.PaymentMethod = order.PaymentMethod(paymentMethod)
	o.Status = order.Status(status)
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return o, fmt.Errorf("unmarshaling order items: %w", err)
	}
	return o, nil
}
