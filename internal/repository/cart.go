package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oakmart/storefront/internal/domain/cart"
	"github.com/oakmart/storefront/internal/domain/product"
)

const (
	ensureCartSQL = `INSERT INTO carts (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`

	cartExistsSQL = `SELECT EXISTS (SELECT 1 FROM carts WHERE user_id = $1)`

	cartItemsSQL = `SELECT ` + productColumns + `, ci.quantity
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1
		ORDER BY ci.product_id`

	// Atomic merge-or-insert: concurrent adds for the same line both land,
	// unlike a read-modify-write of the whole cart.
	addCartQuantitySQL = `INSERT INTO cart_items (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`

	setCartQuantitySQL = `UPDATE cart_items SET quantity = $3
		WHERE user_id = $1 AND product_id = $2`

	deleteCartItemSQL = `DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL. All
// mutations are single statements; the composite primary key on
// (user_id, product_id) keeps line items unique per product.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// Ensure creates the user's cart row if absent.
func (r *CartRepository) Ensure(ctx context.Context, userID string) error {
	if _, err := r.pool.Exec(ctx, ensureCartSQL, userID); err != nil {
		return fmt.Errorf("ensuring cart for user %q: %w", userID, err)
	}
	return nil
}

// Exists reports whether the user has a cart.
func (r *CartRepository) Exists(ctx context.Context, userID string) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, cartExistsSQL, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking cart for user %q: %w", userID, err)
	}
	return exists, nil
}

// Items returns the cart's line items with product details populated.
func (r *CartRepository) Items(ctx context.Context, userID string) ([]cart.Line, error) {
	rows, err := r.pool.Query(ctx, cartItemsSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("loading cart items for user %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanCartLine)
}

// AddQuantity merges qty into an existing line or inserts a new one.
func (r *CartRepository) AddQuantity(ctx context.Context, userID, productID string, qty int) error {
	_, err := r.pool.Exec(ctx, addCartQuantitySQL, userID, productID, qty)
	if err != nil {
		if pgErrCode(err) == pgForeignKeyViolation {
			return product.ErrNotFound
		}
		return fmt.Errorf("adding %q to cart of user %q: %w", productID, userID, err)
	}
	return nil
}

// SetQuantity sets a line's quantity exactly, reporting whether it existed.
func (r *CartRepository) SetQuantity(ctx context.Context, userID, productID string, qty int) (bool, error) {
	tag, err := r.pool.Exec(ctx, setCartQuantitySQL, userID, productID, qty)
	if err != nil {
		return false, fmt.Errorf("setting quantity of %q for user %q: %w", productID, userID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteItem removes a line, reporting whether it existed.
func (r *CartRepository) DeleteItem(ctx context.Context, userID, productID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, deleteCartItemSQL, userID, productID)
	if err != nil {
		return false, fmt.Errorf("removing %q from cart of user %q: %w", productID, userID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanCartLine(row pgx.CollectableRow) (cart.Line, error) {
	var line cart.Line
	p := &line.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.OriginalPrice,
		&p.Category, &p.Brand, &p.Images, &p.Stock, &p.IsFeatured,
		&p.Rating, &p.NumReviews, &p.CreatedAt,
		&line.Quantity,
	)
	return line, err
}
