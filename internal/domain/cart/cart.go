// Package cart implements the per-user shopping cart: a lazily created set of
// product line items, at most one line per product.
package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/oakmart/storefront/internal/domain/product"
)

var (
	// ErrNotFound is returned when a user has no cart yet.
	ErrNotFound = errors.New("cart not found")
	// ErrItemNotFound is returned when the product is not a current line item.
	ErrItemNotFound = errors.New("item not found")
	// ErrInvalidQuantity is returned when an add specifies a non-positive quantity.
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
)

// Line is a cart line item with the product details populated.
type Line struct {
	Product  product.Product
	Quantity int
}

// Cart is a user's staging area of intended purchases.
type Cart struct {
	UserID    string
	Items     []Line
	CreatedAt time.Time
}

// Repository defines cart persistence. Every mutation is a single atomic
// statement so that concurrent requests for the same user cannot lose
// updates to a read-modify-write race.
type Repository interface {
	// Ensure creates the user's cart row if it does not exist yet.
	Ensure(ctx context.Context, userID string) error
	// Exists reports whether the user has a cart.
	Exists(ctx context.Context, userID string) (bool, error)
	// Items returns the cart's line items with product details populated.
	Items(ctx context.Context, userID string) ([]Line, error)
	// AddQuantity inserts a line item or atomically increments the quantity
	// of an existing one. Returns product.ErrNotFound for unknown products.
	AddQuantity(ctx context.Context, userID, productID string, qty int) error
	// SetQuantity sets a line item's quantity exactly. It reports whether
	// the line existed.
	SetQuantity(ctx context.Context, userID, productID string, qty int) (bool, error)
	// DeleteItem removes a line item. It reports whether the line existed.
	DeleteItem(ctx context.Context, userID, productID string) (bool, error)
}
