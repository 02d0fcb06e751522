package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase.
type Product struct {
	ID            string
	Name          string
	Description   string
	Price         decimal.Decimal
	OriginalPrice *decimal.Decimal
	Category      string
	Brand         string
	Images        []string
	Stock         int
	IsFeatured    bool
	Rating        decimal.Decimal
	NumReviews    int
	CreatedAt     time.Time
}

// Filter narrows catalog listings. Zero values match everything.
type Filter struct {
	Category string
	// Featured, when non-nil, matches only products with that featured flag.
	Featured *bool
}

// Update carries a partial product update. Nil fields are left untouched.
type Update struct {
	Name          *string
	Description   *string
	Price         *decimal.Decimal
	OriginalPrice *decimal.Decimal
	Category      *string
	Brand         *string
	Images        []string
	Stock         *int
	IsFeatured    *bool
}

// Repository defines persistence operations for the product catalog.
type Repository interface {
	List(ctx context.Context, f Filter) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, id string, u Update) (*Product, error)
}
