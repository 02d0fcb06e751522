// Package coupon holds the coupon model and the Registry, which owns coupon
// CRUD and code validation against a cart total.
package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/oakmart/storefront/internal/domain/pricing"
)

var (
	// ErrNotFound is returned when no coupon matches the given code or id.
	ErrNotFound = errors.New("coupon not found")
	// ErrInactive is returned when the coupon exists but is switched off.
	ErrInactive = errors.New("coupon inactive")
	// ErrExpired is returned when the coupon's validity window has passed.
	ErrExpired = errors.New("coupon expired")
	// ErrMinPurchase is returned when the cart total is below the coupon's
	// minimum purchase amount.
	ErrMinPurchase = errors.New("minimum purchase not met")
	// ErrDuplicateCode is returned on create when the code is already taken.
	ErrDuplicateCode = errors.New("coupon code already exists")
)

// Coupon is a discount rule identified by a unique code.
type Coupon struct {
	ID                string
	Code              string
	Description       string
	DiscountType      pricing.DiscountType
	DiscountValue     decimal.Decimal
	MinPurchaseAmount decimal.Decimal
	MaxDiscountAmount *decimal.Decimal
	ValidFrom         *time.Time
	ValidUntil        time.Time
	// UsageLimit and UsedCount are stored and round-tripped but not enforced
	// or incremented by Validate.
	UsageLimit int
	UsedCount  int
	IsActive   bool
	CreatedAt  time.Time
}

// Update carries a partial coupon update. Nil fields are left untouched.
type Update struct {
	Code              *string
	Description       *string
	DiscountType      *pricing.DiscountType
	DiscountValue     *decimal.Decimal
	MinPurchaseAmount *decimal.Decimal
	MaxDiscountAmount *decimal.Decimal
	ValidFrom         *time.Time
	ValidUntil        *time.Time
	UsageLimit        *int
	IsActive          *bool
}

// Repository defines persistence operations for coupons.
type Repository interface {
	Create(ctx context.Context, c *Coupon) error
	List(ctx context.Context) ([]Coupon, error)
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	Update(ctx context.Context, id string, u Update) (*Coupon, error)
	Delete(ctx context.Context, id string) error
	// ListCodes returns every stored coupon code, used to warm the
	// negative-lookup filter on startup.
	ListCodes(ctx context.Context) ([]string, error)
}
