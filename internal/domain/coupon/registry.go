package coupon

import (
	"context"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/oakmart/storefront/internal/domain/pricing"
)

// Sizing for the code pre-filter. False positives just cost a DB lookup.
const (
	filterCapacity = 1 << 20
	filterFPR      = 0.01
)

// Result is the outcome of a successful validation: the discount amount and
// the canonical code as stored.
type Result struct {
	DiscountAmount decimal.Decimal
	Code           string
}

// Registry owns coupon CRUD and validation. Validation short-circuits
// definitely-unknown codes through a bloom filter before touching the
// repository; codes created through the registry are added to the filter,
// deleted codes fall through to a repository miss.
type Registry struct {
	repo Repository
	now  func() time.Time

	mu     sync.RWMutex
	filter *bloom.BloomFilter
}

// NewRegistry creates a Registry backed by the given Repository.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:   repo,
		now:    time.Now,
		filter: bloom.NewWithEstimates(filterCapacity, filterFPR),
	}
}

// WarmFilter loads all stored coupon codes into the pre-filter. Call once at
// startup; validation still works without it, at the cost of a repository
// round trip per unknown code.
func (r *Registry) WarmFilter(ctx context.Context) error {
	codes, err := r.repo.ListCodes(ctx)
	if err != nil {
		return errors.Wrap(err, "list coupon codes")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, code := range codes {
		r.filter.AddString(code)
	}
	return nil
}

func (r *Registry) filterMiss(code string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return !r.filter.TestString(code)
}

func (r *Registry) filterAdd(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filter.AddString(code)
}

// Validate checks a coupon code against a cart total and returns the
// discount amount. Checks run in a fixed order: existence, active flag,
// expiry (valid_until only), minimum purchase. Usage limits are stored but
// not enforced here, and the use counter is not incremented.
func (r *Registry) Validate(ctx context.Context, code string, cartTotal decimal.Decimal) (*Result, error) {
	if r.filterMiss(code) {
		return nil, ErrNotFound
	}

	c, err := r.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}

	if !c.IsActive {
		return nil, ErrInactive
	}
	if r.now().After(c.ValidUntil) {
		return nil, ErrExpired
	}
	if cartTotal.LessThan(c.MinPurchaseAmount) {
		return nil, ErrMinPurchase
	}

	amount := pricing.Discount(pricing.Rule{
		Type:        c.DiscountType,
		Value:       c.DiscountValue,
		MaxDiscount: c.MaxDiscountAmount,
	}, cartTotal)

	return &Result{DiscountAmount: amount, Code: c.Code}, nil
}

// Create stores a new coupon and registers its code in the pre-filter.
// Returns ErrDuplicateCode when the code is already taken.
func (r *Registry) Create(ctx context.Context, c *Coupon) error {
	if err := r.repo.Create(ctx, c); err != nil {
		return err
	}
	r.filterAdd(c.Code)
	return nil
}

// List returns all coupons.
func (r *Registry) List(ctx context.Context) ([]Coupon, error) {
	return r.repo.List(ctx)
}

// Update applies a partial update by id. When the code changes, the new code
// is registered in the pre-filter; the old one ages out as a false positive.
func (r *Registry) Update(ctx context.Context, id string, u Update) (*Coupon, error) {
	c, err := r.repo.Update(ctx, id, u)
	if err != nil {
		return nil, err
	}
	if u.Code != nil {
		r.filterAdd(c.Code)
	}
	return c, nil
}

// Delete removes a coupon by id. Returns ErrNotFound when absent. The code
// stays in the pre-filter; subsequent validations fall through to the
// repository and miss there.
func (r *Registry) Delete(ctx context.Context, id string) error {
	return r.repo.Delete(ctx, id)
}
