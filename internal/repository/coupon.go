package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oakmart/storefront/internal/domain/coupon"
	"github.com/oakmart/storefront/internal/domain/pricing"
)

const (
	couponColumns = `id, code, description, discount_type, discount_value,
		min_purchase_amount, max_discount_amount, valid_from, valid_until,
		usage_limit, used_count, is_active, created_at`

	createCouponSQL = `INSERT INTO coupons
		(id, code, description, discount_type, discount_value, min_purchase_amount,
		 max_discount_amount, valid_from, valid_until, usage_limit, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	listCouponsSQL = `SELECT ` + couponColumns + ` FROM coupons ORDER BY created_at DESC`

	listCouponCodesSQL = `SELECT code FROM coupons`

	findCouponByCodeSQL = `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1`

	updateCouponSQL = `UPDATE coupons SET
		code = COALESCE($2, code),
		description = COALESCE($3, description),
		discount_type = COALESCE($4, discount_type),
		discount_value = COALESCE($5, discount_value),
		min_purchase_amount = COALESCE($6, min_purchase_amount),
		max_discount_amount = COALESCE($7, max_discount_amount),
		valid_from = COALESCE($8, valid_from),
		valid_until = COALESCE($9, valid_until),
		usage_limit = COALESCE($10, usage_limit),
		is_active = COALESCE($11, is_active)
		WHERE id = $1
		RETURNING ` + couponColumns

	deleteCouponSQL = `DELETE FROM coupons WHERE id = $1`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// Create inserts a new coupon. Returns coupon.ErrDuplicateCode when the code
// collides with an existing one.
func (r *CouponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	_, err := r.pool.Exec(ctx, createCouponSQL,
		c.ID, c.Code, c.Description, string(c.DiscountType), c.DiscountValue,
		c.MinPurchaseAmount, c.MaxDiscountAmount, c.ValidFrom, c.ValidUntil,
		c.UsageLimit, c.IsActive,
	)
	if err != nil {
		if pgErrCode(err) == pgUniqueViolation {
			return coupon.ErrDuplicateCode
		}
		return fmt.Errorf("creating coupon %q: %w", c.Code, err)
	}
	return nil
}

// List returns all coupons, newest first.
func (r *CouponRepository) List(ctx context.Context) ([]coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, listCouponsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing coupons: %w", err)
	}
	return pgx.CollectRows(rows, scanCoupon)
}

// ListCodes returns every stored coupon code.
func (r *CouponRepository) ListCodes(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, listCouponCodesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing coupon codes: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (string, error) {
		var code string
		err := row.Scan(&code)
		return code, err
	})
}

// FindByCode looks up a coupon by its exact code.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, findCouponByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding coupon %q: %w", code, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("finding coupon %q: %w", code, err)
	}
	return &c, nil
}

// Update applies a partial update by id and returns the updated coupon.
func (r *CouponRepository) Update(ctx context.Context, id string, u coupon.Update) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, updateCouponSQL,
		id, u.Code, u.Description, (*string)(u.DiscountType), u.DiscountValue,
		u.MinPurchaseAmount, u.MaxDiscountAmount, u.ValidFrom, u.ValidUntil,
		u.UsageLimit, u.IsActive,
	)
	if err != nil {
		return nil, fmt.Errorf("updating coupon %q: %w", id, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		if pgErrCode(err) == pgUniqueViolation {
			return nil, coupon.ErrDuplicateCode
		}
		return nil, fmt.Errorf("updating coupon %q: %w", id, err)
	}
	return &c, nil
}

// Delete removes a coupon by id. Returns coupon.ErrNotFound when absent.
func (r *CouponRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteCouponSQL, id)
	if err != nil {
		return fmt.Errorf("deleting coupon %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrNotFound
	}
	return nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var (
		c            coupon.Coupon
		discountType string
	)
	err := row.Scan(
		&c.ID, &c.Code, &c.Description, &discountType, &c.DiscountValue,
		&c.MinPurchaseAmount, &c.MaxDiscountAmount, &c.ValidFrom, &c.ValidUntil,
		&c.UsageLimit, &c.UsedCount, &c.IsActive, &c.CreatedAt,
	)
	c.DiscountType = pricing.DiscountType(discountType)
	return c, err
}
