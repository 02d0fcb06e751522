package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oakmart/storefront/internal/domain/coupon"
	"github.com/oakmart/storefront/internal/domain/pricing"
)

type couponDTO struct {
	ID                string     `json:"id"`
	Code              string     `json:"code"`
	Description       string     `json:"description"`
	DiscountType      string     `json:"discountType"`
	DiscountValue     float64    `json:"discountValue"`
	MinPurchaseAmount float64    `json:"minPurchaseAmount"`
	MaxDiscountAmount *float64   `json:"maxDiscountAmount,omitempty"`
	ValidFrom         *time.Time `json:"validFrom,omitempty"`
	ValidUntil        time.Time  `json:"validUntil"`
	UsageLimit        int        `json:"usageLimit"`
	UsedCount         int        `json:"usedCount"`
	IsActive          bool       `json:"isActive"`
	CreatedAt         time.Time  `json:"createdAt"`
}

func toCouponDTO(c coupon.Coupon) couponDTO {
	dto := couponDTO{
		ID:                c.ID,
		Code:              c.Code,
		Description:       c.Description,
		DiscountType:      string(c.DiscountType),
		DiscountValue:     c.DiscountValue.InexactFloat64(),
		MinPurchaseAmount: c.MinPurchaseAmount.InexactFloat64(),
		ValidFrom:         c.ValidFrom,
		ValidUntil:        c.ValidUntil,
		UsageLimit:        c.UsageLimit,
		UsedCount:         c.UsedCount,
		IsActive:          c.IsActive,
		CreatedAt:         c.CreatedAt,
	}
	if c.MaxDiscountAmount != nil {
		v := c.MaxDiscountAmount.InexactFloat64()
		dto.MaxDiscountAmount = &v
	}
	return dto
}

type createCouponRequest struct {
	Code              string     `json:"code"`
	Description       string     `json:"description"`
	DiscountType      string     `json:"discountType"`
	DiscountValue     float64    `json:"discountValue"`
	MinPurchaseAmount float64    `json:"minPurchaseAmount"`
	MaxDiscountAmount *float64   `json:"maxDiscountAmount"`
	ValidFrom         *time.Time `json:"validFrom"`
	ValidUntil        time.Time  `json:"validUntil"`
	UsageLimit        int        `json:"usageLimit"`
	IsActive          *bool      `json:"isActive"`
}

type updateCouponRequest struct {
	Code              *string    `json:"code"`
	Description       *string    `json:"description"`
	DiscountType      *string    `json:"discountType"`
	DiscountValue     *float64   `json:"discountValue"`
	MinPurchaseAmount *float64   `json:"minPurchaseAmount"`
	MaxDiscountAmount *float64   `json:"maxDiscountAmount"`
	ValidFrom         *time.Time `json:"validFrom"`
	ValidUntil        *time.Time `json:"validUntil"`
	UsageLimit        *int       `json:"usageLimit"`
	IsActive          *bool      `json:"isActive"`
}

type validateCouponRequest struct {
	Code      string  `json:"code"`
	CartTotal float64 `json:"cartTotal"`
}

type validateCouponResponse struct {
	DiscountAmount float64 `json:"discountAmount"`
	Code           string  `json:"code"`
}

func validDiscountType(t string) bool {
	switch pricing.DiscountType(t) {
	case pricing.DiscountPercentage, pricing.DiscountFixed:
		return true
	}
	return false
}

func (h *Handler) createCoupon(w http.ResponseWriter, r *http.Request) {
	var req createCouponRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "Coupon code is required")
		return
	}
	if !validDiscountType(req.DiscountType) {
		writeError(w, http.StatusBadRequest, "Discount type must be percentage or fixed")
		return
	}
	if req.DiscountValue <= 0 {
		writeError(w, http.StatusBadRequest, "Discount value must be greater than 0")
		return
	}
	if req.ValidUntil.IsZero() {
		writeError(w, http.StatusBadRequest, "validUntil is required")
		return
	}

	c := &coupon.Coupon{
		ID:                uuid.New().String(),
		Code:              req.Code,
		Description:       req.Description,
		DiscountType:      pricing.DiscountType(req.DiscountType),
		DiscountValue:     decimal.NewFromFloat(req.DiscountValue),
		MinPurchaseAmount: decimal.NewFromFloat(req.MinPurchaseAmount),
		ValidFrom:         req.ValidFrom,
		ValidUntil:        req.ValidUntil,
		UsageLimit:        req.UsageLimit,
		IsActive:          true,
	}
	if req.MaxDiscountAmount != nil {
		d := decimal.NewFromFloat(*req.MaxDiscountAmount)
		c.MaxDiscountAmount = &d
	}
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}

	if err := h.coupons.Create(r.Context(), c); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, toCouponDTO(*c))
}

func (h *Handler) listCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.coupons.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	dtos := make([]couponDTO, len(coupons))
	for i, c := range coupons {
		dtos[i] = toCouponDTO(c)
	}
	writeData(w, http.StatusOK, dtos)
}

func (h *Handler) updateCoupon(w http.ResponseWriter, r *http.Request) {
	var req updateCouponRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.DiscountType != nil && !validDiscountType(*req.DiscountType) {
		writeError(w, http.StatusBadRequest, "Discount type must be percentage or fixed")
		return
	}

	u := coupon.Update{
		Code:        req.Code,
		Description: req.Description,
		ValidFrom:   req.ValidFrom,
		ValidUntil:  req.ValidUntil,
		UsageLimit:  req.UsageLimit,
		IsActive:    req.IsActive,
	}
	if req.DiscountType != nil {
		t := pricing.DiscountType(*req.DiscountType)
		u.DiscountType = &t
	}
	if req.DiscountValue != nil {
		d := decimal.NewFromFloat(*req.DiscountValue)
		u.DiscountValue = &d
	}
	if req.MinPurchaseAmount != nil {
		d := decimal.NewFromFloat(*req.MinPurchaseAmount)
		u.MinPurchaseAmount = &d
	}
	if req.MaxDiscountAmount != nil {
		d := decimal.NewFromFloat(*req.MaxDiscountAmount)
		u.MaxDiscountAmount = &d
	}

	c, err := h.coupons.Update(r.Context(), chi.URLParam(r, "id"), u)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toCouponDTO(*c))
}

func (h *Handler) deleteCoupon(w http.ResponseWriter, r *http.Request) {
	if err := h.coupons.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Coupon deleted")
}

func (h *Handler) validateCoupon(w http.ResponseWriter, r *http.Request) {
	var req validateCouponRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "Coupon code is required")
		return
	}

	res, err := h.coupons.Validate(r.Context(), req.Code, decimal.NewFromFloat(req.CartTotal))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, validateCouponResponse{
		DiscountAmount: res.DiscountAmount.InexactFloat64(),
		Code:           res.Code,
	})
}
