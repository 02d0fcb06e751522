package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/oakmart/storefront/internal/domain/pricing"
)

// ValidationError describes a rejected order creation request.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing or invalid field: %s", e.Field)
}

// InvalidStatusError indicates an unknown fulfilment status value.
type InvalidStatusError struct {
	Status Status
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("invalid order status %q", e.Status)
}

// CreateRequest holds the input for placing an order. The totals are the
// client's own computation and are persisted as submitted.
type CreateRequest struct {
	Items           []Item
	ShippingAddress ShippingAddress
	PaymentMethod   PaymentMethod
	Subtotal        decimal.Decimal
	Discount        decimal.Decimal
	CouponCode      string
	Tax             decimal.Decimal
	ShippingCharges decimal.Decimal
	TotalAmount     decimal.Decimal
}

// Service encapsulates order creation and status management.
type Service struct {
	orders  Repository
	pricing *pricing.Evaluator
	now     func() time.Time
}

// NewService creates an order Service.
func NewService(orders Repository, evaluator *pricing.Evaluator) *Service {
	return &Service{orders: orders, pricing: evaluator, now: time.Now}
}

// Create validates the request shape and persists the order with the
// client-submitted totals verbatim. The server's own quote is computed only
// to log a warning when the submitted total deviates; mismatched orders are
// still accepted.
func (s *Service) Create(ctx context.Context, userID string, req CreateRequest) (*Order, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	// Totals are persisted as submitted; the server quote is computed only
	// to surface deviating clients in the logs.
	taxable := req.Subtotal.Sub(req.Discount)
	expected := taxable.Add(s.pricing.Tax(taxable)).Add(req.ShippingCharges).Round(2)
	if !expected.Equal(req.TotalAmount) {
		zctx.From(ctx).Warn("submitted order total deviates from server quote",
			zap.String("user_id", userID),
			zap.String("submitted_total", req.TotalAmount.String()),
			zap.String("quoted_total", expected.String()),
		)
	}

	o := &Order{
		ID:              uuid.New().String(),
		UserID:          userID,
		Items:           req.Items,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		Subtotal:        req.Subtotal,
		Discount:        req.Discount,
		CouponCode:      req.CouponCode,
		Tax:             req.Tax,
		ShippingCharges: req.ShippingCharges,
		TotalAmount:     req.TotalAmount,
		Status:          StatusPending,
		CreatedAt:       s.now(),
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	return o, nil
}

// ListAll returns every order with owner info, for admin views.
func (s *Service) ListAll(ctx context.Context) ([]Order, error) {
	return s.orders.ListAll(ctx)
}

// ListForUser returns the given user's orders.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]Order, error) {
	return s.orders.ListForUser(ctx, userID)
}

// SetStatus overwrites an order's fulfilment status. Any known status may
// replace any other; there is no transition graph.
func (s *Service) SetStatus(ctx context.Context, id string, status Status) (*Order, error) {
	if !status.Valid() {
		return nil, &InvalidStatusError{Status: status}
	}
	return s.orders.SetStatus(ctx, id, status)
}

func validate(req CreateRequest) error {
	if len(req.Items) == 0 {
		return &ValidationError{Field: "items"}
	}
	for _, item := range req.Items {
		if item.ProductID == "" {
			return &ValidationError{Field: "items.productId"}
		}
		if item.Quantity <= 0 {
			return &ValidationError{Field: "items.quantity"}
		}
	}
	addr := req.ShippingAddress
	switch "" {
	case addr.Street:
		return &ValidationError{Field: "shippingAddress.street"}
	case addr.City:
		return &ValidationError{Field: "shippingAddress.city"}
	case addr.State:
		return &ValidationError{Field: "shippingAddress.state"}
	case addr.ZipCode:
		return &ValidationError{Field: "shippingAddress.zipCode"}
	case addr.Country:
		return &ValidationError{Field: "shippingAddress.country"}
	}
	if !req.PaymentMethod.Valid() {
		return &ValidationError{Field: "paymentMethod"}
	}
	return nil
}
