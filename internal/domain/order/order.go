// Package order implements checkout order creation and fulfilment status
// management. An order is an immutable snapshot of a checkout; only its
// status changes afterwards.
package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when no order matches the given id.
var ErrNotFound = errors.New("order not found")

// Status is the fulfilment state of an order.
type Status string

// Order lifecycle states. Any state may be overwritten with any other;
// Delivered and Cancelled are not terminal.
const (
	StatusPending    Status = "Pending"
	StatusProcessing Status = "Processing"
	StatusShipped    Status = "Shipped"
	StatusDelivered  Status = "Delivered"
	StatusCancelled  Status = "Cancelled"
)

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Item is a frozen snapshot of a product at checkout time. It deliberately
// copies name, image and price so that later catalog edits do not rewrite
// order history.
type Item struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// ShippingAddress is the destination for an order.
type ShippingAddress struct {
	Street  string
	City    string
	State   string
	ZipCode string
	Country string
}

// PaymentMethod enumerates the accepted payment options.
type PaymentMethod string

const (
	PaymentCOD        PaymentMethod = "COD"
	PaymentCard       PaymentMethod = "Card"
	PaymentUPI        PaymentMethod = "UPI"
	PaymentNetBanking PaymentMethod = "NetBanking"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCOD, PaymentCard, PaymentUPI, PaymentNetBanking:
		return true
	}
	return false
}

// Order is a persisted checkout snapshot with fulfilment status.
type Order struct {
	ID              string
	UserID          string
	UserName        string
	Items           []Item
	ShippingAddress ShippingAddress
	PaymentMethod   PaymentMethod
	Subtotal        decimal.Decimal
	Discount        decimal.Decimal
	CouponCode      string
	Tax             decimal.Decimal
	ShippingCharges decimal.Decimal
	TotalAmount     decimal.Decimal
	Status          Status
	CreatedAt       time.Time
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	// ListAll returns every order, newest first, with the owner's key name
	// populated in UserName.
	ListAll(ctx context.Context) ([]Order, error)
	ListForUser(ctx context.Context, userID string) ([]Order, error)
	// SetStatus overwrites the status of an order. Returns ErrNotFound when
	// the order is absent, and the updated order otherwise.
	SetStatus(ctx context.Context, id string, status Status) (*Order, error)
}
