package order

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakmart/storefront/internal/domain/pricing"
)

type mockOrderRepo struct {
	created *Order
	orders  map[string]*Order
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[string]*Order)}
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	m.created = o
	m.orders[o.ID] = o
	return nil
}

func (m *mockOrderRepo) ListAll(_ context.Context) ([]Order, error) {
	out := make([]Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (m *mockOrderRepo) ListForUser(_ context.Context, userID string) ([]Order, error) {
	var out []Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) SetStatus(_ context.Context, id string, status Status) (*Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	o.Status = status
	return o, nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testEvaluator() *pricing.Evaluator {
	return pricing.NewEvaluator(dec("0.18"), decimal.Zero)
}

func validRequest() CreateRequest {
	return CreateRequest{
		Items: []Item{
			{ProductID: "p1", Name: "Mug", Image: "mug.jpg", Price: dec("500"), Quantity: 2},
		},
		ShippingAddress: ShippingAddress{
			Street: "1 Main St", City: "Pune", State: "MH", ZipCode: "411001", Country: "IN",
		},
		PaymentMethod:   PaymentCOD,
		Subtotal:        dec("1000"),
		Discount:        dec("150"),
		CouponCode:      "SAVE20",
		Tax:             dec("153"),
		ShippingCharges: decimal.Zero,
		TotalAmount:     dec("1003"),
	}
}

func TestService_CreatePersistsSubmittedTotalsVerbatim(t *testing.T) {
	repo := newMockOrderRepo()
	s := NewService(repo, testEvaluator())

	o, err := s.Create(context.Background(), "u1", validRequest())

	require.NoError(t, err)
	require.NotNil(t, repo.created)
	assert.NotEmpty(t, o.ID)
	assert.Equal(t, "u1", o.UserID)
	assert.Equal(t, StatusPending, o.Status)
	assert.True(t, dec("1000").Equal(o.Subtotal))
	assert.True(t, dec("150").Equal(o.Discount))
	assert.True(t, dec("153").Equal(o.Tax))
	assert.True(t, dec("1003").Equal(o.TotalAmount))
	assert.Equal(t, "SAVE20", o.CouponCode)
}

func TestService_CreateAcceptsMismatchedTotals(t *testing.T) {
	// Client-computed totals are trusted even when they disagree with the
	// server quote; the order is persisted exactly as submitted.
	repo := newMockOrderRepo()
	s := NewService(repo, testEvaluator())

	req := validRequest()
	req.TotalAmount = dec("1.00")

	o, err := s.Create(context.Background(), "u1", req)

	require.NoError(t, err)
	assert.True(t, dec("1.00").Equal(o.TotalAmount))
}

func TestService_CreateValidation(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*CreateRequest)
		wantField string
	}{
		{"no items", func(r *CreateRequest) { r.Items = nil }, "items"},
		{"zero quantity", func(r *CreateRequest) { r.Items[0].Quantity = 0 }, "items.quantity"},
		{"missing product id", func(r *CreateRequest) { r.Items[0].ProductID = "" }, "items.productId"},
		{"missing street", func(r *CreateRequest) { r.ShippingAddress.Street = "" }, "shippingAddress.street"},
		{"missing city", func(r *CreateRequest) { r.ShippingAddress.City = "" }, "shippingAddress.city"},
		{"missing zip", func(r *CreateRequest) { r.ShippingAddress.ZipCode = "" }, "shippingAddress.zipCode"},
		{"bad payment method", func(r *CreateRequest) { r.PaymentMethod = "Barter" }, "paymentMethod"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewService(newMockOrderRepo(), testEvaluator())
			req := validRequest()
			tt.mutate(&req)

			_, err := s.Create(context.Background(), "u1", req)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.wantField, vErr.Field)
		})
	}
}

func TestService_SetStatus(t *testing.T) {
	repo := newMockOrderRepo()
	s := NewService(repo, testEvaluator())

	o, err := s.Create(context.Background(), "u1", validRequest())
	require.NoError(t, err)

	t.Run("any state can replace any other", func(t *testing.T) {
		for _, status := range []Status{
			StatusDelivered, StatusPending, StatusCancelled, StatusShipped,
		} {
			got, err := s.SetStatus(context.Background(), o.ID, status)
			require.NoError(t, err)
			assert.Equal(t, status, got.Status)
		}
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		_, err := s.SetStatus(context.Background(), o.ID, Status("Teleported"))
		var isErr *InvalidStatusError
		require.ErrorAs(t, err, &isErr)
	})

	t.Run("absent order", func(t *testing.T) {
		_, err := s.SetStatus(context.Background(), "missing", StatusShipped)
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestService_ListForUser(t *testing.T) {
	repo := newMockOrderRepo()
	s := NewService(repo, testEvaluator())
	ctx := context.Background()

	_, err := s.Create(ctx, "u1", validRequest())
	require.NoError(t, err)
	_, err = s.Create(ctx, "u2", validRequest())
	require.NoError(t, err)

	mine, err := s.ListForUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "u1", mine[0].UserID)

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestService_CreateStampsCreationTime(t *testing.T) {
	repo := newMockOrderRepo()
	s := NewService(repo, testEvaluator())
	fixed := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	o, err := s.Create(context.Background(), "u1", validRequest())

	require.NoError(t, err)
	assert.Equal(t, fixed, o.CreatedAt)
}
