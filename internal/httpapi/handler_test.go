package httpapi

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakmart/storefront/internal/domain/auth"
	"github.com/oakmart/storefront/internal/domain/cart"
	"github.com/oakmart/storefront/internal/domain/coupon"
	"github.com/oakmart/storefront/internal/domain/order"
	"github.com/oakmart/storefront/internal/domain/pricing"
	"github.com/oakmart/storefront/internal/domain/product"
)

const (
	testPepper   = "test-pepper"
	userAPIKey   = "user-key"
	adminAPIKey  = "admin-key"
	testUserID   = "key-user"
	testAdminID  = "key-admin"
	mugProductID = "p-mug"
)

// --- in-memory fakes ---------------------------------------------------------

type fakeKeyRepo struct {
	byHash map[string]*auth.Identity
}

func (f *fakeKeyRepo) FindByHash(_ context.Context, hash string) (*auth.Identity, error) {
	if id, ok := f.byHash[hash]; ok {
		return id, nil
	}
	return nil, errors.New("api key not found")
}

type fakeProductRepo struct {
	products map[string]*product.Product
}

func (f *fakeProductRepo) List(_ context.Context, flt product.Filter) ([]product.Product, error) {
	var out []product.Product
	for _, p := range f.products {
		if flt.Category != "" && p.Category != flt.Category {
			continue
		}
		if flt.Featured != nil && p.IsFeatured != *flt.Featured {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

func (f *fakeProductRepo) Create(_ context.Context, p *product.Product) error {
	f.products[p.ID] = p
	return nil
}

func (f *fakeProductRepo) Update(_ context.Context, id string, u product.Update) (*product.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Stock != nil {
		p.Stock = *u.Stock
	}
	return p, nil
}

type fakeCartRepo struct {
	products *fakeProductRepo
	carts    map[string]map[string]int
}

func (f *fakeCartRepo) Ensure(_ context.Context, userID string) error {
	if _, ok := f.carts[userID]; !ok {
		f.carts[userID] = make(map[string]int)
	}
	return nil
}

func (f *fakeCartRepo) Exists(_ context.Context, userID string) (bool, error) {
	_, ok := f.carts[userID]
	return ok, nil
}

func (f *fakeCartRepo) Items(_ context.Context, userID string) ([]cart.Line, error) {
	var lines []cart.Line
	for pid, qty := range f.carts[userID] {
		lines = append(lines, cart.Line{Product: *f.products.products[pid], Quantity: qty})
	}
	return lines, nil
}

func (f *fakeCartRepo) AddQuantity(_ context.Context, userID, productID string, qty int) error {
	if _, ok := f.products.products[productID]; !ok {
		return product.ErrNotFound
	}
	f.carts[userID][productID] += qty
	return nil
}

func (f *fakeCartRepo) SetQuantity(_ context.Context, userID, productID string, qty int) (bool, error) {
	if _, ok := f.carts[userID][productID]; !ok {
		return false, nil
	}
	f.carts[userID][productID] = qty
	return true, nil
}

func (f *fakeCartRepo) DeleteItem(_ context.Context, userID, productID string) (bool, error) {
	if _, ok := f.carts[userID][productID]; !ok {
		return false, nil
	}
	delete(f.carts[userID], productID)
	return true, nil
}

type fakeCouponRepo struct {
	byCode map[string]*coupon.Coupon
}

func (f *fakeCouponRepo) Create(_ context.Context, c *coupon.Coupon) error {
	if _, ok := f.byCode[c.Code]; ok {
		return coupon.ErrDuplicateCode
	}
	f.byCode[c.Code] = c
	return nil
}

func (f *fakeCouponRepo) List(_ context.Context) ([]coupon.Coupon, error) {
	var out []coupon.Coupon
	for _, c := range f.byCode {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeCouponRepo) FindByCode(_ context.Context, code string) (*coupon.Coupon, error) {
	c, ok := f.byCode[code]
	if !ok {
		return nil, coupon.ErrNotFound
	}
	return c, nil
}

func (f *fakeCouponRepo) Update(_ context.Context, id string, u coupon.Update) (*coupon.Coupon, error) {
	for _, c := range f.byCode {
		if c.ID == id {
			if u.IsActive != nil {
				c.IsActive = *u.IsActive
			}
			return c, nil
		}
	}
	return nil, coupon.ErrNotFound
}

func (f *fakeCouponRepo) Delete(_ context.Context, id string) error {
	for code, c := range f.byCode {
		if c.ID == id {
			delete(f.byCode, code)
			return nil
		}
	}
	return coupon.ErrNotFound
}

func (f *fakeCouponRepo) ListCodes(_ context.Context) ([]string, error) {
	codes := make([]string, 0, len(f.byCode))
	for code := range f.byCode {
		codes = append(codes, code)
	}
	return codes, nil
}

type fakeOrderRepo struct {
	orders map[string]*order.Order
}

func (f *fakeOrderRepo) Create(_ context.Context, o *order.Order) error {
	f.orders[o.ID] = o
	return nil
}

func (f *fakeOrderRepo) ListAll(_ context.Context) ([]order.Order, error) {
	var out []order.Order
	for _, o := range f.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (f *fakeOrderRepo) ListForUser(_ context.Context, userID string) ([]order.Order, error) {
	var out []order.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) SetStatus(_ context.Context, id string, status order.Status) (*order.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	o.Status = status
	return o, nil
}

// --- fixture -----------------------------------------------------------------

func keyHash(key string) string {
	mac := hmac.New(sha256.New, []byte(testPepper))
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}

func newTestServer(t *testing.T) (http.Handler, *fakeOrderRepo) {
	t.Helper()

	products := &fakeProductRepo{products: map[string]*product.Product{
		mugProductID: {
			ID:     mugProductID,
			Name:   "Stoneware Mug",
			Price:  decimal.NewFromInt(250),
			Images: []string{"mug.jpg"},
			Stock:  10,
		},
	}}
	couponRepo := &fakeCouponRepo{byCode: map[string]*coupon.Coupon{
		"SAVE20": {
			ID:                "c-save20",
			Code:              "SAVE20",
			DiscountType:      pricing.DiscountPercentage,
			DiscountValue:     decimal.NewFromInt(20),
			MinPurchaseAmount: decimal.NewFromInt(500),
			MaxDiscountAmount: func() *decimal.Decimal { d := decimal.NewFromInt(150); return &d }(),
			ValidUntil:        time.Now().Add(24 * time.Hour),
			IsActive:          true,
		},
	}}
	orderRepo := &fakeOrderRepo{orders: make(map[string]*order.Order)}

	registry := coupon.NewRegistry(couponRepo)
	require.NoError(t, registry.WarmFilter(context.Background()))

	evaluator := pricing.NewEvaluator(decimal.RequireFromString("0.18"), decimal.Zero)
	h := NewHandler(
		products,
		cart.NewService(&fakeCartRepo{products: products, carts: make(map[string]map[string]int)}),
		registry,
		order.NewService(orderRepo, evaluator),
	)

	sec := NewSecurity(&fakeKeyRepo{byHash: map[string]*auth.Identity{
		keyHash(userAPIKey):  {ID: testUserID, Name: "Asha", Scopes: []string{"user"}},
		keyHash(adminAPIKey): {ID: testAdminID, Name: "Ops", Scopes: []string{"user", "admin"}},
	}}, []byte(testPepper))

	return h.Routes(sec), orderRepo
}

func doRequest(t *testing.T, h http.Handler, method, path, apiKey string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) (bool, json.RawMessage, string) {
	t.Helper()

	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Message string          `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env.Success, env.Data, env.Message
}

// --- tests -------------------------------------------------------------------

func TestHealth(t *testing.T) {
	h, _ := newTestServer(t)

	w := doRequest(t, h, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	ok, _, _ := decodeEnvelope(t, w)
	assert.True(t, ok)
}

func TestAuth(t *testing.T) {
	h, _ := newTestServer(t)

	t.Run("missing token", func(t *testing.T) {
		w := doRequest(t, h, http.MethodGet, "/cart", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("bogus token", func(t *testing.T) {
		w := doRequest(t, h, http.MethodGet, "/cart", "nonsense", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("user scope cannot reach admin routes", func(t *testing.T) {
		w := doRequest(t, h, http.MethodGet, "/orders", userAPIKey, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("admin scope can", func(t *testing.T) {
		w := doRequest(t, h, http.MethodGet, "/orders", adminAPIKey, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("catalog is public", func(t *testing.T) {
		w := doRequest(t, h, http.MethodGet, "/products", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestCartFlow(t *testing.T) {
	h, _ := newTestServer(t)

	w := doRequest(t, h, http.MethodGet, "/cart", userAPIKey, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, h, http.MethodPost, "/cart", userAPIKey,
		map[string]any{"productId": mugProductID, "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, h, http.MethodPost, "/cart", userAPIKey,
		map[string]any{"productId": mugProductID, "quantity": 3})
	require.Equal(t, http.StatusOK, w.Code)

	_, data, _ := decodeEnvelope(t, w)
	var c cartDTO
	require.NoError(t, json.Unmarshal(data, &c))
	require.Len(t, c.Items, 1, "repeated adds must merge into one line")
	assert.Equal(t, 5, c.Items[0].Quantity)

	// Update replaces the quantity.
	w = doRequest(t, h, http.MethodPut, "/cart", userAPIKey,
		map[string]any{"productId": mugProductID, "quantity": 1})
	require.Equal(t, http.StatusOK, w.Code)
	_, data, _ = decodeEnvelope(t, w)
	require.NoError(t, json.Unmarshal(data, &c))
	assert.Equal(t, 1, c.Items[0].Quantity)

	// Zero quantity removes the line.
	w = doRequest(t, h, http.MethodPut, "/cart", userAPIKey,
		map[string]any{"productId": mugProductID, "quantity": 0})
	require.Equal(t, http.StatusOK, w.Code)
	_, data, _ = decodeEnvelope(t, w)
	require.NoError(t, json.Unmarshal(data, &c))
	assert.Empty(t, c.Items)

	// Updating a product that is no longer in the cart is a 404.
	w = doRequest(t, h, http.MethodPut, "/cart", userAPIKey,
		map[string]any{"productId": mugProductID, "quantity": 2})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// DELETE is unconditional.
	w = doRequest(t, h, http.MethodDelete, "/cart/"+mugProductID, userAPIKey, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCartAddUnknownProduct(t *testing.T) {
	h, _ := newTestServer(t)

	w := doRequest(t, h, http.MethodPost, "/cart", userAPIKey,
		map[string]any{"productId": "ghost", "quantity": 1})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestValidateCoupon(t *testing.T) {
	h, _ := newTestServer(t)

	t.Run("percentage capped", func(t *testing.T) {
		w := doRequest(t, h, http.MethodPost, "/coupons/validate", userAPIKey,
			map[string]any{"code": "SAVE20", "cartTotal": 1000})

		require.Equal(t, http.StatusOK, w.Code)
		_, data, _ := decodeEnvelope(t, w)
		var res validateCouponResponse
		require.NoError(t, json.Unmarshal(data, &res))
		assert.InDelta(t, 150, res.DiscountAmount, 1e-9)
		assert.Equal(t, "SAVE20", res.Code)
	})

	t.Run("below minimum purchase", func(t *testing.T) {
		w := doRequest(t, h, http.MethodPost, "/coupons/validate", userAPIKey,
			map[string]any{"code": "SAVE20", "cartTotal": 400})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		ok, _, msg := decodeEnvelope(t, w)
		assert.False(t, ok)
		assert.Equal(t, "Minimum purchase not met", msg)
	})

	t.Run("unknown code", func(t *testing.T) {
		w := doRequest(t, h, http.MethodPost, "/coupons/validate", userAPIKey,
			map[string]any{"code": "NOPE", "cartTotal": 1000})

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCouponAdminCRUD(t *testing.T) {
	h, _ := newTestServer(t)

	body := map[string]any{
		"code":          "FLAT50",
		"discountType":  "fixed",
		"discountValue": 50,
		"validUntil":    time.Now().Add(48 * time.Hour).Format(time.RFC3339),
	}

	w := doRequest(t, h, http.MethodPost, "/coupons", adminAPIKey, body)
	require.Equal(t, http.StatusCreated, w.Code)
	_, data, _ := decodeEnvelope(t, w)
	var created couponDTO
	require.NoError(t, json.Unmarshal(data, &created))
	assert.True(t, created.IsActive, "coupons default to active")

	// Duplicate code is a business-rule 400.
	w = doRequest(t, h, http.MethodPost, "/coupons", adminAPIKey, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// A freshly created coupon validates immediately.
	w = doRequest(t, h, http.MethodPost, "/coupons/validate", userAPIKey,
		map[string]any{"code": "FLAT50", "cartTotal": 100})
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, h, http.MethodDelete, "/coupons/"+created.ID, adminAPIKey, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, h, http.MethodDelete, "/coupons/"+created.ID, adminAPIKey, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateOrderPersistsSubmittedTotals(t *testing.T) {
	h, orders := newTestServer(t)

	w := doRequest(t, h, http.MethodPost, "/orders", userAPIKey, map[string]any{
		"items": []map[string]any{
			{"productId": mugProductID, "name": "Stoneware Mug", "image": "mug.jpg", "price": 250, "quantity": 4},
		},
		"shippingAddress": map[string]string{
			"street": "1 Main St", "city": "Pune", "state": "MH", "zipCode": "411001", "country": "IN",
		},
		"paymentMethod": "UPI",
		"subtotal":      1000,
		"discount":      150,
		"couponCode":    "SAVE20",
		"tax":           153,
		"totalAmount":   1003,
	})

	require.Equal(t, http.StatusCreated, w.Code)
	_, data, _ := decodeEnvelope(t, w)
	var o orderDTO
	require.NoError(t, json.Unmarshal(data, &o))
	assert.Equal(t, "Pending", o.OrderStatus)
	assert.InDelta(t, 1000, o.Subtotal, 1e-9)
	assert.InDelta(t, 153, o.Tax, 1e-9)
	assert.InDelta(t, 1003, o.TotalAmount, 1e-9)

	stored := orders.orders[o.ID]
	require.NotNil(t, stored)
	assert.Equal(t, testUserID, stored.UserID)
	assert.True(t, decimal.NewFromInt(1003).Equal(stored.TotalAmount))
}

func TestCreateOrderValidation(t *testing.T) {
	h, _ := newTestServer(t)

	w := doRequest(t, h, http.MethodPost, "/orders", userAPIKey, map[string]any{
		"items":         []map[string]any{},
		"paymentMethod": "UPI",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateOrderStatus(t *testing.T) {
	h, orders := newTestServer(t)
	orders.orders["o1"] = &order.Order{ID: "o1", UserID: testUserID, Status: order.StatusPending}

	w := doRequest(t, h, http.MethodPut, "/orders/o1/status", adminAPIKey,
		map[string]string{"status": "Shipped"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, order.StatusShipped, orders.orders["o1"].Status)

	w = doRequest(t, h, http.MethodPut, "/orders/o1/status", adminAPIKey,
		map[string]string{"status": "Lost"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, h, http.MethodPut, "/orders/missing/status", adminAPIKey,
		map[string]string{"status": "Shipped"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProductAdminCreate(t *testing.T) {
	h, _ := newTestServer(t)

	t.Run("requires image", func(t *testing.T) {
		w := doRequest(t, h, http.MethodPost, "/products", adminAPIKey, map[string]any{
			"name": "Plate", "price": 120,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("creates and reads back", func(t *testing.T) {
		w := doRequest(t, h, http.MethodPost, "/products", adminAPIKey, map[string]any{
			"name": "Plate", "price": 120, "images": []string{"plate.jpg"}, "stock": 3,
		})
		require.Equal(t, http.StatusCreated, w.Code)

		_, data, _ := decodeEnvelope(t, w)
		var p productDTO
		require.NoError(t, json.Unmarshal(data, &p))

		w = doRequest(t, h, http.MethodGet, "/products/"+p.ID, "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
