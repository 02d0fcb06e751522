// Package httpapi exposes the storefront over a JSON REST API under /api,
// using chi for routing and a {success, data?, message?} response envelope.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oakmart/storefront/internal/domain/cart"
	"github.com/oakmart/storefront/internal/domain/coupon"
	"github.com/oakmart/storefront/internal/domain/order"
	"github.com/oakmart/storefront/internal/domain/product"
)

// Handler holds the domain dependencies for all HTTP endpoints.
type Handler struct {
	products product.Repository
	carts    *cart.Service
	coupons  *coupon.Registry
	orders   *order.Service
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	products product.Repository,
	carts *cart.Service,
	coupons *coupon.Registry,
	orders *order.Service,
) *Handler {
	return &Handler{
		products: products,
		carts:    carts,
		coupons:  coupons,
		orders:   orders,
	}
}

// Routes mounts all /api endpoints on a chi router. sec guards authenticated
// routes and enforces scopes.
func (h *Handler) Routes(sec *Security) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", h.health)

	r.Get("/products", h.listProducts)
	r.Get("/products/{id}", h.getProduct)

	r.Group(func(r chi.Router) {
		r.Use(sec.Authenticate, sec.RequireScope("admin"))

		r.Post("/products", h.createProduct)
		r.Put("/products/{id}", h.updateProduct)

		r.Post("/coupons", h.createCoupon)
		r.Get("/coupons", h.listCoupons)
		r.Put("/coupons/{id}", h.updateCoupon)
		r.Delete("/coupons/{id}", h.deleteCoupon)

		r.Get("/orders", h.listAllOrders)
		r.Put("/orders/{id}/status", h.updateOrderStatus)
	})

	r.Group(func(r chi.Router) {
		r.Use(sec.Authenticate, sec.RequireScope("user"))

		r.Get("/cart", h.getCart)
		r.Post("/cart", h.addToCart)
		r.Put("/cart", h.updateCartItem)
		r.Delete("/cart/{productId}", h.removeFromCart)

		r.Post("/coupons/validate", h.validateCoupon)

		r.Post("/orders", h.createOrder)
		r.Get("/orders/user", h.listUserOrders)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeData(w, http.StatusOK, map[string]string{"status": "ok"})
}
