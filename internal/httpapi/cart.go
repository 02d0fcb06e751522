package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oakmart/storefront/internal/domain/cart"
)

type cartLineDTO struct {
	Product  productDTO `json:"product"`
	Quantity int        `json:"quantity"`
}

type cartDTO struct {
	UserID string        `json:"userId"`
	Items  []cartLineDTO `json:"items"`
}

func toCartDTO(c *cart.Cart) cartDTO {
	items := make([]cartLineDTO, len(c.Items))
	for i, line := range c.Items {
		items[i] = cartLineDTO{
			Product:  toProductDTO(line.Product),
			Quantity: line.Quantity,
		}
	}
	return cartDTO{UserID: c.UserID, Items: items}
}

type cartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())

	c, err := h.carts.Get(r.Context(), id.ID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toCartDTO(c))
}

func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "productId is required")
		return
	}

	id := IdentityFromContext(r.Context())
	c, err := h.carts.Add(r.Context(), id.ID, req.ProductID, req.Quantity)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toCartDTO(c))
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "productId is required")
		return
	}

	id := IdentityFromContext(r.Context())
	c, err := h.carts.Update(r.Context(), id.ID, req.ProductID, req.Quantity)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toCartDTO(c))
}

func (h *Handler) removeFromCart(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())

	c, err := h.carts.Remove(r.Context(), id.ID, chi.URLParam(r, "productId"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toCartDTO(c))
}
