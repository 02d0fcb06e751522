package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/oakmart/storefront/internal/domain/order"
)

type orderItemDTO struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Image     string  `json:"image"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

type shippingAddressDTO struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

type orderUserDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type orderDTO struct {
	ID              string             `json:"id"`
	User            *orderUserDTO      `json:"user,omitempty"`
	Items           []orderItemDTO     `json:"items"`
	ShippingAddress shippingAddressDTO `json:"shippingAddress"`
	PaymentMethod   string             `json:"paymentMethod"`
	Subtotal        float64            `json:"subtotal"`
	Discount        float64            `json:"discount"`
	CouponCode      string             `json:"couponCode,omitempty"`
	Tax             float64            `json:"tax"`
	ShippingCharges float64            `json:"shippingCharges"`
	TotalAmount     float64            `json:"totalAmount"`
	OrderStatus     string             `json:"orderStatus"`
	CreatedAt       time.Time          `json:"createdAt"`
}

func toOrderDTO(o order.Order, withUser bool) orderDTO {
	items := make([]orderItemDTO, len(o.Items))
	for i, item := range o.Items {
		items[i] = orderItemDTO{
			ProductID: item.ProductID,
			Name:      item.Name,
			Image:     item.Image,
			Price:     item.Price.InexactFloat64(),
			Quantity:  item.Quantity,
		}
	}
	dto := orderDTO{
		ID:    o.ID,
		Items: items,
		ShippingAddress: shippingAddressDTO{
			Street:  o.ShippingAddress.Street,
			City:    o.ShippingAddress.City,
			State:   o.ShippingAddress.State,
			ZipCode: o.ShippingAddress.ZipCode,
			Country: o.ShippingAddress.Country,
		},
		PaymentMethod:   string(o.PaymentMethod),
		Subtotal:        o.Subtotal.InexactFloat64(),
		Discount:        o.Discount.InexactFloat64(),
		CouponCode:      o.CouponCode,
		Tax:             o.Tax.InexactFloat64(),
		ShippingCharges: o.ShippingCharges.InexactFloat64(),
		TotalAmount:     o.TotalAmount.InexactFloat64(),
		OrderStatus:     string(o.Status),
		CreatedAt:       o.CreatedAt,
	}
	if withUser {
		dto.User = &orderUserDTO{ID: o.UserID, Name: o.UserName}
	}
	return dto
}

type createOrderRequest struct {
	Items           []orderItemDTO     `json:"items"`
	ShippingAddress shippingAddressDTO `json:"shippingAddress"`
	PaymentMethod   string             `json:"paymentMethod"`
	Subtotal        float64            `json:"subtotal"`
	Discount        float64            `json:"discount"`
	CouponCode      string             `json:"couponCode"`
	Tax             float64            `json:"tax"`
	ShippingCharges float64            `json:"shippingCharges"`
	TotalAmount     float64            `json:"totalAmount"`
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	items := make([]order.Item, len(req.Items))
	for i, item := range req.Items {
		items[i] = order.Item{
			ProductID: item.ProductID,
			Name:      item.Name,
			Image:     item.Image,
			Price:     decimal.NewFromFloat(item.Price),
			Quantity:  item.Quantity,
		}
	}

	id := IdentityFromContext(r.Context())
	o, err := h.orders.Create(r.Context(), id.ID, order.CreateRequest{
		Items: items,
		ShippingAddress: order.ShippingAddress{
			Street:  req.ShippingAddress.Street,
			City:    req.ShippingAddress.City,
			State:   req.ShippingAddress.State,
			ZipCode: req.ShippingAddress.ZipCode,
			Country: req.ShippingAddress.Country,
		},
		PaymentMethod:   order.PaymentMethod(req.PaymentMethod),
		Subtotal:        decimal.NewFromFloat(req.Subtotal),
		Discount:        decimal.NewFromFloat(req.Discount),
		CouponCode:      req.CouponCode,
		Tax:             decimal.NewFromFloat(req.Tax),
		ShippingCharges: decimal.NewFromFloat(req.ShippingCharges),
		TotalAmount:     decimal.NewFromFloat(req.TotalAmount),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, toOrderDTO(*o, false))
}

func (h *Handler) listAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListAll(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	dtos := make([]orderDTO, len(orders))
	for i, o := range orders {
		dtos[i] = toOrderDTO(o, true)
	}
	writeData(w, http.StatusOK, dtos)
}

func (h *Handler) listUserOrders(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())

	orders, err := h.orders.ListForUser(r.Context(), id.ID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	dtos := make([]orderDTO, len(orders))
	for i, o := range orders {
		dtos[i] = toOrderDTO(o, false)
	}
	writeData(w, http.StatusOK, dtos)
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateOrderStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	o, err := h.orders.SetStatus(r.Context(), chi.URLParam(r, "id"), order.Status(req.Status))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toOrderDTO(*o, false))
}
