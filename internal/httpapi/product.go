package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oakmart/storefront/internal/domain/product"
)

type productDTO struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Price         float64   `json:"price"`
	OriginalPrice *float64  `json:"originalPrice,omitempty"`
	Category      string    `json:"category"`
	Brand         string    `json:"brand"`
	Images        []string  `json:"images"`
	Stock         int       `json:"stock"`
	IsFeatured    bool      `json:"isFeatured"`
	Rating        float64   `json:"rating"`
	NumReviews    int       `json:"numReviews"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toProductDTO(p product.Product) productDTO {
	dto := productDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.InexactFloat64(),
		Category:    p.Category,
		Brand:       p.Brand,
		Images:      p.Images,
		Stock:       p.Stock,
		IsFeatured:  p.IsFeatured,
		Rating:      p.Rating.InexactFloat64(),
		NumReviews:  p.NumReviews,
		CreatedAt:   p.CreatedAt,
	}
	if p.OriginalPrice != nil {
		v := p.OriginalPrice.InexactFloat64()
		dto.OriginalPrice = &v
	}
	return dto
}

type createProductRequest struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Price         float64  `json:"price"`
	OriginalPrice *float64 `json:"originalPrice"`
	Category      string   `json:"category"`
	Brand         string   `json:"brand"`
	Images        []string `json:"images"`
	Stock         int      `json:"stock"`
	IsFeatured    bool     `json:"isFeatured"`
}

type updateProductRequest struct {
	Name          *string  `json:"name"`
	Description   *string  `json:"description"`
	Price         *float64 `json:"price"`
	OriginalPrice *float64 `json:"originalPrice"`
	Category      *string  `json:"category"`
	Brand         *string  `json:"brand"`
	Images        []string `json:"images"`
	Stock         *int     `json:"stock"`
	IsFeatured    *bool    `json:"isFeatured"`
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	f := product.Filter{Category: r.URL.Query().Get("category")}
	if v := r.URL.Query().Get("featured"); v != "" {
		featured := v == "true"
		f.Featured = &featured
	}

	products, err := h.products.List(r.Context(), f)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	dtos := make([]productDTO, len(products))
	for i, p := range products {
		dtos[i] = toProductDTO(p)
	}
	writeData(w, http.StatusOK, dtos)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toProductDTO(*p))
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Product name is required")
		return
	}
	if req.Price <= 0 {
		writeError(w, http.StatusBadRequest, "Price must be greater than 0")
		return
	}
	if len(req.Images) == 0 {
		writeError(w, http.StatusBadRequest, "At least one image is required")
		return
	}
	if req.Stock < 0 {
		writeError(w, http.StatusBadRequest, "Stock must not be negative")
		return
	}

	p := &product.Product{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		Price:       decimal.NewFromFloat(req.Price),
		Category:    req.Category,
		Brand:       req.Brand,
		Images:      req.Images,
		Stock:       req.Stock,
		IsFeatured:  req.IsFeatured,
		Rating:      decimal.Zero,
	}
	if req.OriginalPrice != nil {
		op := decimal.NewFromFloat(*req.OriginalPrice)
		if op.LessThan(p.Price) {
			writeError(w, http.StatusBadRequest, "Original price must not be below price")
			return
		}
		p.OriginalPrice = &op
	}

	if err := h.products.Create(r.Context(), p); err != nil {
		writeDomainError(w, r, err)
		return
	}

	created, err := h.products.GetByID(r.Context(), p.ID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, toProductDTO(*created))
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req updateProductRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Price != nil && *req.Price <= 0 {
		writeError(w, http.StatusBadRequest, "Price must be greater than 0")
		return
	}

	u := product.Update{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Brand:       req.Brand,
		Images:      req.Images,
		Stock:       req.Stock,
		IsFeatured:  req.IsFeatured,
	}
	if req.Price != nil {
		d := decimal.NewFromFloat(*req.Price)
		u.Price = &d
	}
	if req.OriginalPrice != nil {
		d := decimal.NewFromFloat(*req.OriginalPrice)
		u.OriginalPrice = &d
	}

	p, err := h.products.Update(r.Context(), chi.URLParam(r, "id"), u)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toProductDTO(*p))
}
