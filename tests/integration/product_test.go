//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestListProducts(t *testing.T) {
	resp := doGet(t, "/api/products")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	products := decodeData[[]productResponse](t, resp)
	if len(products) != 6 {
		t.Fatalf("expected 6 products, got %d", len(products))
	}
}

func TestListProducts_CategoryFilter(t *testing.T) {
	resp := doGet(t, "/api/products?category=Kitchen")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	products := decodeData[[]productResponse](t, resp)
	if len(products) == 0 {
		t.Fatal("expected at least one Kitchen product")
	}
	for _, p := range products {
		if p.Category != "Kitchen" {
			t.Errorf("product %s has category %q, want Kitchen", p.ID, p.Category)
		}
	}
}

func TestListProducts_FeaturedFilter(t *testing.T) {
	resp := doGet(t, "/api/products?featured=true")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	products := decodeData[[]productResponse](t, resp)
	if len(products) != 2 {
		t.Fatalf("expected 2 featured products, got %d", len(products))
	}
	for _, p := range products {
		if !p.IsFeatured {
			t.Errorf("product %s is not featured", p.ID)
		}
	}
}

func TestGetProduct(t *testing.T) {
	resp := doGet(t, "/api/products/prod-stoneware-mug")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	product := decodeData[productResponse](t, resp)
	if product.Name != "Stoneware Mug" {
		t.Errorf("name: got %q, want %q", product.Name, "Stoneware Mug")
	}
	if product.Price != 250 {
		t.Errorf("price: got %v, want 250", product.Price)
	}
	if len(product.Images) == 0 {
		t.Error("images is empty")
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	resp := doGet(t, "/api/products/no-such-product")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	env := decodeEnvelope(t, resp)
	if env.Success {
		t.Error("expected success=false")
	}
	if env.Message == "" {
		t.Error("expected an error message")
	}
}

func TestCreateProduct_RequiresAdmin(t *testing.T) {
	body := map[string]any{
		"name": "Walnut Board", "price": 780, "images": []string{"board.jpg"}, "stock": 5,
	}

	resp := doRequest(t, http.MethodPost, "/api/products", "", body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated: expected 401, got %d", resp.StatusCode)
	}

	resp = doRequest(t, http.MethodPost, "/api/products", userAPIKey, body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("user scope: expected 403, got %d", resp.StatusCode)
	}
}

func TestCreateAndUpdateProduct(t *testing.T) {
	resp := doRequest(t, http.MethodPost, "/api/products", adminAPIKey, map[string]any{
		"name":     "Walnut Serving Board",
		"price":    780,
		"category": "Kitchen",
		"brand":    "Keenedge",
		"images":   []string{"board.jpg"},
		"stock":    12,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	created := decodeData[productResponse](t, resp)
	if created.ID == "" {
		t.Fatal("created product has no ID")
	}

	resp2 := doRequest(t, http.MethodPut, "/api/products/"+created.ID, adminAPIKey, map[string]any{
		"price": 700,
		"stock": 10,
	})
	defer resp2.Body.Close()

	if resp2.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp2.StatusCode)
	}
	updated := decodeData[productResponse](t, resp2)
	if updated.Price != 700 {
		t.Errorf("price: got %v, want 700", updated.Price)
	}
	if updated.Stock != 10 {
		t.Errorf("stock: got %v, want 10", updated.Stock)
	}
	if updated.Name != "Walnut Serving Board" {
		t.Errorf("partial update must keep name, got %q", updated.Name)
	}
}
