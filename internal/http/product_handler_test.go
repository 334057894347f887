package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"shop-chat/internal/domain"
)

type mockProductRepo struct {
	products   []domain.Product
	err        error
	lastQuery  string
	lastSkip   int
	lastLimit  int
	countValue int64
}

func (m *mockProductRepo) Search(_ context.Context, text string) ([]domain.Product, error) {
	m.lastQuery = text
	return m.products, m.err
}

func (m *mockProductRepo) List(_ context.Context, skip, limit int) ([]domain.Product, error) {
	m.lastSkip, m.lastLimit = skip, limit
	return m.products, m.err
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (domain.Product, error) {
	for _, p := range m.products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, pgx.ErrNoRows
}

func (m *mockProductRepo) CreateBatch(_ context.Context, products []domain.Product) (int, error) {
	m.products = append(m.products, products...)
	return len(products), nil
}

func (m *mockProductRepo) Count(context.Context) (int64, error) {
	return m.countValue, m.err
}

func setupProductRouter(repo *mockProductRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewProductHandler(zap.NewNop(), repo)
	r := gin.New()
	r.GET("/api/products", handler.ListProducts)
	r.GET("/api/products/search", handler.SearchProducts)
	r.GET("/api/products/:id", handler.GetProduct)
	return r
}

func TestProductHandlerList(t *testing.T) {
	t.Run("paginacion por defecto", func(t *testing.T) {
		repo := &mockProductRepo{}
		rec := performRequest(setupProductRouter(repo), http.MethodGet, "/api/products", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if repo.lastSkip != 0 || repo.lastLimit != 100 {
			t.Fatalf("unexpected paging skip=%d limit=%d", repo.lastSkip, repo.lastLimit)
		}
		if rec.Body.String() != "[]" {
			t.Fatalf("expected empty json array, got %s", rec.Body.String())
		}
	})

	t.Run("paginacion explicita", func(t *testing.T) {
		repo := &mockProductRepo{}
		performRequest(setupProductRouter(repo), http.MethodGet, "/api/products?skip=10&limit=5", nil)
		if repo.lastSkip != 10 || repo.lastLimit != 5 {
			t.Fatalf("unexpected paging skip=%d limit=%d", repo.lastSkip, repo.lastLimit)
		}
	})

	t.Run("parametros invalidos", func(t *testing.T) {
		r := setupProductRouter(&mockProductRepo{})
		for _, path := range []string{"/api/products?skip=-1", "/api/products?limit=abc", "/api/products?limit=0"} {
			if rec := performRequest(r, http.MethodGet, path, nil); rec.Code != http.StatusBadRequest {
				t.Fatalf("%s: expected 400, got %d", path, rec.Code)
			}
		}
	})
}

func TestProductHandlerSearch(t *testing.T) {
	t.Run("consulta corta", func(t *testing.T) {
		rec := performRequest(setupProductRouter(&mockProductRepo{}), http.MethodGet, "/api/products/search?q=%20a%20", nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("consulta valida", func(t *testing.T) {
		repo := &mockProductRepo{products: []domain.Product{{ID: "p1", Name: "Laptop"}}}
		rec := performRequest(setupProductRouter(repo), http.MethodGet, "/api/products/search?q=lap", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if repo.lastQuery != "lap" {
			t.Fatalf("unexpected query %q", repo.lastQuery)
		}
		var out []domain.Product
		_ = json.Unmarshal(rec.Body.Bytes(), &out)
		if len(out) != 1 || out[0].Name != "Laptop" {
			t.Fatalf("unexpected products %+v", out)
		}
	})

	t.Run("error del catalogo", func(t *testing.T) {
		repo := &mockProductRepo{err: errors.New("db down")}
		rec := performRequest(setupProductRouter(repo), http.MethodGet, "/api/products/search?q=lap", nil)
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
	})
}

func TestProductHandlerGet(t *testing.T) {
	r := setupProductRouter(&mockProductRepo{products: []domain.Product{{ID: "p1", Name: "Laptop"}}})

	if rec := performRequest(r, http.MethodGet, "/api/products/p1", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := performRequest(r, http.MethodGet, "/api/products/nope", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
