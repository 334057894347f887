package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shop-chat/internal/domain"
	"shop-chat/internal/repository"
)

const (
	defaultProductLimit = 100
	maxProductLimit     = 1000
	minSearchQueryLen   = 2
)

// ProductHandler expone el catalogo en modo lectura.
type ProductHandler struct {
	logger   *zap.Logger
	products repository.ProductRepository
}

func NewProductHandler(logger *zap.Logger, products repository.ProductRepository) *ProductHandler {
	return &ProductHandler{logger: logger, products: products}
}

// ListProducts maneja GET /api/products?skip=&limit=.
func (h *ProductHandler) ListProducts(c *gin.Context) {
	skip, err := queryInt(c, "skip", 0)
	if err != nil || skip < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid skip"})
		return
	}
	limit, err := queryInt(c, "limit", defaultProductLimit)
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	if limit > maxProductLimit {
		limit = maxProductLimit
	}

	products, err := h.products.List(c.Request.Context(), skip, limit)
	if err != nil {
		h.logger.Error("list products failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list products"})
		return
	}
	c.JSON(http.StatusOK, nonNilProducts(products))
}

// SearchProducts maneja GET /api/products/search?q=.
func (h *ProductHandler) SearchProducts(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if len([]rune(q)) < minSearchQueryLen {
		c.JSON(http.StatusBadRequest, gin.H{"error": "search query must be at least 2 characters long"})
		return
	}

	products, err := h.products.Search(c.Request.Context(), q)
	if err != nil {
		h.logger.Error("search products failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not search products"})
		return
	}
	c.JSON(http.StatusOK, nonNilProducts(products))
}

// GetProduct maneja GET /api/products/:id.
func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.products.GetByID(c.Request.Context(), c.Param("id"))
	if repository.IsNotFound(err) {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	if err != nil {
		h.logger.Error("get product failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load product"})
		return
	}
	c.JSON(http.StatusOK, product)
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func nonNilProducts(products []domain.Product) []domain.Product {
	if products == nil {
		return []domain.Product{}
	}
	return products
}
