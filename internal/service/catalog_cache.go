package service

import (
	"context"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"shop-chat/internal/domain"
	"shop-chat/internal/metrics"
)

// CatalogSearcher es la vista de solo lectura del catalogo que consume el chat.
type CatalogSearcher interface {
	Search(ctx context.Context, text string) ([]domain.Product, error)
}

type cachedSearch struct {
	products  []domain.Product
	expiresAt time.Time
}

// CachedCatalog evita repetir el ILIKE para la misma consulta dentro de una ventana corta.
// Los errores del catalogo no se cachean.
type CachedCatalog struct {
	next  CatalogSearcher
	cache *lru.Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewCachedCatalog envuelve next con una cache LRU. size <= 0 o ttl <= 0 desactiva la cache.
func NewCachedCatalog(next CatalogSearcher, size int, ttl time.Duration) (CatalogSearcher, error) {
	if size <= 0 || ttl <= 0 {
		return next, nil
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &CachedCatalog{
		next:  next,
		cache: cache,
		ttl:   ttl,
		now:   time.Now,
	}, nil
}

func (c *CachedCatalog) Search(ctx context.Context, text string) ([]domain.Product, error) {
	key := strings.ToLower(strings.TrimSpace(text))
	if v, ok := c.cache.Get(key); ok {
		entry := v.(cachedSearch)
		if c.now().Before(entry.expiresAt) {
			metrics.CatalogCacheTotal.WithLabelValues("hit").Inc()
			return entry.products, nil
		}
		c.cache.Remove(key)
	}
	metrics.CatalogCacheTotal.WithLabelValues("miss").Inc()

	products, err := c.next.Search(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, cachedSearch{products: products, expiresAt: c.now().Add(c.ttl)})
	return products, nil
}
