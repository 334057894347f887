package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"shop-chat/internal/domain"
)

type mockCatalog struct {
	products []domain.Product
	err      error
	calls    int
	queries  []string
}

func (m *mockCatalog) Search(_ context.Context, text string) ([]domain.Product, error) {
	m.calls++
	m.queries = append(m.queries, text)
	if m.err != nil {
		return nil, m.err
	}
	return m.products, nil
}

func TestCachedCatalog(t *testing.T) {
	t.Run("cache desactivada devuelve el catalogo original", func(t *testing.T) {
		next := &mockCatalog{}
		out, err := NewCachedCatalog(next, 0, time.Minute)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != CatalogSearcher(next) {
			t.Fatalf("expected passthrough when size is 0")
		}
	})

	t.Run("hit normaliza la clave", func(t *testing.T) {
		next := &mockCatalog{products: []domain.Product{{Name: "Dell XPS 13"}}}
		cs, _ := NewCachedCatalog(next, 8, time.Minute)

		if _, err := cs.Search(context.Background(), "Laptops"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out, err := cs.Search(context.Background(), "  laptops ")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if next.calls != 1 {
			t.Fatalf("expected single backend call, got %d", next.calls)
		}
		if len(out) != 1 || out[0].Name != "Dell XPS 13" {
			t.Fatalf("unexpected cached result %+v", out)
		}
	})

	t.Run("expira tras el ttl", func(t *testing.T) {
		next := &mockCatalog{}
		cs, _ := NewCachedCatalog(next, 8, time.Minute)
		cached := cs.(*CachedCatalog)
		now := time.Now()
		cached.now = func() time.Time { return now }

		_, _ = cs.Search(context.Background(), "audio")
		now = now.Add(2 * time.Minute)
		_, _ = cs.Search(context.Background(), "audio")
		if next.calls != 2 {
			t.Fatalf("expected refetch after ttl, got %d calls", next.calls)
		}
	})

	t.Run("errores no se cachean", func(t *testing.T) {
		next := &mockCatalog{err: errors.New("db down")}
		cs, _ := NewCachedCatalog(next, 8, time.Minute)

		if _, err := cs.Search(context.Background(), "audio"); err == nil {
			t.Fatalf("expected error")
		}
		next.err = nil
		if _, err := cs.Search(context.Background(), "audio"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if next.calls != 2 {
			t.Fatalf("expected second backend call after error, got %d", next.calls)
		}
	})
}
