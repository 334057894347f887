package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shop-chat/internal/domain"
)

// ProductRepository es el catalogo de solo lectura para el chat; la escritura es del loader.
type ProductRepository interface {
	Search(ctx context.Context, text string) ([]domain.Product, error)
	List(ctx context.Context, skip, limit int) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (domain.Product, error)
	CreateBatch(ctx context.Context, products []domain.Product) (int, error)
	Count(ctx context.Context) (int64, error)
}

type PgProductRepository struct {
	pool *pgxpool.Pool
}

func NewPgProductRepository(pool *pgxpool.Pool) *PgProductRepository {
	return &PgProductRepository{pool: pool}
}

const productColumns = `id, name, category, brand, description, sku, price, stock_quantity, rating, created_at, updated_at`

// Search hace un match case-insensitive por substring sobre nombre, categoria, marca y descripcion.
func (r *PgProductRepository) Search(ctx context.Context, text string) ([]domain.Product, error) {
	const query = `
		SELECT ` + productColumns + `
		FROM products
		WHERE name ILIKE $1 OR category ILIKE $1 OR brand ILIKE $1 OR description ILIKE $1
		ORDER BY created_at ASC, id ASC
	`
	return r.query(ctx, query, "%"+escapeLike(text)+"%")
}

func (r *PgProductRepository) List(ctx context.Context, skip, limit int) ([]domain.Product, error) {
	const query = `
		SELECT ` + productColumns + `
		FROM products
		ORDER BY created_at ASC, id ASC
		OFFSET $1 LIMIT $2
	`
	return r.query(ctx, query, skip, limit)
}

func (r *PgProductRepository) GetByID(ctx context.Context, id string) (domain.Product, error) {
	const query = `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = $1
	`
	products, err := r.query(ctx, query, id)
	if err != nil {
		return domain.Product{}, err
	}
	if len(products) == 0 {
		return domain.Product{}, pgx.ErrNoRows
	}
	return products[0], nil
}

// CreateBatch inserta en un solo round-trip; los SKU repetidos se ignoran.
func (r *PgProductRepository) CreateBatch(ctx context.Context, products []domain.Product) (int, error) {
	if len(products) == 0 {
		return 0, nil
	}
	const query = `
		INSERT INTO products (id, name, category, brand, description, sku, price, stock_quantity, rating, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (sku) DO NOTHING
	`
	batch := &pgx.Batch{}
	for _, p := range products {
		var rating interface{}
		if p.Rating > 0 {
			rating = p.Rating
		}
		batch.Queue(query,
			p.ID,
			p.Name,
			nullableText(p.Category),
			nullableText(p.Brand),
			nullableText(p.Description),
			nullableText(p.SKU),
			p.Price,
			p.StockQuantity,
			rating,
			p.CreatedAt,
			p.UpdatedAt,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for range products {
		tag, err := results.Exec()
		if err != nil {
			return inserted, err
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

func (r *PgProductRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&n)
	return n, err
}

func (r *PgProductRepository) query(ctx context.Context, query string, args ...interface{}) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		var (
			p                                 domain.Product
			category, brand, description, sku *string
			rating                            *float64
		)
		err := rows.Scan(
			&p.ID,
			&p.Name,
			&category,
			&brand,
			&description,
			&sku,
			&p.Price,
			&p.StockQuantity,
			&rating,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		p.Category = derefText(category)
		p.Brand = derefText(brand)
		p.Description = derefText(description)
		p.SKU = derefText(sku)
		p.Rating = derefFloat(rating)
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

// escapeLike neutraliza los comodines de LIKE en texto libre del usuario.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// IsNotFound reporta si err indica que la fila no existe.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
