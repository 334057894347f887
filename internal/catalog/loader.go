package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shop-chat/internal/domain"
)

// DefaultBatchSize es la cantidad de filas por round-trip a la base.
const DefaultBatchSize = 100

var ErrMissingNameColumn = errors.New("csv header has no name column")

// ProductStore es el subconjunto del repositorio de productos que usa la carga.
type ProductStore interface {
	CreateBatch(ctx context.Context, products []domain.Product) (int, error)
}

// LoadResult resume una carga.
type LoadResult struct {
	Rows     int // filas de datos leidas
	Inserted int // filas nuevas en la base
	Skipped  int // sin nombre
	Invalid  int // celdas numericas mal formadas
}

// LoadCSV lee productos con columnas name, category, price, description, brand, sku,
// stock_quantity y rating (por nombre, en cualquier orden) y los inserta por lotes.
func LoadCSV(ctx context.Context, r io.Reader, store ProductStore, batchSize int, logger *zap.Logger) (LoadResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return LoadResult{}, fmt.Errorf("read csv header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	if _, ok := columns["name"]; !ok {
		return LoadResult{}, ErrMissingNameColumn
	}

	var (
		result LoadResult
		batch  = make([]domain.Product, 0, batchSize)
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := store.CreateBatch(ctx, batch)
		result.Inserted += n
		batch = batch[:0]
		if err != nil {
			return fmt.Errorf("insert products: %w", err)
		}
		logger.Info("products batch loaded", zap.Int("inserted_total", result.Inserted))
		return nil
	}

	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return result, fmt.Errorf("read csv line %d: %w", line, err)
		}
		result.Rows++

		cell := func(name string) string {
			i, ok := columns[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		product, err := parseProduct(cell)
		if errors.Is(err, errEmptyName) {
			result.Skipped++
			continue
		}
		if err != nil {
			result.Invalid++
			logger.Warn("skipping product row", zap.Int("line", line), zap.Error(err))
			continue
		}

		batch = append(batch, product)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return result, err
			}
		}
	}
	if err := flush(); err != nil {
		return result, err
	}
	return result, nil
}

var errEmptyName = errors.New("empty product name")

func parseProduct(cell func(string) string) (domain.Product, error) {
	name := cell("name")
	if name == "" {
		return domain.Product{}, errEmptyName
	}

	price, err := parseFloat(cell("price"))
	if err != nil {
		return domain.Product{}, fmt.Errorf("price: %w", err)
	}
	rating, err := parseFloat(cell("rating"))
	if err != nil {
		return domain.Product{}, fmt.Errorf("rating: %w", err)
	}
	stock := 0
	if raw := cell("stock_quantity"); raw != "" {
		stock, err = strconv.Atoi(raw)
		if err != nil {
			return domain.Product{}, fmt.Errorf("stock_quantity: %w", err)
		}
	}

	now := time.Now().UTC()
	return domain.Product{
		ID:            uuid.NewString(),
		Name:          name,
		Category:      cell("category"),
		Brand:         cell("brand"),
		Description:   cell("description"),
		SKU:           cell("sku"),
		Price:         price,
		StockQuantity: stock,
		Rating:        rating,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func parseFloat(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseFloat(raw, 64)
}
