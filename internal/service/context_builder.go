package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"shop-chat/internal/domain"
	"shop-chat/internal/metrics"
)

// MaxCatalogFacts limita cuantos productos se citan en el fragmento de hechos.
const MaxCatalogFacts = 5

// DefaultSystemPrompt es la instruccion base del asistente de la tienda.
const DefaultSystemPrompt = `You are a helpful e-commerce assistant. Your role is to:

1. Help customers find products they're looking for
2. Answer questions about products, pricing, and availability
3. Ask clarifying questions when needed to better understand customer needs
4. Provide detailed product recommendations based on customer preferences
5. Be friendly, professional, and informative

If you don't have enough information about what the customer is looking for, ask clarifying questions.
When you have relevant product information available, use it to provide specific recommendations.

Always be helpful and try to guide the customer towards finding what they need.`

// ContextBuilder arma la ventana de contexto: sistema, historial, hechos del catalogo y mensaje actual.
type ContextBuilder struct {
	systemPrompt string
	catalog      CatalogSearcher
	maxHistory   int
	logger       *zap.Logger
}

// NewContextBuilder crea el builder. maxHistory <= 0 envia el historial completo.
func NewContextBuilder(systemPrompt string, catalog CatalogSearcher, maxHistory int, logger *zap.Logger) *ContextBuilder {
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = DefaultSystemPrompt
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContextBuilder{
		systemPrompt: systemPrompt,
		catalog:      catalog,
		maxHistory:   maxHistory,
		logger:       logger,
	}
}

// Build devuelve [system, historial..., hechos?, mensaje actual].
// Si el historial ya termina con el turno del mensaje actual, ese turno se descarta
// para que el mensaje aparezca una sola vez al final.
func (b *ContextBuilder) Build(ctx context.Context, history []domain.Message, currentMessage string) []domain.ContextFragment {
	turns := b.windowHistory(history, currentMessage)

	fragments := make([]domain.ContextFragment, 0, len(turns)+3)
	fragments = append(fragments, domain.ContextFragment{Role: domain.RoleSystem, Content: b.systemPrompt})
	for _, m := range turns {
		fragments = append(fragments, domain.ContextFragment{Role: m.Role(), Content: m.Content})
	}

	if facts, ok := b.RetrieveFacts(ctx, currentMessage); ok {
		fragments = append(fragments, domain.ContextFragment{
			Role:    domain.RoleSystem,
			Content: "Relevant product information: " + facts,
		})
	}

	fragments = append(fragments, domain.ContextFragment{Role: domain.RoleUser, Content: currentMessage})
	return fragments
}

// windowHistory ordena cronologicamente, quita el turno actual repetido al final,
// descarta respuestas de fallback y aplica la ventana.
func (b *ContextBuilder) windowHistory(history []domain.Message, currentMessage string) []domain.Message {
	sorted := make([]domain.Message, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	if n := len(sorted); n > 0 && sorted[n-1].IsUserMessage && sorted[n-1].Content == currentMessage {
		sorted = sorted[:n-1]
	}

	turns := make([]domain.Message, 0, len(sorted))
	for _, m := range sorted {
		if !m.IsUserMessage && m.IsFallback {
			continue
		}
		turns = append(turns, m)
	}

	if b.maxHistory > 0 && len(turns) > b.maxHistory {
		turns = turns[len(turns)-b.maxHistory:]
	}
	return turns
}

// RetrieveFacts busca productos relacionados con el mensaje. Un fallo del catalogo
// se registra y se trata como "sin hechos".
func (b *ContextBuilder) RetrieveFacts(ctx context.Context, message string) (string, bool) {
	if b.catalog == nil || strings.TrimSpace(message) == "" {
		return "", false
	}

	products, err := b.catalog.Search(ctx, message)
	if err != nil {
		metrics.CatalogLookupsTotal.WithLabelValues("error").Inc()
		b.logger.Warn("catalog lookup failed", zap.Error(err))
		return "", false
	}
	if len(products) == 0 {
		metrics.CatalogLookupsTotal.WithLabelValues("miss").Inc()
		return "", false
	}
	metrics.CatalogLookupsTotal.WithLabelValues("hit").Inc()

	if len(products) > MaxCatalogFacts {
		products = products[:MaxCatalogFacts]
	}
	return FormatProductFacts(products), true
}

// FormatProductFacts renderiza una linea por producto.
func FormatProductFacts(products []domain.Product) string {
	lines := make([]string, 0, len(products))
	for _, p := range products {
		lines = append(lines, fmt.Sprintf("- %s (%s) - $%.2f - %s - Stock: %d - Rating: %s/5",
			p.Name,
			p.Brand,
			p.Price,
			p.Category,
			p.StockQuantity,
			formatRating(p.Rating),
		))
	}
	return "Available products:\n" + strings.Join(lines, "\n")
}

// formatRating conserva al menos un decimal: 4 se muestra como "4.0".
func formatRating(r float64) string {
	out := strconv.FormatFloat(r, 'f', -1, 64)
	if !strings.ContainsAny(out, ".nN") {
		out += ".0"
	}
	return out
}
