package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"shop-chat/internal/domain"
	"shop-chat/internal/llm"
	"shop-chat/internal/metrics"
)

const (
	// FallbackResponseMessage reemplaza la respuesta cuando el modelo falla.
	FallbackResponseMessage = "I apologize, but I'm having trouble processing your request right now. Please try again later."
	// EmptyResponseMessage reemplaza una respuesta vacia del modelo.
	EmptyResponseMessage = "I apologize, but I couldn't generate a response. Please try again."

	generationTemperature    = 0.7
	generationMaxTokens      = 1000
	defaultGenerationTimeout = 60 * time.Second
)

// Generation es el resultado tipado de invocar al modelo. Content nunca esta vacio.
type Generation struct {
	Content  string
	Fallback bool
	Err      error // detalle del fallo, solo para observabilidad
}

// GenerationService invoca al modelo y aplica la politica de fallback en un unico lugar.
type GenerationService struct {
	client  llm.LLMClient
	timeout time.Duration
	logger  *zap.Logger
}

func NewGenerationService(client llm.LLMClient, timeout time.Duration, logger *zap.Logger) *GenerationService {
	if timeout <= 0 {
		timeout = defaultGenerationTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenerationService{
		client:  client,
		timeout: timeout,
		logger:  logger,
	}
}

// Generate siempre devuelve texto: errores, timeouts y respuestas vacias degradan a un mensaje fijo.
func (s *GenerationService) Generate(ctx context.Context, fragments []domain.ContextFragment) Generation {
	if s == nil || s.client == nil {
		return s.fail(llm.ErrClientNotConfigured)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	text, err := s.client.Complete(callCtx, fragments, llm.CompletionOptions{
		Temperature: generationTemperature,
		MaxTokens:   generationMaxTokens,
	})
	metrics.GenerationDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.logger.Warn("llm generation timed out", zap.Duration("timeout", s.timeout))
		}
		return s.fail(err)
	}

	text = cleanAssistantReply(text)
	if text == "" {
		metrics.GenerationTotal.WithLabelValues("empty").Inc()
		s.logger.Warn("llm returned empty response")
		return Generation{Content: EmptyResponseMessage, Fallback: true}
	}

	metrics.GenerationTotal.WithLabelValues("ok").Inc()
	return Generation{Content: text}
}

func (s *GenerationService) fail(err error) Generation {
	metrics.GenerationTotal.WithLabelValues("error").Inc()
	if s != nil && s.logger != nil {
		s.logger.Error("llm generation failed", zap.Error(err))
	}
	return Generation{Content: FallbackResponseMessage, Fallback: true, Err: err}
}
