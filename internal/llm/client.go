package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"shop-chat/internal/domain"
)

var ErrClientNotConfigured = errors.New("llm client not configured")

// CompletionOptions fija la configuracion de decodificacion de una llamada.
type CompletionOptions struct {
	Temperature float32
	MaxTokens   int
}

// LLMClient define la interfaz para generar respuestas con un LLM.
// Un resultado vacio sin error significa que el modelo no devolvio texto.
type LLMClient interface {
	Complete(ctx context.Context, fragments []domain.ContextFragment, opts CompletionOptions) (string, error)
}

// OpenAIClient implementa LLMClient contra cualquier API compatible con OpenAI (xAI, Groq, OpenAI).
type OpenAIClient struct {
	client *openai.Client
	model  string
	apiKey string
	logger *zap.Logger
}

// NewOpenAIClient construye el cliente una sola vez por proceso; se inyecta donde se necesite.
func NewOpenAIClient(baseURL, apiKey, model string, logger *zap.Logger) *OpenAIClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	cfg.HTTPClient = &http.Client{Timeout: 120 * time.Second}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		apiKey: apiKey,
		logger: logger,
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, fragments []domain.ContextFragment, opts CompletionOptions) (string, error) {
	if c == nil || c.client == nil || strings.TrimSpace(c.apiKey) == "" {
		return "", ErrClientNotConfigured
	}

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    toChatMessages(fragments),
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			c.logger.Warn("llm api error",
				zap.Int("status", apiErr.HTTPStatusCode),
				zap.String("message", apiErr.Message),
			)
			return "", fmt.Errorf("llm api error: status=%d: %w", apiErr.HTTPStatusCode, err)
		}
		return "", fmt.Errorf("llm request: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func toChatMessages(fragments []domain.ContextFragment) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(fragments))
	for _, f := range fragments {
		role := openai.ChatMessageRoleUser
		switch f.Role {
		case domain.RoleSystem:
			role = openai.ChatMessageRoleSystem
		case domain.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: f.Content})
	}
	return out
}
