package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shop-chat/internal/domain"
	"shop-chat/internal/metrics"
	"shop-chat/internal/repository"
)

var (
	ErrChatServiceNotConfigured = errors.New("chat service not configured")
	ErrChatInvalidInput         = errors.New("chat invalid input")
	// ErrConversationAccess indica que la conversacion no existe o pertenece a otro usuario.
	ErrConversationAccess   = errors.New("invalid conversation id or access denied")
	ErrConversationNotFound = errors.New("conversation not found")
)

type ChatInput struct {
	UserID         string
	Message        string
	ConversationID string // vacio = conversacion nueva
}

type ChatResult struct {
	ConversationID   string
	Conversation     domain.Conversation
	UserMessage      domain.Message
	AssistantMessage domain.Message
	Messages         []domain.Message
}

// ChatService orquesta un turno completo: conversacion, persistencia, contexto, modelo y recarga.
type ChatService struct {
	conversations  repository.ConversationRepository
	messages       *MessageService
	contextBuilder *ContextBuilder
	generator      *GenerationService
	locker         ConversationLocker
	logger         *zap.Logger
	now            func() time.Time
}

func NewChatService(
	conversations repository.ConversationRepository,
	messages *MessageService,
	contextBuilder *ContextBuilder,
	generator *GenerationService,
	locker ConversationLocker,
	logger *zap.Logger,
) *ChatService {
	if locker == nil {
		locker = NewMemoryConversationLocker()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{
		conversations:  conversations,
		messages:       messages,
		contextBuilder: contextBuilder,
		generator:      generator,
		locker:         locker,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Handle procesa un mensaje del usuario y devuelve el par de turnos persistido junto al historial completo.
// Solo falla por entrada invalida, conversacion ajena o error de almacenamiento; un fallo del modelo
// produce igualmente un turno de asistente con texto de disculpa.
func (s *ChatService) Handle(ctx context.Context, in ChatInput) (ChatResult, error) {
	if s == nil || s.conversations == nil || s.messages == nil || s.contextBuilder == nil || s.generator == nil {
		return ChatResult{}, ErrChatServiceNotConfigured
	}

	userID := strings.TrimSpace(in.UserID)
	message := strings.TrimSpace(in.Message)
	if userID == "" || message == "" {
		metrics.TurnsTotal.WithLabelValues("rejected").Inc()
		return ChatResult{}, ErrChatInvalidInput
	}

	conversation, err := s.resolveConversation(ctx, userID, strings.TrimSpace(in.ConversationID), message)
	if err != nil {
		if errors.Is(err, ErrConversationAccess) {
			metrics.TurnsTotal.WithLabelValues("rejected").Inc()
		} else {
			metrics.TurnsTotal.WithLabelValues("error").Inc()
		}
		return ChatResult{}, err
	}

	unlock, err := s.locker.Lock(ctx, conversation.ID)
	if err != nil {
		metrics.TurnsTotal.WithLabelValues("error").Inc()
		return ChatResult{}, err
	}
	defer unlock()

	result, fallback, err := s.runTurn(ctx, conversation, message)
	if err != nil {
		metrics.TurnsTotal.WithLabelValues("error").Inc()
		return ChatResult{}, err
	}
	if fallback {
		metrics.TurnsTotal.WithLabelValues("fallback").Inc()
	} else {
		metrics.TurnsTotal.WithLabelValues("ok").Inc()
	}
	return result, nil
}

func (s *ChatService) resolveConversation(ctx context.Context, userID, conversationID, message string) (domain.Conversation, error) {
	if conversationID != "" {
		conversation, err := s.conversations.GetByID(ctx, conversationID)
		if repository.IsNotFound(err) {
			return domain.Conversation{}, ErrConversationAccess
		}
		if err != nil {
			return domain.Conversation{}, fmt.Errorf("get conversation: %w", err)
		}
		if conversation.UserID != userID {
			s.logger.Warn("conversation ownership mismatch",
				zap.String("conversation_id", conversationID),
				zap.String("user_id", userID),
			)
			return domain.Conversation{}, ErrConversationAccess
		}
		return conversation, nil
	}

	now := s.now()
	conversation := domain.Conversation{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     ConversationTitle(message),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.conversations.Create(ctx, conversation); err != nil {
		return domain.Conversation{}, fmt.Errorf("create conversation: %w", err)
	}
	s.logger.Info("conversation created",
		zap.String("conversation_id", conversation.ID),
		zap.String("user_id", userID),
	)
	return conversation, nil
}

// runTurn corre bajo el lock de la conversacion.
func (s *ChatService) runTurn(ctx context.Context, conversation domain.Conversation, message string) (ChatResult, bool, error) {
	userMsg, err := s.messages.Append(ctx, domain.Message{
		ConversationID: conversation.ID,
		Content:        message,
		IsUserMessage:  true,
		CreatedAt:      s.now(),
	})
	if err != nil {
		return ChatResult{}, false, fmt.Errorf("persist user message: %w", err)
	}

	turns, err := s.messages.ListByConversation(ctx, conversation.ID)
	if err != nil {
		return ChatResult{}, false, fmt.Errorf("list messages: %w", err)
	}

	fragments := s.contextBuilder.Build(ctx, historyWithout(turns, userMsg.ID), message)
	generation := s.generator.Generate(ctx, fragments)

	// Un cliente que corta la conexion no debe dejar el turno a medias.
	persistCtx := context.WithoutCancel(ctx)

	assistantAt := s.now()
	if assistantAt.Before(userMsg.CreatedAt) {
		assistantAt = userMsg.CreatedAt
	}
	assistantMsg, err := s.messages.Append(persistCtx, domain.Message{
		ConversationID: conversation.ID,
		Content:        generation.Content,
		IsUserMessage:  false,
		IsFallback:     generation.Fallback,
		CreatedAt:      assistantAt,
	})
	if err != nil {
		return ChatResult{}, false, fmt.Errorf("persist assistant message: %w", err)
	}

	if err := s.conversations.Touch(persistCtx, conversation.ID, assistantMsg.CreatedAt); err != nil {
		return ChatResult{}, false, fmt.Errorf("touch conversation: %w", err)
	}
	if assistantMsg.CreatedAt.After(conversation.UpdatedAt) {
		conversation.UpdatedAt = assistantMsg.CreatedAt
	}

	all, err := s.messages.ListByConversation(persistCtx, conversation.ID)
	if err != nil {
		return ChatResult{}, false, fmt.Errorf("reload messages: %w", err)
	}

	return ChatResult{
		ConversationID:   conversation.ID,
		Conversation:     conversation,
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
		Messages:         all,
	}, generation.Fallback, nil
}

// historyWithout devuelve el historial sin el turno recien persistido del mensaje actual.
func historyWithout(turns []domain.Message, messageID string) []domain.Message {
	out := make([]domain.Message, 0, len(turns))
	for _, m := range turns {
		if m.ID == messageID {
			continue
		}
		out = append(out, m)
	}
	return out
}

func (s *ChatService) Conversation(ctx context.Context, id string) (domain.Conversation, error) {
	if s == nil || s.conversations == nil {
		return domain.Conversation{}, ErrChatServiceNotConfigured
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Conversation{}, ErrConversationNotFound
	}
	conversation, err := s.conversations.GetByID(ctx, id)
	if repository.IsNotFound(err) {
		return domain.Conversation{}, ErrConversationNotFound
	}
	return conversation, err
}

// ConversationMessages devuelve todos los turnos en orden cronologico.
func (s *ChatService) ConversationMessages(ctx context.Context, id string) ([]domain.Message, error) {
	conversation, err := s.Conversation(ctx, id)
	if err != nil {
		return nil, err
	}
	messages, err := s.messages.ListByConversation(ctx, conversation.ID)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return messages, nil
}
