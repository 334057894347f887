package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"shop-chat/internal/domain"
	"shop-chat/internal/repository"
)

// MessageService encapsula el historial append-only de turnos de una conversacion.
type MessageService struct {
	repo repository.MessageRepository
}

var (
	ErrMessageServiceNotConfigured = errors.New("message service not configured")
	ErrMessageInvalidInput         = errors.New("message invalid input")
)

func NewMessageService(repo repository.MessageRepository) *MessageService {
	return &MessageService{repo: repo}
}

// Append persiste un turno nuevo y lo devuelve con id y timestamp asignados.
func (s *MessageService) Append(ctx context.Context, msg domain.Message) (domain.Message, error) {
	if s == nil || s.repo == nil {
		return domain.Message{}, ErrMessageServiceNotConfigured
	}

	msg.ConversationID = strings.TrimSpace(msg.ConversationID)
	msg.Content = strings.TrimSpace(msg.Content)

	if msg.ConversationID == "" || msg.Content == "" {
		return domain.Message{}, ErrMessageInvalidInput
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	if err := s.repo.Create(ctx, msg); err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

func (s *MessageService) ListByConversation(ctx context.Context, conversationID string) ([]domain.Message, error) {
	if s == nil || s.repo == nil {
		return nil, ErrMessageServiceNotConfigured
	}
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return []domain.Message{}, nil
	}
	return s.repo.ListByConversationID(ctx, conversationID)
}
