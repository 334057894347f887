package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shop-chat/internal/domain"
	"shop-chat/internal/service"
)

// ChatHandler mantiene dependencias para el endpoint de chat y la lectura de conversaciones.
type ChatHandler struct {
	logger   *zap.Logger
	chatServ *service.ChatService
	userServ *service.UserService
	limiter  service.ChatRateLimiter
}

// NewChatHandler crea una instancia de ChatHandler. limiter puede ser nil (sin limite).
func NewChatHandler(
	logger *zap.Logger,
	chatServ *service.ChatService,
	userServ *service.UserService,
	limiter service.ChatRateLimiter,
) *ChatHandler {
	return &ChatHandler{
		logger:   logger,
		chatServ: chatServ,
		userServ: userServ,
		limiter:  limiter,
	}
}

type chatResponse struct {
	ConversationID string           `json:"conversation_id"`
	UserMessage    domain.Message   `json:"user_message"`
	AIMessage      domain.Message   `json:"ai_message"`
	Messages       []domain.Message `json:"messages"`
}

// PostChat maneja POST /api/chat.
func (h *ChatHandler) PostChat(c *gin.Context) {
	var req struct {
		UserID         string `json:"user_id" binding:"required"`
		Message        string `json:"message"`
		ConversationID string `json:"conversation_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid chat request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if _, err := h.userServ.GetUser(c.Request.Context(), req.UserID); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.logger.Error("chat user lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "an error occurred while processing your message"})
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message content cannot be empty"})
		return
	}

	if h.limiter != nil && !h.limiter.Allow(req.UserID) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
		return
	}

	result, err := h.chatServ.Handle(c.Request.Context(), service.ChatInput{
		UserID:         req.UserID,
		Message:        req.Message,
		ConversationID: req.ConversationID,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrConversationAccess):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrChatInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": "message content cannot be empty"})
		default:
			h.logger.Error("chat turn failed", zap.Error(err), zap.String("user_id", req.UserID))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "an error occurred while processing your message"})
		}
		return
	}

	c.JSON(http.StatusOK, chatResponse{
		ConversationID: result.ConversationID,
		UserMessage:    result.UserMessage,
		AIMessage:      result.AssistantMessage,
		Messages:       result.Messages,
	})
}

// GetConversation maneja GET /api/conversations/:id.
func (h *ChatHandler) GetConversation(c *gin.Context) {
	conversation, err := h.chatServ.Conversation(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.conversationError(c, err)
		return
	}
	c.JSON(http.StatusOK, conversation)
}

// GetConversationMessages maneja GET /api/conversations/:id/messages.
func (h *ChatHandler) GetConversationMessages(c *gin.Context) {
	messages, err := h.chatServ.ConversationMessages(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.conversationError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

func (h *ChatHandler) conversationError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrConversationNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	}
	h.logger.Error("conversation lookup failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load conversation"})
}
