package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shop-chat/internal/domain"
	"shop-chat/internal/llm"
	"shop-chat/internal/service"
)

type mockMessageRepo struct {
	mu        sync.Mutex
	items     []domain.Message
	createErr error
}

func (m *mockMessageRepo) Create(_ context.Context, msg domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.items = append(m.items, msg)
	return nil
}

func (m *mockMessageRepo) ListByConversationID(_ context.Context, conversationID string) ([]domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Message
	for _, msg := range m.items {
		if msg.ConversationID == conversationID {
			out = append(out, msg)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *mockMessageRepo) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.items)), nil
}

type emptyCatalog struct{}

func (emptyCatalog) Search(context.Context, string) ([]domain.Product, error) {
	return nil, nil
}

type denyLimiter struct{}

func (denyLimiter) Allow(string) bool { return false }

type chatTestEnv struct {
	router        *gin.Engine
	conversations *mockConversationRepo
	messages      *mockMessageRepo
	client        *llm.MockClient
}

func setupChatRouter(t *testing.T, limiter service.ChatRateLimiter) *chatTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	users := newMockUserRepo()
	_ = users.Create(context.Background(), domain.User{ID: "u1", Username: "demo_user", IsActive: true})
	env := &chatTestEnv{
		conversations: newMockConversationRepo(),
		messages:      &mockMessageRepo{},
		client:        &llm.MockClient{Response: "We have three laptops in stock."},
	}

	chatSvc := service.NewChatService(
		env.conversations,
		service.NewMessageService(env.messages),
		service.NewContextBuilder("", emptyCatalog{}, 0, logger),
		service.NewGenerationService(env.client, time.Second, logger),
		nil,
		logger,
	)
	userSvc := service.NewUserService(logger, users, env.conversations)
	handler := NewChatHandler(logger, chatSvc, userSvc, limiter)

	r := gin.New()
	r.POST("/api/chat", handler.PostChat)
	r.GET("/api/conversations/:id", handler.GetConversation)
	r.GET("/api/conversations/:id/messages", handler.GetConversationMessages)
	env.router = r
	return env
}

func decodeChat(t *testing.T, body []byte) chatResponse {
	t.Helper()
	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func TestChatHandlerPostChat_NewConversation(t *testing.T) {
	env := setupChatRouter(t, nil)

	rec := performRequest(env.router, http.MethodPost, "/api/chat", map[string]string{
		"user_id": "u1",
		"message": "  I need a laptop  ",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	out := decodeChat(t, rec.Body.Bytes())
	if out.ConversationID == "" {
		t.Fatalf("expected conversation id")
	}
	if out.UserMessage.Content != "I need a laptop" || !out.UserMessage.IsUserMessage {
		t.Fatalf("unexpected user message %+v", out.UserMessage)
	}
	if out.AIMessage.Content != "We have three laptops in stock." || out.AIMessage.IsUserMessage {
		t.Fatalf("unexpected ai message %+v", out.AIMessage)
	}
	if len(out.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(out.Messages))
	}
}

func TestChatHandlerPostChat_ContinuesConversation(t *testing.T) {
	env := setupChatRouter(t, nil)
	first := decodeChat(t, performRequest(env.router, http.MethodPost, "/api/chat", map[string]string{
		"user_id": "u1",
		"message": "hola",
	}).Body.Bytes())

	rec := performRequest(env.router, http.MethodPost, "/api/chat", map[string]string{
		"user_id":         "u1",
		"message":         "y algo mas barato?",
		"conversation_id": first.ConversationID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	out := decodeChat(t, rec.Body.Bytes())
	if out.ConversationID != first.ConversationID || len(out.Messages) != 4 {
		t.Fatalf("expected same conversation with 4 turns, got %s and %d", out.ConversationID, len(out.Messages))
	}
}

func TestChatHandlerPostChat_Errors(t *testing.T) {
	cases := []struct {
		name    string
		limiter service.ChatRateLimiter
		body    map[string]string
		prepare func(env *chatTestEnv)
		want    int
	}{
		{
			name: "json invalido sin user_id",
			body: map[string]string{"message": "hola"},
			want: http.StatusBadRequest,
		},
		{
			name: "usuario inexistente",
			body: map[string]string{"user_id": "nope", "message": "hola"},
			want: http.StatusNotFound,
		},
		{
			name: "mensaje vacio",
			body: map[string]string{"user_id": "u1", "message": "   "},
			want: http.StatusBadRequest,
		},
		{
			name: "conversacion ajena",
			body: map[string]string{"user_id": "u1", "message": "hola", "conversation_id": "c-otro"},
			prepare: func(env *chatTestEnv) {
				_ = env.conversations.Create(context.Background(), domain.Conversation{ID: "c-otro", UserID: "u2"})
			},
			want: http.StatusBadRequest,
		},
		{
			name:    "rate limit",
			limiter: denyLimiter{},
			body:    map[string]string{"user_id": "u1", "message": "hola"},
			want:    http.StatusTooManyRequests,
		},
		{
			name: "fallo de almacenamiento",
			body: map[string]string{"user_id": "u1", "message": "hola"},
			prepare: func(env *chatTestEnv) {
				env.messages.createErr = errors.New("db down")
			},
			want: http.StatusInternalServerError,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := setupChatRouter(t, tc.limiter)
			if tc.prepare != nil {
				tc.prepare(env)
			}
			rec := performRequest(env.router, http.MethodPost, "/api/chat", tc.body)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d body=%s", tc.want, rec.Code, rec.Body.String())
			}
			if len(env.client.Calls) != 0 {
				t.Fatalf("expected model not invoked")
			}
		})
	}
}

func TestChatHandlerPostChat_ModelFailureStillOK(t *testing.T) {
	env := setupChatRouter(t, nil)
	env.client.Err = errors.New("upstream 500")

	rec := performRequest(env.router, http.MethodPost, "/api/chat", map[string]string{
		"user_id": "u1",
		"message": "hola",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	out := decodeChat(t, rec.Body.Bytes())
	if out.AIMessage.Content != service.FallbackResponseMessage {
		t.Fatalf("expected apology, got %q", out.AIMessage.Content)
	}
}

func TestChatHandlerConversationReads(t *testing.T) {
	env := setupChatRouter(t, nil)
	first := decodeChat(t, performRequest(env.router, http.MethodPost, "/api/chat", map[string]string{
		"user_id": "u1",
		"message": "hola",
	}).Body.Bytes())

	t.Run("conversacion", func(t *testing.T) {
		rec := performRequest(env.router, http.MethodGet, "/api/conversations/"+first.ConversationID, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var c domain.Conversation
		_ = json.Unmarshal(rec.Body.Bytes(), &c)
		if c.Title != "hola" || c.UserID != "u1" {
			t.Fatalf("unexpected conversation %+v", c)
		}
	})

	t.Run("mensajes", func(t *testing.T) {
		rec := performRequest(env.router, http.MethodGet, "/api/conversations/"+first.ConversationID+"/messages", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var msgs []domain.Message
		_ = json.Unmarshal(rec.Body.Bytes(), &msgs)
		if len(msgs) != 2 || !msgs[0].IsUserMessage {
			t.Fatalf("unexpected messages %+v", msgs)
		}
	})

	t.Run("inexistente", func(t *testing.T) {
		rec := performRequest(env.router, http.MethodGet, "/api/conversations/nope/messages", nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}
