package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"shop-chat/internal/domain"
)

type mockMessageServiceRepo struct {
	lastCreated      domain.Message
	createErr        error
	listData         []domain.Message
	listErr          error
	lastConversation string
}

func (m *mockMessageServiceRepo) Create(_ context.Context, message domain.Message) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.lastCreated = message
	return nil
}

func (m *mockMessageServiceRepo) ListByConversationID(_ context.Context, conversationID string) ([]domain.Message, error) {
	m.lastConversation = conversationID
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.listData, nil
}

func (m *mockMessageServiceRepo) Count(context.Context) (int64, error) {
	return int64(len(m.listData)), nil
}

func TestMessageServiceAppend_NormalizesAndDefaults(t *testing.T) {
	repo := &mockMessageServiceRepo{}
	svc := NewMessageService(repo)

	out, err := svc.Append(context.Background(), domain.Message{
		ConversationID: " c1 ",
		Content:        " hola ",
		IsUserMessage:  true,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if repo.lastCreated.ID == "" || out.ID != repo.lastCreated.ID {
		t.Fatalf("expected generated id returned to caller")
	}
	if repo.lastCreated.CreatedAt.IsZero() {
		t.Fatalf("expected created_at default")
	}
	if repo.lastCreated.ConversationID != "c1" || repo.lastCreated.Content != "hola" {
		t.Fatalf("expected trimmed fields, got conversation=%q content=%q", repo.lastCreated.ConversationID, repo.lastCreated.Content)
	}
	if !repo.lastCreated.IsUserMessage {
		t.Fatalf("expected speaker flag preserved")
	}
}

func TestMessageServiceAppend_Validation(t *testing.T) {
	repo := &mockMessageServiceRepo{}
	svc := NewMessageService(repo)

	cases := []domain.Message{
		{Content: "hola"},
		{ConversationID: "c1"},
		{ConversationID: "c1", Content: "   "},
	}
	for i, c := range cases {
		if _, err := svc.Append(context.Background(), c); !errors.Is(err, ErrMessageInvalidInput) {
			t.Fatalf("case %d expected ErrMessageInvalidInput, got %v", i, err)
		}
	}
}

func TestMessageServiceAppend_PreservesExplicitFields(t *testing.T) {
	repo := &mockMessageServiceRepo{}
	svc := NewMessageService(repo)
	now := time.Now().UTC().Add(-time.Minute)

	msg := domain.Message{
		ID:             "m1",
		ConversationID: "c1",
		Content:        "hola",
		CreatedAt:      now,
	}
	if _, err := svc.Append(context.Background(), msg); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if repo.lastCreated.ID != "m1" || !repo.lastCreated.CreatedAt.Equal(now) {
		t.Fatalf("expected explicit id/created_at preserved")
	}
}

func TestMessageServiceAppend_StorageErrorPropagates(t *testing.T) {
	storageErr := errors.New("db down")
	svc := NewMessageService(&mockMessageServiceRepo{createErr: storageErr})
	if _, err := svc.Append(context.Background(), domain.Message{ConversationID: "c1", Content: "hola"}); !errors.Is(err, storageErr) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestMessageServiceListByConversation(t *testing.T) {
	repo := &mockMessageServiceRepo{
		listData: []domain.Message{{ID: "m1"}, {ID: "m2"}},
	}
	svc := NewMessageService(repo)

	out, err := svc.ListByConversation(context.Background(), " c1 ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if repo.lastConversation != "c1" {
		t.Fatalf("expected trimmed conversation id, got %q", repo.lastConversation)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(out))
	}
}

func TestMessageServiceListByConversation_Empty(t *testing.T) {
	svc := NewMessageService(&mockMessageServiceRepo{})
	out, err := svc.ListByConversation(context.Background(), "  ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out == nil || len(out) != 0 {
		t.Fatalf("expected empty list, got %+v", out)
	}
}

func TestMessageService_NotConfigured(t *testing.T) {
	var svc *MessageService
	if _, err := svc.Append(context.Background(), domain.Message{}); !errors.Is(err, ErrMessageServiceNotConfigured) {
		t.Fatalf("expected ErrMessageServiceNotConfigured, got %v", err)
	}

	svc = NewMessageService(nil)
	if _, err := svc.ListByConversation(context.Background(), "c1"); !errors.Is(err, ErrMessageServiceNotConfigured) {
		t.Fatalf("expected ErrMessageServiceNotConfigured, got %v", err)
	}
}
