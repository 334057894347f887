package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"shop-chat/internal/domain"
	"shop-chat/internal/repository"
)

// UserService coordina reglas de negocio para usuarios.
type UserService struct {
	logger        *zap.Logger
	users         repository.UserRepository
	conversations repository.ConversationRepository
}

func NewUserService(logger *zap.Logger, users repository.UserRepository, conversations repository.ConversationRepository) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		logger:        logger,
		users:         users,
		conversations: conversations,
	}
}

type CreateUserInput struct {
	Username string
	Email    string
	FullName string
}

var (
	ErrUserServiceNotConfigured = errors.New("user service not configured")
	ErrUserNotFound             = errors.New("user not found")
	ErrUserAlreadyExists        = errors.New("username already registered")
	ErrUserInvalidInput         = errors.New("user invalid input")
)

// codigo de Postgres para unique_violation
const pgUniqueViolation = "23505"

func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (domain.User, error) {
	if s == nil || s.users == nil {
		return domain.User{}, ErrUserServiceNotConfigured
	}

	username := strings.TrimSpace(input.Username)
	if username == "" {
		return domain.User{}, ErrUserInvalidInput
	}
	email := normalizeEmail(input.Email)
	if email != "" && !strings.Contains(email, "@") {
		return domain.User{}, ErrUserInvalidInput
	}

	_, err := s.users.GetByUsername(ctx, username)
	if err == nil {
		return domain.User{}, ErrUserAlreadyExists
	}
	if !repository.IsNotFound(err) {
		return domain.User{}, fmt.Errorf("lookup username: %w", err)
	}

	user := domain.User{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     email,
		FullName:  strings.TrimSpace(input.FullName),
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		// carrera entre dos altas con el mismo username o email
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return domain.User{}, ErrUserAlreadyExists
		}
		return domain.User{}, err
	}

	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (domain.User, error) {
	if s == nil || s.users == nil {
		return domain.User{}, ErrUserServiceNotConfigured
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.User{}, ErrUserNotFound
	}
	user, err := s.users.GetByID(ctx, id)
	if repository.IsNotFound(err) {
		return domain.User{}, ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// EnsureUser devuelve el usuario con ese username y lo crea si no existe.
func (s *UserService) EnsureUser(ctx context.Context, input CreateUserInput) (domain.User, error) {
	if s == nil || s.users == nil {
		return domain.User{}, ErrUserServiceNotConfigured
	}
	existing, err := s.users.GetByUsername(ctx, strings.TrimSpace(input.Username))
	if err == nil {
		return existing, nil
	}
	if !repository.IsNotFound(err) {
		return domain.User{}, err
	}
	user, err := s.CreateUser(ctx, input)
	if errors.Is(err, ErrUserAlreadyExists) {
		return s.users.GetByUsername(ctx, strings.TrimSpace(input.Username))
	}
	return user, err
}

// ListConversations devuelve las conversaciones del usuario, la mas reciente primero.
func (s *UserService) ListConversations(ctx context.Context, userID string) ([]domain.Conversation, error) {
	if s == nil || s.conversations == nil {
		return nil, ErrUserServiceNotConfigured
	}
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	conversations, err := s.conversations.ListByUserID(ctx, strings.TrimSpace(userID))
	if err != nil {
		return nil, err
	}
	if conversations == nil {
		conversations = []domain.Conversation{}
	}
	return conversations, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
