package domain

import "time"

// DefaultConversationTitle se usa cuando el primer mensaje no aporta palabras.
const DefaultConversationTitle = "New Conversation"

type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
