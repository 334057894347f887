package domain

import "time"

// Message es un turno persistido de una conversacion. Inmutable una vez creado.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Content        string    `json:"content"`
	IsUserMessage  bool      `json:"is_user_message"` // true = humano, false = asistente
	IsFallback     bool      `json:"is_fallback"`     // respuesta enlatada por fallo del modelo
	CreatedAt      time.Time `json:"timestamp"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ContextFragment es un elemento de la ventana de contexto enviada al modelo. Nunca se persiste.
type ContextFragment struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Role mapea el flag de autor al rol del modelo.
func (m Message) Role() string {
	if m.IsUserMessage {
		return RoleUser
	}
	return RoleAssistant
}
