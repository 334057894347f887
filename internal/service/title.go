package service

import (
	"strings"
	"unicode/utf8"

	"shop-chat/internal/domain"
)

const (
	titleMaxWords = 5
	titleMaxChars = 50
)

// ConversationTitle deriva el titulo de una conversacion a partir de su primer mensaje.
func ConversationTitle(firstMessage string) string {
	words := strings.Fields(firstMessage)
	if len(words) > titleMaxWords {
		words = words[:titleMaxWords]
	}
	title := strings.Join(words, " ")
	if utf8.RuneCountInString(title) > titleMaxChars {
		runes := []rune(title)
		title = string(runes[:titleMaxChars-3]) + "..."
	}
	if title == "" {
		return domain.DefaultConversationTitle
	}
	return title
}
