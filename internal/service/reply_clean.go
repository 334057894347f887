package service

import (
	"regexp"
	"strings"
)

var (
	reasoningBlock = regexp.MustCompile(`(?is)<think>.*?</think>`)
	// bloque abierto que el modelo no llego a cerrar por max_tokens
	danglingReasoning = regexp.MustCompile(`(?is)<think>.*$`)
)

// cleanAssistantReply quita BOM y bloques de razonamiento <think> que algunos modelos
// compatibles con OpenAI devuelven dentro del contenido.
func cleanAssistantReply(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	s = strings.TrimPrefix(s, "\uFEFF")
	s = reasoningBlock.ReplaceAllString(s, "")
	s = danglingReasoning.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
