package service

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestConversationTitle(t *testing.T) {
	long := strings.Repeat("a", 30) + " " + strings.Repeat("b", 30)

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"primeras cinco palabras", "Do you have any wireless keyboards in stock right now please", "Do you have any wireless"},
		{"vacio", "", "New Conversation"},
		{"solo espacios", "   \t\n ", "New Conversation"},
		{"colapsa espacios", "  hola    mundo  ", "hola mundo"},
		{"trunca a 50", long, strings.Repeat("a", 30) + " " + strings.Repeat("b", 16) + "..."},
		{"exactamente 50 no trunca", strings.Repeat("x", 50), strings.Repeat("x", 50)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ConversationTitle(c.in)
			if got != c.want {
				t.Fatalf("expected %q, got %q", c.want, got)
			}
			if utf8.RuneCountInString(got) > 50 {
				t.Fatalf("title longer than 50 chars: %q", got)
			}
		})
	}
}

func TestConversationTitle_MultibyteTruncation(t *testing.T) {
	in := strings.Repeat("ñ", 60)
	got := ConversationTitle(in)
	if !utf8.ValidString(got) {
		t.Fatalf("expected valid utf8, got %q", got)
	}
	if utf8.RuneCountInString(got) != 50 || !strings.HasSuffix(got, "...") {
		t.Fatalf("expected 47 runes plus ellipsis, got %q", got)
	}
}
