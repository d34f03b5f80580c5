package llm

import (
	"context"
	"strings"
)

// Chat roles accepted by Provider.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of chat history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a single completion call. SystemPrompt is sent ahead of
// Messages when non-empty.
type Request struct {
	Model        string
	SystemPrompt string
	Messages     []Message
	Temperature  float32
	MaxTokens    int
}

// Response carries the generated text and token usage.
type Response struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Provider is a chat completion backend.
type Provider interface {
	Complete(ctx context.Context, req Request) (*Response, error)
	Name() string
}

// CheckEscalation reports whether message contains any of keywords,
// ignoring case.
func CheckEscalation(message string, keywords []string) bool {
	lower := strings.ToLower(message)
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
