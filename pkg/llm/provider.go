package llm

import "context"

// Role represents the role of the message sender (system, user, assistant).
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single message in a chat-completion request or response.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatOptions tunes a single completion.
type ChatOptions struct {
	// Temperature is passed to the model when non-nil.
	Temperature *float64
	// MaxTokens caps the completion length when positive.
	MaxTokens int
}

// Provider defines the interface for an LLM provider.
type Provider interface {
	// Chat sends a list of messages to the LLM and returns the response.
	Chat(ctx context.Context, messages []Message, opts ChatOptions) (*Message, error)
}

// Temperature returns a pointer for ChatOptions.Temperature.
func Temperature(t float64) *float64 {
	return &t
}
