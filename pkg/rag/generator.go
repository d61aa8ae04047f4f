package rag

import (
	"context"
	"strings"

	"github.com/barekit/kbchat/pkg/apperror"
	"github.com/barekit/kbchat/pkg/llm"
)

// FallbackAnswer is what the model is told to say when the context has no answer.
const FallbackAnswer = "I don't have information about that based on the provided documents."

// DefaultSystemPrompt restricts the model to the supplied context.
const DefaultSystemPrompt = "You are a helpful chatbot assistant answering questions about the portfolio owner " +
	"based ONLY on the provided context. Be concise and professional. " +
	"If the answer is not found in the context, say '" + FallbackAnswer + "' Do not make up information."

// DefaultTemperature favours factual, repeatable answers.
const DefaultTemperature = 0.3

var placeholderPhrases = []string{
	strings.ToLower(FallbackAnswer),
	"don't have information",
	"couldn't find",
	"could not find",
	"couldn't generate",
}

// IsPlaceholder reports whether answer is a "no information" reply that should not be cached.
func IsPlaceholder(answer string) bool {
	a := strings.ToLower(strings.ReplaceAll(answer, "’", "'"))
	for _, p := range placeholderPhrases {
		if strings.Contains(a, p) {
			return true
		}
	}
	return false
}

// Generator asks a chat model to answer a question from a context block.
type Generator struct {
	provider     llm.Provider
	systemPrompt string
	temperature  float64
	maxTokens    int
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithSystemPrompt replaces DefaultSystemPrompt.
func WithSystemPrompt(prompt string) GeneratorOption {
	return func(g *Generator) {
		if prompt != "" {
			g.systemPrompt = prompt
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) GeneratorOption {
	return func(g *Generator) {
		g.temperature = t
	}
}

// WithMaxAnswerTokens caps the completion length. Zero leaves it to the provider.
func WithMaxAnswerTokens(n int) GeneratorOption {
	return func(g *Generator) {
		g.maxTokens = n
	}
}

// NewGenerator creates a Generator backed by provider.
func NewGenerator(provider llm.Provider, opts ...GeneratorOption) *Generator {
	g := &Generator{
		provider:     provider,
		systemPrompt: DefaultSystemPrompt,
		temperature:  DefaultTemperature,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Messages builds the system and user messages for query and contextText.
func (g *Generator) Messages(query, contextText string) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: g.systemPrompt},
		{Role: llm.RoleUser, Content: "Context:\n" + contextText + "\n\nQuestion: " + query + "\n\nAnswer:"},
	}
}

// Generate returns the model's answer. Blank content is an empty-response error.
func (g *Generator) Generate(ctx context.Context, query, contextText string) (string, error) {
	msg, err := g.provider.Chat(ctx, g.Messages(query, contextText), llm.ChatOptions{
		Temperature: llm.Temperature(g.temperature),
		MaxTokens:   g.maxTokens,
	})
	if err != nil {
		return "", err
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", apperror.New(apperror.KindEmptyResponse, "model returned an empty answer")
	}
	return strings.TrimSpace(msg.Content), nil
}
