package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/barekit/kbchat/pkg/apperror"
	"github.com/barekit/kbchat/pkg/llm"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Provider implements llm.Provider against any OpenAI-compatible
// chat-completion endpoint (OpenAI, OpenRouter, Groq).
type Provider struct {
	client *openai.Client
	model  string
}

// New creates a Provider. Retries are disabled so a single request never
// issues hidden repeat calls; pass option.WithMaxRetries to override.
func New(opts ...option.RequestOption) *Provider {
	opts = append([]option.RequestOption{option.WithMaxRetries(0)}, opts...)
	client := openai.NewClient(opts...)
	return &Provider{
		client: &client,
		model:  openai.ChatModelGPT4oMini,
	}
}

// SetModel sets the model to use.
func (p *Provider) SetModel(model string) {
	p.model = model
}

// Model returns the configured model name.
func (p *Provider) Model() string {
	return p.model
}

func (p *Provider) Chat(ctx context.Context, messages []llm.Message, opts llm.ChatOptions) (*llm.Message, error) {
	openaiMessages, err := buildMessages(messages)
	if err != nil {
		return nil, err
	}

	params := openai.ChatCompletionNewParams{
		Messages: openaiMessages,
		Model:    p.model,
	}
	if opts.Temperature != nil {
		params.Temperature = openai.Float(*opts.Temperature)
	}
	if opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(opts.MaxTokens))
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, classify(ctx, err)
	}

	if len(completion.Choices) == 0 {
		return nil, apperror.New(apperror.KindEmptyResponse, "chat completion returned no choices")
	}
	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return nil, apperror.New(apperror.KindEmptyResponse, "chat completion returned empty content")
	}

	return &llm.Message{
		Role:    llm.RoleAssistant,
		Content: content,
	}, nil
}

func classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperror.Wrap(apperror.KindTimeout, "chat completion timed out", err)
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apperror.Upstream(apiErr.StatusCode, "chat completion failed", err)
	}
	return apperror.Upstream(0, "chat completion request failed", err)
}

func buildMessages(messages []llm.Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	openaiMessages := make([]openai.ChatCompletionMessageParamUnion, len(messages))
	for i, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			openaiMessages[i] = openai.SystemMessage(msg.Content)
		case llm.RoleUser:
			openaiMessages[i] = openai.UserMessage(msg.Content)
		case llm.RoleAssistant:
			openaiMessages[i] = openai.AssistantMessage(msg.Content)
		default:
			return nil, fmt.Errorf("unknown role: %s", msg.Role)
		}
	}
	return openaiMessages, nil
}
