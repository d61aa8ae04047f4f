package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/barekit/kbchat/pkg/apperror"
	"github.com/barekit/kbchat/pkg/llm"
	"github.com/joho/godotenv"
	"github.com/openai/openai-go/option"
)

const completionBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "test-model",
  "choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": %s}}],
  "usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
}`

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	p := New(option.WithBaseURL(srv.URL), option.WithAPIKey("test-key"))
	p.SetModel("test-model")
	return p
}

func TestProvider_Chat(t *testing.T) {
	var captured map[string]any
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, strings.Replace(completionBody, "%s", `"Pratik worked at Acme Corp."`, 1))
	})

	msg, err := p.Chat(context.Background(), []llm.Message{
		{Role: llm.RoleSystem, Content: "Answer from context only."},
		{Role: llm.RoleUser, Content: "Where did Pratik work?"},
	}, llm.ChatOptions{Temperature: llm.Temperature(0.3)})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if msg.Content != "Pratik worked at Acme Corp." {
		t.Errorf("unexpected content %q", msg.Content)
	}
	if p.Model() != "test-model" {
		t.Errorf("expected Model() to report the configured model, got %q", p.Model())
	}
	if captured["model"] != "test-model" {
		t.Errorf("expected model to be sent, got %v", captured["model"])
	}
	if captured["temperature"] != 0.3 {
		t.Errorf("expected temperature 0.3, got %v", captured["temperature"])
	}
	if msgs, ok := captured["messages"].([]any); !ok || len(msgs) != 2 {
		t.Errorf("expected two messages, got %v", captured["messages"])
	}
}

func TestProvider_Chat_UpstreamError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error": {"message": "rate limited", "type": "rate_limit"}}`)
	})

	_, err := p.Chat(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}}, llm.ChatOptions{})
	if !apperror.Is(err, apperror.KindUpstreamLLM) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if got := apperror.UpstreamStatusOf(err); got != http.StatusTooManyRequests {
		t.Errorf("expected upstream status 429, got %d", got)
	}
	if strings.Contains(err.Error(), "test-key") {
		t.Error("error must not expose the API key")
	}
}

func TestProvider_Chat_EmptyContent(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, strings.Replace(completionBody, "%s", `"  "`, 1))
	})

	_, err := p.Chat(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}}, llm.ChatOptions{})
	if !apperror.Is(err, apperror.KindEmptyResponse) {
		t.Fatalf("expected empty response error, got %v", err)
	}
}

func TestProvider_Chat_Timeout(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: "hi"}}, llm.ChatOptions{})
	if !apperror.Is(err, apperror.KindTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestProvider_Chat_UnknownRole(t *testing.T) {
	p := New(option.WithAPIKey("unused"))
	_, err := p.Chat(context.Background(), []llm.Message{{Role: "tool", Content: "x"}}, llm.ChatOptions{})
	if err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestProvider_OpenAI_Integration(t *testing.T) {
	_ = godotenv.Load("../../../.env")
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("Skipping OpenAI integration test: OPENAI_API_KEY not set")
	}

	p := New(option.WithAPIKey(apiKey))
	p.SetModel("gpt-4o-mini")

	msg, err := p.Chat(context.Background(), []llm.Message{
		{Role: llm.RoleUser, Content: "What is 2+2? Reply with just the number."},
	}, llm.ChatOptions{Temperature: llm.Temperature(0)})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if !strings.Contains(msg.Content, "4") {
		t.Logf("Expected '4', got '%s'", msg.Content)
	}
}
