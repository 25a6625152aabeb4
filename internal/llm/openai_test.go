package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatServer(t *testing.T, status int, body any, seen *map[string]any) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			_ = json.NewDecoder(r.Body).Decode(seen)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv.URL + "/v1"
}

func chatCompletion(content, finish string) map[string]any {
	return map[string]any{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"model":  "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": finish,
		}},
		"usage": map[string]any{"prompt_tokens": 40, "completion_tokens": 12, "total_tokens": 52},
	}
}

func TestChatProvider_Generate(t *testing.T) {
	var seen map[string]any
	url := chatServer(t, http.StatusOK, chatCompletion(`{"tip":"Check fridge temperatures"}`, "stop"), &seen)

	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "sk-test", Model: "gpt-4o-mini", BaseURL: url})
	require.NoError(t, err)

	resp, err := p.Generate(context.Background(), Request{
		System:    "coach",
		Prompt:    "advise",
		Schema:    tipSchema,
		MaxTokens: 128,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"tip":"Check fridge temperatures"}`, string(resp.Content))
	assert.Equal(t, 52, resp.Usage.Total())
	assert.Equal(t, "gpt-4o-mini", resp.Model)

	msgs, ok := seen["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	format := seen["response_format"].(map[string]any)
	assert.Equal(t, "json_schema", format["type"])
	assert.Equal(t, "test-tip", format["json_schema"].(map[string]any)["name"])
}

func TestChatProvider_NoSystemPrompt(t *testing.T) {
	var seen map[string]any
	url := chatServer(t, http.StatusOK, chatCompletion("hello", "stop"), &seen)
	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "sk-test", Model: "gpt-4o", BaseURL: url})
	require.NoError(t, err)

	resp, err := p.Generate(context.Background(), Request{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hello", string(resp.Content))
	assert.Len(t, seen["messages"], 1)
	assert.NotContains(t, seen, "response_format")
}

func TestChatProvider_Truncated(t *testing.T) {
	url := chatServer(t, http.StatusOK, chatCompletion(`{"tip":`, "length"), nil)
	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "sk-test", BaseURL: url})
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), Request{Prompt: "x", Schema: tipSchema})
	assert.Equal(t, KindTruncated, KindOf(err))
}

func TestChatProvider_Errors(t *testing.T) {
	tests := []struct {
		status int
		want   Kind
	}{
		{http.StatusTooManyRequests, KindRateLimited},
		{http.StatusServiceUnavailable, KindUnavailable},
	}
	for _, tt := range tests {
		url := chatServer(t, tt.status, map[string]any{
			"error": map[string]any{"message": "slow down", "type": "requests", "code": "rate_limit_exceeded"},
		}, nil)
		p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "sk-test", BaseURL: url})
		require.NoError(t, err)

		_, err = p.Generate(context.Background(), Request{Prompt: "x"})
		assert.Equal(t, tt.want, KindOf(err), "status %d", tt.status)
	}
}

func TestChatProvider_NoChoices(t *testing.T) {
	body := chatCompletion("", "stop")
	body["choices"] = []any{}
	url := chatServer(t, http.StatusOK, body, nil)
	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "sk-test", BaseURL: url})
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), Request{Prompt: "x"})
	assert.Equal(t, KindInvalid, KindOf(err))
}

func TestNewOpenRouterProvider(t *testing.T) {
	_, err := NewOpenRouterProvider(OpenRouterConfig{})
	assert.Error(t, err)

	p, err := NewOpenRouterProvider(OpenRouterConfig{APIKey: "sk-or", Model: "google/gemini-2.0-flash-001"})
	require.NoError(t, err)
	assert.Equal(t, "google/gemini-2.0-flash-001", p.ModelID())

	var seen map[string]any
	url := chatServer(t, http.StatusOK, chatCompletion("ok", "stop"), &seen)
	p, err = NewOpenRouterProvider(OpenRouterConfig{APIKey: "sk-or", Model: "meta/llama", BaseURL: url})
	require.NoError(t, err)
	_, err = p.Generate(context.Background(), Request{Prompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, "meta/llama", seen["model"])
}
